package translate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/provider/openai"
	"github.com/rhuss/simple-translate/pkg/settings"
)

// recorder captures listener notifications in order. A second terminal
// notification panics on the closed channel, which fails the test.
type recorder struct {
	mu     sync.Mutex
	events []api.Event
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) OnToken(delta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, api.Event{Type: api.EventToken, Delta: delta})
}

func (r *recorder) OnComplete(resp api.TranslationResponse) {
	r.mu.Lock()
	r.events = append(r.events, api.Event{Type: api.EventComplete, Response: &resp})
	r.mu.Unlock()
	close(r.done)
}

func (r *recorder) OnError(message string) {
	r.mu.Lock()
	r.events = append(r.events, api.Event{Type: api.EventError, Error: message})
	r.mu.Unlock()
	close(r.done)
}

// wait blocks until the terminal notification and returns all events.
func (r *recorder) wait(t *testing.T) []api.Event {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal notification")
	}
	return r.snapshot()
}

func (r *recorder) snapshot() []api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Event(nil), r.events...)
}

// tokens returns the deltas of all token events.
func tokens(events []api.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Type == api.EventToken {
			out = append(out, ev.Delta)
		}
	}
	return out
}

// fakeProvider serves a scripted stream split into fixed chunks.
type fakeProvider struct {
	chunks  []string
	readErr error // returned after the last chunk instead of io.EOF
	openErr error
	gate    chan struct{} // when set, OpenStream blocks until it is closed

	opened atomic.Int32

	mu      sync.Mutex
	lastKey string
	lastReq *provider.ChatRequest
}

var _ provider.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) OpenStream(_ context.Context, apiKey string, req *provider.ChatRequest) (io.ReadCloser, error) {
	f.opened.Add(1)
	f.mu.Lock()
	f.lastKey = apiKey
	f.lastReq = req
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &chunkReader{chunks: append([]string(nil), f.chunks...), err: f.readErr}, nil
}

func (f *fakeProvider) ExtractDeltas(event string) []string {
	return openai.ExtractDeltas(event)
}

func (f *fakeProvider) ListModels(context.Context, string) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{{ID: "fake-model"}}, nil
}

func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) request() (string, *provider.ChatRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastKey, f.lastReq
}

// chunkReader returns one scripted chunk per Read.
type chunkReader struct {
	chunks []string
	err    error
	closed bool
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *chunkReader) Close() error {
	c.closed = true
	return nil
}

// deltaEvent renders one Chat Completions streaming event carrying content.
func deltaEvent(content string) string {
	return `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","model":"gpt-4.1-mini","choices":[{"index":0,"delta":{"content":` + quote(content) + `},"finish_reason":null}]}` + "\n\n"
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const doneEvent = "data: [DONE]\n\n"

func testSettings() settings.Settings {
	s := settings.Defaults()
	s.APIKey = "sk-test-1234567890"
	return s
}

func testRequest() api.TranslationRequest {
	return api.TranslationRequest{
		Text:           "Hello world",
		SourceLanguage: "en",
		TargetLanguage: "es",
	}
}
