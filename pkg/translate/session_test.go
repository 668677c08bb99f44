package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/provider/openai"
)

func runSession(t *testing.T, p *fakeProvider) ([]api.Event, *Session, error) {
	t.Helper()
	rec := newRecorder()
	sess := NewSession(p, testRequest(), testSettings(), rec)
	err := sess.Run(context.Background())
	return rec.wait(t), sess, err
}

func TestSession_HolaMundo(t *testing.T) {
	p := &fakeProvider{chunks: []string{deltaEvent("Hola") + deltaEvent(" mundo") + doneEvent}}

	events, sess, err := runSession(t, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []api.Event{
		{Type: api.EventToken, Delta: "Hola"},
		{Type: api.EventToken, Delta: " mundo"},
		{Type: api.EventComplete, Response: &api.TranslationResponse{
			TranslatedText: "Hola mundo",
			SourceLanguage: "en",
			TargetLanguage: "es",
		}},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
	if sess.State() != StateCompleted {
		t.Errorf("state = %s, want completed", sess.State())
	}
}

func TestSession_ConcatenatedDeltasEqualResult(t *testing.T) {
	stream := deltaEvent("El ") + deltaEvent("veloz ") + deltaEvent("zorro ") +
		deltaEvent("marrón ") + deltaEvent("salta.\n") + doneEvent

	// Every chunk size yields the same notifications.
	var first []api.Event
	for size := 1; size <= len(stream); size += 7 {
		var chunks []string
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			chunks = append(chunks, stream[i:end])
		}

		events, _, err := runSession(t, &fakeProvider{chunks: chunks})
		if err != nil {
			t.Fatalf("size %d: Run: %v", size, err)
		}
		final := events[len(events)-1]
		if final.Type != api.EventComplete {
			t.Fatalf("size %d: last event = %s, want complete", size, final.Type)
		}
		if got := strings.Join(tokens(events), ""); got != final.Response.TranslatedText {
			t.Errorf("size %d: concatenated deltas %q != translated text %q", size, got, final.Response.TranslatedText)
		}
		if first == nil {
			first = events
		} else if !reflect.DeepEqual(events, first) {
			t.Errorf("size %d: events differ from single-byte split", size)
		}
	}
}

func TestSession_SkipsNonContentEvents(t *testing.T) {
	stream := ": keep-alive\n\n" +
		"event: ping\ndata: {not json\n\n" +
		`data: {"choices":[{"index":0,"delta":{"role":"assistant"}}]}` + "\n\n" +
		deltaEvent("ok") +
		`data: {"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}` + "\n\n" +
		doneEvent

	events, _, err := runSession(t, &fakeProvider{chunks: []string{stream}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := tokens(events); !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("tokens = %q, want [ok]", got)
	}
	if events[len(events)-1].Type != api.EventComplete {
		t.Errorf("last event = %s, want complete", events[len(events)-1].Type)
	}
}

func TestSession_FinalEventWithoutBlankLine(t *testing.T) {
	stream := deltaEvent("uno") + strings.TrimSuffix(deltaEvent(" dos"), "\n")

	events, _, err := runSession(t, &fakeProvider{chunks: []string{stream}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := events[len(events)-1]
	if final.Type != api.EventComplete || final.Response.TranslatedText != "uno dos" {
		t.Errorf("final event = %+v, want completion with %q", final, "uno dos")
	}
}

func TestSession_EmptyStreamCompletesWithEmptyText(t *testing.T) {
	events, _, err := runSession(t, &fakeProvider{chunks: []string{doneEvent}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 1 || events[0].Type != api.EventComplete || events[0].Response.TranslatedText != "" {
		t.Errorf("events = %+v, want a single empty completion", events)
	}
}

func TestSession_OpenErrorNotifiesOnce(t *testing.T) {
	openErr := api.NewProviderError(http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
	events, sess, err := runSession(t, &fakeProvider{openErr: openErr})

	if !errors.Is(err, openErr) {
		t.Errorf("Run error = %v, want %v", err, openErr)
	}
	want := []api.Event{{Type: api.EventError, Error: `{"error":{"message":"bad key"}}`}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
	if sess.State() != StateErrored {
		t.Errorf("state = %s, want errored", sess.State())
	}
}

func TestSession_MidStreamFailure(t *testing.T) {
	p := &fakeProvider{
		chunks:  []string{deltaEvent("Uno"), deltaEvent(" dos"), deltaEvent(" tres")},
		readErr: io.ErrUnexpectedEOF,
	}

	events, sess, err := runSession(t, p)
	if err == nil {
		t.Fatal("expected error")
	}

	if got := tokens(events); !reflect.DeepEqual(got, []string{"Uno", " dos", " tres"}) {
		t.Errorf("tokens = %q, want three deltas", got)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 3 tokens and 1 error", len(events))
	}
	last := events[3]
	if last.Type != api.EventError || !strings.Contains(last.Error, io.ErrUnexpectedEOF.Error()) {
		t.Errorf("last event = %+v, want stream error", last)
	}
	for _, ev := range events {
		if ev.Type == api.EventComplete {
			t.Error("unexpected completion after stream failure")
		}
	}
	if sess.State() != StateErrored {
		t.Errorf("state = %s, want errored", sess.State())
	}
}

func TestSession_RunTwice(t *testing.T) {
	rec := newRecorder()
	sess := NewSession(&fakeProvider{chunks: []string{deltaEvent("x")}}, testRequest(), testSettings(), rec)

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := len(rec.wait(t))

	if err := sess.Run(context.Background()); !errors.Is(err, ErrSessionStarted) {
		t.Errorf("second Run error = %v, want ErrSessionStarted", err)
	}
	if after := len(rec.snapshot()); after != before {
		t.Errorf("second Run produced %d extra notifications", after-before)
	}
}

func TestSession_SendsPromptAndCredential(t *testing.T) {
	p := &fakeProvider{chunks: []string{doneEvent}}
	runSession(t, p)

	key, req := p.request()
	if key != "sk-test-1234567890" {
		t.Errorf("api key = %q", key)
	}
	if req.Model != "gpt-4.1-mini" || !req.Stream {
		t.Errorf("request = %+v, want model gpt-4.1-mini streaming", req)
	}
	if req.Messages[1].Content != "Translate the following text from en to es:\n\nHello world" {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
}

func TestSession_OpenAIProviderEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, ev := range []string{deltaEvent("Hola"), deltaEvent(" mundo"), doneEvent} {
			io.WriteString(w, ev)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	p, err := openai.New(openai.Config{BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("openai.New: %v", err)
	}
	defer p.Close()

	rec := newRecorder()
	if err := NewSession(p, testRequest(), testSettings(), rec).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	events := rec.wait(t)
	if got := tokens(events); !reflect.DeepEqual(got, []string{"Hola", " mundo"}) {
		t.Errorf("tokens = %q", got)
	}
	if final := events[len(events)-1]; final.Response == nil || final.Response.TranslatedText != "Hola mundo" {
		t.Errorf("final event = %+v", final)
	}
}

func TestSession_OpenAIProviderNon2xx(t *testing.T) {
	const body = `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	p, err := openai.New(openai.Config{BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("openai.New: %v", err)
	}
	defer p.Close()

	rec := newRecorder()
	NewSession(p, testRequest(), testSettings(), rec).Run(context.Background())

	events := rec.wait(t)
	want := []api.Event{{Type: api.EventError, Error: body}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:       "idle",
		StateRequesting: "requesting",
		StateStreaming:  "streaming",
		StateCompleted:  "completed",
		StateErrored:    "errored",
		State(42):       "state(42)",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(st), got, want)
		}
	}
	if StateStreaming.IsTerminal() || !StateErrored.IsTerminal() {
		t.Error("IsTerminal misclassifies states")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(api.NewTransportError("dial failed")); got != "dial failed" {
		t.Errorf("ErrorMessage(APIError) = %q", got)
	}
	if got := ErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("ErrorMessage(error) = %q", got)
	}
}
