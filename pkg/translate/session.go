package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/observability"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/provider/sse"
	"github.com/rhuss/simple-translate/pkg/settings"
)

// readBufferSize is the size of each read from the provider stream.
const readBufferSize = 4096

// ErrSessionStarted is returned by Run when the session already ran.
var ErrSessionStarted = errors.New("translate: session already started")

// State is the lifecycle phase of a Session.
type State int

const (
	// StateIdle means the session has not been run.
	StateIdle State = iota
	// StateRequesting means the provider request is in flight.
	StateRequesting
	// StateStreaming means the provider answered 2xx and the body is being read.
	StateStreaming
	// StateCompleted means OnComplete was delivered.
	StateCompleted
	// StateErrored means OnError was delivered.
	StateErrored
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateErrored
}

// Session performs one translation against a provider. It is single-use.
type Session struct {
	provider provider.Provider
	req      api.TranslationRequest
	settings settings.Settings
	listener Listener

	mu    sync.Mutex
	state State

	// Owned by the Run goroutine.
	full   strings.Builder
	tokens int
}

// NewSession creates an idle session. The request and settings are copied;
// later changes by the caller do not affect it.
func NewSession(p provider.Provider, req api.TranslationRequest, s settings.Settings, l Listener) *Session {
	return &Session{
		provider: p,
		req:      req,
		settings: s,
		listener: l,
		state:    StateIdle,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run drives the session to a terminal state, notifying the listener along
// the way. It returns the error already delivered through OnError, or nil
// after OnComplete. Calling Run more than once returns ErrSessionStarted
// without notifying.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.state = StateRequesting
	s.mu.Unlock()

	provName := s.provider.Name()
	model := s.settings.Model
	start := time.Now()

	observability.ActiveTranslations.Inc()
	defer observability.ActiveTranslations.Dec()
	defer func() {
		observability.TranslationDuration.WithLabelValues(provName, model).Observe(time.Since(start).Seconds())
	}()

	slog.Debug("translation started",
		"provider", provName,
		"model", model,
		"source", s.req.SourceLanguage,
		"target", s.req.TargetLanguage,
		"text_length", len(s.req.Text),
	)

	body, err := s.provider.OpenStream(ctx, s.settings.APIKey, BuildChatRequest(s.req, s.settings))
	observability.ProviderLatency.WithLabelValues(provName, model).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(provName, model, "error").Inc()
		return s.fail(err, start)
	}
	observability.ProviderRequestsTotal.WithLabelValues(provName, model, "success").Inc()
	defer body.Close()

	s.setState(StateStreaming)
	debug.Log("session", "stream opened", "elapsed", time.Since(start))

	if err := s.consume(body, start); err != nil {
		return s.fail(err, start)
	}

	return s.complete(start)
}

// consume reads the stream to exhaustion, delivering deltas as complete
// events arrive.
func (s *Session) consume(body io.Reader, start time.Time) error {
	dec := sse.NewFrameDecoder()
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			debug.Log("sse", "chunk received", "bytes", n)
			if _, err := dec.Write(buf[:n]); err != nil {
				return api.NewTransportError(fmt.Sprintf("stream error: %s", err.Error()))
			}
			for {
				event, ok := dec.Next()
				if !ok {
					break
				}
				s.deliver(event, start)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return api.NewTransportError(fmt.Sprintf("stream error: %s", readErr.Error()))
		}
	}

	// A stream may end without the final blank line.
	if event, ok := dec.Flush(); ok {
		s.deliver(event, start)
	}
	return nil
}

// deliver extracts the deltas of one event and forwards each one.
func (s *Session) deliver(event string, start time.Time) {
	debug.Trace("sse", "event", "data", event)
	for _, delta := range s.provider.ExtractDeltas(event) {
		if s.tokens == 0 {
			elapsed := time.Since(start)
			observability.FirstTokenLatency.WithLabelValues(s.provider.Name(), s.settings.Model).Observe(elapsed.Seconds())
			debug.Log("session", "first token", "elapsed", elapsed)
		}
		s.tokens++
		s.full.WriteString(delta)
		observability.DeltasTotal.WithLabelValues(s.provider.Name(), s.settings.Model).Inc()
		s.listener.OnToken(delta)
	}
}

func (s *Session) complete(start time.Time) error {
	resp := api.TranslationResponse{
		TranslatedText: s.full.String(),
		SourceLanguage: s.req.SourceLanguage,
		TargetLanguage: s.req.TargetLanguage,
	}
	s.setState(StateCompleted)
	observability.TranslationsTotal.WithLabelValues(observability.StatusCompleted).Inc()

	slog.Info("translation completed",
		"model", s.settings.Model,
		"tokens", s.tokens,
		"result_length", len(resp.TranslatedText),
		"duration", time.Since(start),
	)

	s.listener.OnComplete(resp)
	return nil
}

func (s *Session) fail(err error, start time.Time) error {
	phase := s.State()
	s.setState(StateErrored)
	observability.TranslationsTotal.WithLabelValues(observability.StatusErrored).Inc()

	slog.Warn("translation failed",
		"model", s.settings.Model,
		"phase", phase.String(),
		"tokens", s.tokens,
		"duration", time.Since(start),
		"error", err,
	)

	// Partial text is discarded; the listener only learns the message.
	s.full.Reset()
	s.listener.OnError(ErrorMessage(err))
	return err
}

// ErrorMessage returns the text delivered to listeners for err: the bare
// message of an *api.APIError, or err.Error() otherwise.
func ErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
