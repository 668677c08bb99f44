package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// Logging returns middleware that emits one structured log entry per
// translation: at rejection time for requests that never start, otherwise
// when the listener receives its terminal notification. The entry carries
// the request ID, language pair, model, token count and duration.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Translator) Translator {
		return TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
			if l == nil {
				return next.Dispatch(ctx, req, s, nil)
			}

			ll := &loggingListener{
				next:        l,
				logger:      logger,
				ctx:         ctx,
				start:       time.Now(),
				dispatching: true,
				attrs: []slog.Attr{
					slog.String("request_id", RequestIDFromContext(ctx)),
					slog.String("source_language", req.SourceLanguage),
					slog.String("target_language", req.TargetLanguage),
					slog.String("model", s.Model),
				},
			}

			err := next.Dispatch(ctx, req, s, ll)

			ll.mu.Lock()
			ll.dispatching = false
			pending, failed := ll.pending, ll.failed
			ll.mu.Unlock()

			switch {
			case err != nil:
				logger.LogAttrs(ctx, slog.LevelWarn, "translation rejected",
					append(ll.outcome(), slog.String("error", err.Error()))...)
			case failed:
				// The session failed before Dispatch returned.
				ll.logFailure(pending)
			}
			return err
		})
	}
}

// loggingListener forwards notifications and logs the outcome once.
type loggingListener struct {
	next   translate.Listener
	logger *slog.Logger
	ctx    context.Context
	start  time.Time
	attrs  []slog.Attr

	mu          sync.Mutex
	tokens      int
	dispatching bool
	failed      bool
	pending     string
}

func (l *loggingListener) OnToken(delta string) {
	l.mu.Lock()
	l.tokens++
	l.mu.Unlock()
	l.next.OnToken(delta)
}

func (l *loggingListener) OnComplete(resp api.TranslationResponse) {
	l.logger.LogAttrs(l.ctx, slog.LevelInfo, "translation completed",
		append(l.outcome(), slog.Int("result_length", len(resp.TranslatedText)))...)
	l.next.OnComplete(resp)
}

func (l *loggingListener) OnError(message string) {
	l.mu.Lock()
	deferred := l.dispatching
	if deferred {
		l.failed, l.pending = true, message
	}
	l.mu.Unlock()

	if !deferred {
		l.logFailure(message)
	}
	l.next.OnError(message)
}

func (l *loggingListener) logFailure(message string) {
	l.logger.LogAttrs(l.ctx, slog.LevelWarn, "translation failed",
		append(l.outcome(), slog.String("error", message))...)
}

// outcome returns the common attributes plus token count and duration.
func (l *loggingListener) outcome() []slog.Attr {
	l.mu.Lock()
	tokens := l.tokens
	l.mu.Unlock()

	attrs := make([]slog.Attr, 0, len(l.attrs)+3)
	attrs = append(attrs, l.attrs...)
	return append(attrs,
		slog.Int("tokens", tokens),
		slog.Duration("duration", time.Since(l.start)),
	)
}
