package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// Recovery returns middleware that catches panics raised while a
// translation is being dispatched and converts them to server errors.
// Panics on the session goroutine are not covered.
func Recovery() Middleware {
	return func(next Translator) Translator {
		return TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in dispatch",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
					)
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Dispatch(ctx, req, s, l)
		})
	}
}
