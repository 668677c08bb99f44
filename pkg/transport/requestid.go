package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// RequestID returns middleware that assigns a unique request ID to each
// translation. If the context already carries a request ID (set by the
// HTTP adapter from the X-Request-ID header), that value is used.
//
// The session inherits the context's values, so its log lines carry the
// same ID.
func RequestID() Middleware {
	return func(next Translator) Translator {
		return TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, GenerateRequestID())
			}
			return next.Dispatch(ctx, req, s, l)
		})
	}
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID returns a copy of ctx carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GenerateRequestID creates a new unique request ID as a hex string.
func GenerateRequestID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
