package translate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/observability"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/storage"
)

// MissingAPIKeyMessage is delivered when a translation is requested before
// an API key has been configured.
const MissingAPIKeyMessage = "API key not configured. Please set your API key in Settings."

// ShuttingDownMessage is delivered for translations requested after
// Shutdown has begun.
const ShuttingDownMessage = "translation service is shutting down"

// Dispatcher is the entry point for translations. It validates each request
// synchronously and runs accepted ones on their own goroutine.
type Dispatcher struct {
	provider provider.Provider
	history  storage.HistoryStore

	// models collapses concurrent model listings for the same key.
	models singleflight.Group

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Dispatcher. The provider must not be nil. The history store
// can be nil, in which case completed translations are not recorded.
func New(p provider.Provider, history storage.HistoryStore) (*Dispatcher, error) {
	if p == nil {
		return nil, fmt.Errorf("translate: provider must not be nil")
	}
	return &Dispatcher{
		provider: p,
		history:  history,
	}, nil
}

// Dispatch starts a translation of req using a snapshot of s and returns
// without waiting for it.
//
// When the request cannot start (no API key, missing text or language, or
// Shutdown has begun), the listener receives exactly one OnError before
// Dispatch returns, and the same failure is returned as an *api.APIError. Otherwise Dispatch returns
// nil and the listener is notified from a new goroutine.
//
// The session inherits ctx's values but not its cancellation: it always
// runs until the provider stream ends.
func (d *Dispatcher) Dispatch(ctx context.Context, req api.TranslationRequest, s settings.Settings, l Listener) error {
	if l == nil {
		return api.NewServerError("listener must not be nil")
	}

	if !s.HasCredential() {
		return d.reject(l, api.NewConfigurationError("api_key", MissingAPIKeyMessage))
	}
	if apiErr := api.ValidateTranslationRequest(&req); apiErr != nil {
		return d.reject(l, apiErr)
	}

	// wg.Add must not race with a Wait in progress.
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return d.reject(l, api.NewServerError(ShuttingDownMessage))
	}
	d.wg.Add(1)
	d.mu.Unlock()

	if s.Model == "" {
		s.Model = settings.DefaultModel
	}
	if d.history != nil {
		l = &recordingListener{
			next:    l,
			store:   d.history,
			ctx:     context.WithoutCancel(ctx),
			request: req,
			model:   s.Model,
		}
	}

	sess := NewSession(d.provider, req, s, l)
	sessCtx := context.WithoutCancel(ctx)

	go func() {
		defer d.wg.Done()
		sess.Run(sessCtx)
	}()

	return nil
}

// Shutdown stops accepting translations and waits until every dispatched
// one has delivered its terminal notification, or until ctx is done.
// Dispatch calls made after Shutdown begins are rejected with
// ShuttingDownMessage.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running translations: %w", ctx.Err())
	}
}

// Wait is Shutdown without a deadline.
func (d *Dispatcher) Wait() {
	d.Shutdown(context.Background())
}

// ListModels returns the models available with the credential in s.
// Concurrent calls for the same key share one provider request, bound to
// the context of the first caller.
func (d *Dispatcher) ListModels(ctx context.Context, s settings.Settings) ([]provider.ModelInfo, error) {
	if !s.HasCredential() {
		return nil, api.NewConfigurationError("api_key", MissingAPIKeyMessage)
	}
	v, err, _ := d.models.Do(s.APIKey, func() (any, error) {
		return d.provider.ListModels(ctx, s.APIKey)
	})
	if err != nil {
		return nil, err
	}
	return v.([]provider.ModelInfo), nil
}

func (d *Dispatcher) reject(l Listener, apiErr *api.APIError) error {
	observability.TranslationsTotal.WithLabelValues(observability.StatusRejected).Inc()
	slog.Debug("translation rejected", "type", apiErr.Type, "param", apiErr.Param, "message", apiErr.Message)
	l.OnError(apiErr.Message)
	return apiErr
}
