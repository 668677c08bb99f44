package transport

import (
	"context"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// Translator starts a translation. It returns synchronously with an error
// when the request is rejected; otherwise progress arrives on the listener.
type Translator interface {
	Dispatch(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error
}

// TranslatorFunc is an adapter that allows using an ordinary function
// as a Translator.
type TranslatorFunc func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error

// Dispatch calls f(ctx, req, s, l).
func (f TranslatorFunc) Dispatch(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
	return f(ctx, req, s, l)
}

// ModelLister lists the models the provider offers for a credential.
type ModelLister interface {
	ListModels(ctx context.Context, s settings.Settings) ([]provider.ModelInfo, error)
}

// SettingsStore loads and persists settings. *settings.Store implements it.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Save(s settings.Settings) error
}

var (
	_ Translator    = (*translate.Dispatcher)(nil)
	_ ModelLister   = (*translate.Dispatcher)(nil)
	_ SettingsStore = (*settings.Store)(nil)
)
