package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/storage"
	"github.com/rhuss/simple-translate/pkg/translate"
	"github.com/rhuss/simple-translate/pkg/transport"
)

// Backend groups the collaborators the adapter serves. Translator, Models
// and Settings are required; History is nil when no history store is
// configured.
type Backend struct {
	Translator transport.Translator
	Models     transport.ModelLister
	Settings   transport.SettingsStore
	History    storage.HistoryStore
}

// Adapter serves the local translation API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	translator transport.Translator
	models     transport.ModelLister
	settings   transport.SettingsStore
	history    storage.HistoryStore
	mux        *http.ServeMux
	config     Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// translateBody is the POST /v1/translations payload. When Settings is
// omitted the stored settings are used.
type translateBody struct {
	Request  api.TranslationRequest `json:"request"`
	Settings *settings.Settings     `json:"settings,omitempty"`
}

// settingsView is what GET and PUT /v1/settings return. The API key is
// redacted.
type settingsView struct {
	settings.Settings
	HasAPIKey bool `json:"has_api_key"`
}

// settingsUpdate is the PUT /v1/settings payload. Absent fields keep their
// stored value; an empty string clears a field.
type settingsUpdate struct {
	APIKey                *string `json:"api_key"`
	Model                 *string `json:"model"`
	Provider              *string `json:"provider"`
	SystemPrompt          *string `json:"system_prompt"`
	DefaultSourceLanguage *string `json:"default_source_language"`
	DefaultTargetLanguage *string `json:"default_target_language"`
}

// listBody is the envelope for catalog responses.
type listBody[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

// NewAdapter creates an HTTP adapter for the given backend.
// Middleware is applied to the Translator in the given order.
func NewAdapter(b Backend, cfg Config, middlewares ...transport.Middleware) *Adapter {
	translator := b.Translator
	if len(middlewares) > 0 {
		translator = transport.Chain(middlewares...)(translator)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		translator: translator,
		models:     b.Models,
		settings:   b.Settings,
		history:    b.History,
		mux:        http.NewServeMux(),
		config:     cfg,
	}

	a.mux.HandleFunc("POST /v1/translations", a.handleTranslate)
	a.mux.HandleFunc("GET /v1/settings", a.handleGetSettings)
	a.mux.HandleFunc("PUT /v1/settings", a.handlePutSettings)
	a.mux.HandleFunc("GET /v1/models", a.handleListModels)
	a.mux.HandleFunc("GET /v1/languages", a.handleListLanguages)
	a.mux.HandleFunc("GET /v1/history", a.handleListHistory)
	a.mux.HandleFunc("GET /v1/history/{id}", a.handleGetHistory)
	a.mux.HandleFunc("DELETE /v1/history/{id}", a.handleDeleteHistory)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header into the
// request context, generating one when the client sent none, and echoes it
// on the response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleTranslate handles POST /v1/translations.
func (a *Adapter) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body translateBody
	if !a.decodeJSON(w, r, &body) {
		return
	}

	var s settings.Settings
	if body.Settings != nil {
		s = *body.Settings
	} else {
		stored, err := a.settings.Load()
		if err != nil {
			transport.WriteAPIError(w, api.NewServerError("loading settings: "+err.Error()))
			return
		}
		s = stored
	}

	l := newSSEListener(w)
	defer l.close()

	if err := a.translator.Dispatch(r.Context(), body.Request, s, l); err != nil {
		l.discard()
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}

	if err := l.start(); err != nil {
		debug.Log("transport", "stream start failed", "error", err)
		return
	}

	select {
	case <-l.Done():
	case <-r.Context().Done():
		debug.Log("transport", "client disconnected before translation finished",
			"request_id", transport.RequestIDFromContext(r.Context()))
	}
}

// handleGetSettings handles GET /v1/settings.
func (a *Adapter) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := a.settings.Load()
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("loading settings: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, newSettingsView(s))
}

// handlePutSettings handles PUT /v1/settings.
func (a *Adapter) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var upd settingsUpdate
	if !a.decodeJSON(w, r, &upd) {
		return
	}
	if upd.Provider != nil && *upd.Provider != "" && *upd.Provider != settings.DefaultProvider {
		transport.WriteAPIError(w, api.NewInvalidRequestError("provider",
			fmt.Sprintf("unsupported provider %q", *upd.Provider)))
		return
	}

	s, err := a.settings.Load()
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("loading settings: "+err.Error()))
		return
	}
	upd.apply(&s)

	if err := a.settings.Save(s); err != nil {
		transport.WriteAPIError(w, api.NewServerError("saving settings: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, newSettingsView(s))
}

// handleListModels handles GET /v1/models using the stored credential.
func (a *Adapter) handleListModels(w http.ResponseWriter, r *http.Request) {
	s, err := a.settings.Load()
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("loading settings: "+err.Error()))
		return
	}
	if !s.HasCredential() {
		transport.WriteAPIError(w, api.NewConfigurationError("api_key", translate.MissingAPIKeyMessage))
		return
	}

	models, err := a.models.ListModels(r.Context(), s)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	if models == nil {
		models = []provider.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, listBody[provider.ModelInfo]{Object: "list", Data: models})
}

// handleListLanguages handles GET /v1/languages.
func (a *Adapter) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listBody[api.Language]{Object: "list", Data: api.Languages()})
}

// handleListHistory handles GET /v1/history.
func (a *Adapter) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if !a.requireHistory(w, "history listing") {
		return
	}

	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteErrorResponse(w, apiErr, http.StatusBadRequest)
		return
	}

	result, err := a.history.List(r.Context(), opts)
	if err != nil {
		a.writeStoreError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetHistory handles GET /v1/history/{id}.
func (a *Adapter) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if !a.requireHistory(w, "history retrieval") {
		return
	}

	id := r.PathValue("id")
	if !api.ValidateTranslationID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed translation ID"),
			http.StatusBadRequest,
		)
		return
	}

	rec, err := a.history.Get(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteHistory handles DELETE /v1/history/{id}.
func (a *Adapter) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if !a.requireHistory(w, "history deletion") {
		return
	}

	id := r.PathValue("id")
	if !api.ValidateTranslationID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed translation ID"),
			http.StatusBadRequest,
		)
		return
	}

	if err := a.history.Delete(r.Context(), id); err != nil {
		a.writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz. With a history store configured, the
// store's connection is checked as well.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.history != nil {
		if err := a.history.HealthCheck(r.Context()); err != nil {
			http.Error(w, "history store unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (a *Adapter) requireHistory(w http.ResponseWriter, what string) bool {
	if a.history != nil {
		return true
	}
	transport.WriteErrorResponse(w,
		api.NewInvalidRequestError("", what+" is not available (no history store configured)"),
		http.StatusNotImplemented,
	)
	return false
}

func (a *Adapter) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError("translation "+id+" not found"))
		return
	}
	transport.WriteAPIError(w, transport.AsAPIError(err))
}

// decodeJSON validates the content type, limits the body size and decodes
// the body into v. On failure it writes the error response and returns
// false.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}
	return true
}

// parseListOptions extracts pagination and filter parameters from the query string.
func parseListOptions(r *http.Request) (storage.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		After:          q.Get("after"),
		Before:         q.Get("before"),
		Order:          q.Get("order"),
		SourceLanguage: q.Get("source_language"),
		TargetLanguage: q.Get("target_language"),
	}

	if opts.After != "" && opts.Before != "" {
		return opts, api.NewInvalidRequestError("after", "cannot use both 'after' and 'before' cursors")
	}

	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return opts, api.NewInvalidRequestError("order", "order must be 'asc' or 'desc'")
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}

func (u settingsUpdate) apply(s *settings.Settings) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.APIKey, u.APIKey)
	set(&s.Model, u.Model)
	set(&s.Provider, u.Provider)
	set(&s.SystemPrompt, u.SystemPrompt)
	set(&s.DefaultSourceLanguage, u.DefaultSourceLanguage)
	set(&s.DefaultTargetLanguage, u.DefaultTargetLanguage)
}

func newSettingsView(s settings.Settings) settingsView {
	return settingsView{
		Settings:  s.WithDefaults().Redacted(),
		HasAPIKey: s.HasCredential(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
