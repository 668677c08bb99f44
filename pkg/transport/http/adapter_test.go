package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/provider/openai"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/storage"
	"github.com/rhuss/simple-translate/pkg/storage/memory"
	"github.com/rhuss/simple-translate/pkg/transport"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// fakeModels is a ModelLister returning fixed models or an error.
type fakeModels struct {
	models []provider.ModelInfo
	err    error
	gotKey string
}

func (f *fakeModels) ListModels(_ context.Context, s settings.Settings) ([]provider.ModelInfo, error) {
	f.gotKey = s.APIKey
	return f.models, f.err
}

// streamingTranslator emits the given deltas from a goroutine, then
// completes, the way the real dispatcher does.
func streamingTranslator(deltas ...string) transport.Translator {
	return transport.TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
		if apiErr := api.ValidateTranslationRequest(&req); apiErr != nil {
			l.OnError(apiErr.Message)
			return apiErr
		}
		go func() {
			var sb strings.Builder
			for _, d := range deltas {
				sb.WriteString(d)
				l.OnToken(d)
			}
			l.OnComplete(api.TranslationResponse{
				TranslatedText: sb.String(),
				SourceLanguage: req.SourceLanguage,
				TargetLanguage: req.TargetLanguage,
			})
		}()
		return nil
	})
}

type testEnv struct {
	handler  http.Handler
	settings *settings.Store
	history  *memory.Store
	models   *fakeModels
}

func newTestEnv(t *testing.T, translator transport.Translator, withHistory bool) *testEnv {
	t.Helper()
	env := &testEnv{
		settings: settings.NewStore(filepath.Join(t.TempDir(), "settings.json")),
		models:   &fakeModels{models: []provider.ModelInfo{{ID: "gpt-4.1-mini", Object: "model", OwnedBy: "openai"}}},
	}
	b := Backend{
		Translator: translator,
		Models:     env.models,
		Settings:   env.settings,
	}
	if withHistory {
		env.history = memory.New(100)
		b.History = env.history
	}
	env.handler = NewAdapter(b, Config{MaxBodySize: 4096}).Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal error: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *api.APIError {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("error body has no error object")
	}
	return resp.Error
}

func withKey(key string) *settings.Settings {
	s := settings.Defaults()
	s.APIKey = key
	return &s
}

func TestTranslateStreamsEvents(t *testing.T) {
	env := newTestEnv(t, streamingTranslator("Hola", ", ", "mundo"), false)

	rec := env.do(t, http.MethodPost, "/v1/translations", translateBody{
		Request:  api.TranslationRequest{Text: "Hello, world", SourceLanguage: "en", TargetLanguage: "es"},
		Settings: withKey("sk-test"),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	events := decodeEvents(t, rec.Body.String())
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	var sb strings.Builder
	for _, ev := range events[:3] {
		if ev.Type != api.EventToken {
			t.Errorf("event type = %q, want token", ev.Type)
		}
		sb.WriteString(ev.Delta)
	}
	final := events[3]
	if final.Type != api.EventComplete || final.Response == nil {
		t.Fatalf("final event = %+v", final)
	}
	if final.Response.TranslatedText != sb.String() {
		t.Errorf("translated_text = %q, want concatenated deltas %q", final.Response.TranslatedText, sb.String())
	}
}

func TestTranslateUsesStoredSettings(t *testing.T) {
	var got settings.Settings
	translator := transport.TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
		got = s
		l.OnComplete(api.TranslationResponse{})
		return nil
	})
	env := newTestEnv(t, translator, false)

	stored := settings.Defaults()
	stored.APIKey = "sk-stored"
	stored.Model = "gpt-4o"
	if err := env.settings.Save(stored); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/v1/translations", map[string]any{
		"request": api.TranslationRequest{Text: "hi", SourceLanguage: "en", TargetLanguage: "de"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.APIKey != "sk-stored" || got.Model != "gpt-4o" {
		t.Errorf("dispatched settings = %+v, want stored settings", got)
	}
}

func TestTranslateRejectedSynchronously(t *testing.T) {
	translator := transport.TranslatorFunc(func(ctx context.Context, req api.TranslationRequest, s settings.Settings, l translate.Listener) error {
		l.OnError(translate.MissingAPIKeyMessage)
		return api.NewConfigurationError("api_key", translate.MissingAPIKeyMessage)
	})
	env := newTestEnv(t, translator, false)

	rec := env.do(t, http.MethodPost, "/v1/translations", translateBody{
		Request: api.TranslationRequest{Text: "hi", SourceLanguage: "en", TargetLanguage: "de"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Type != api.ErrorTypeConfiguration || apiErr.Message != translate.MissingAPIKeyMessage {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestTranslateRequestErrors(t *testing.T) {
	env := newTestEnv(t, streamingTranslator("x"), false)

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantParam   string
	}{
		{"invalid JSON", `{"request":`, "application/json", http.StatusBadRequest, "body"},
		{"wrong content type", `{}`, "text/plain", http.StatusUnsupportedMediaType, "content_type"},
		{"body too large", `{"request":{"text":"` + strings.Repeat("a", 5000) + `"}}`, "application/json", http.StatusRequestEntityTooLarge, "body"},
		{"missing text", `{"request":{"source_language":"en","target_language":"es"},"settings":{"api_key":"k"}}`, "application/json; charset=utf-8", http.StatusBadRequest, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/translations", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if apiErr := decodeError(t, rec); apiErr.Param != tt.wantParam {
				t.Errorf("param = %q, want %q", apiErr.Param, tt.wantParam)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	req := httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want echoed client ID", got)
	}

	rec = env.do(t, http.MethodGet, "/v1/languages", nil)
	if got := rec.Header().Get("X-Request-ID"); len(got) != 32 {
		t.Errorf("generated X-Request-ID = %q, want 32 hex chars", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	rec := env.do(t, http.MethodGet, "/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var view settingsView
	json.NewDecoder(rec.Body).Decode(&view)
	if view.HasAPIKey || view.Model != settings.DefaultModel {
		t.Errorf("initial view = %+v, want defaults without key", view)
	}

	rec = env.do(t, http.MethodPut, "/v1/settings", map[string]string{
		"api_key": "sk-abcdefghijklmnop",
		"model":   "gpt-4o",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}
	view = settingsView{}
	json.NewDecoder(rec.Body).Decode(&view)
	if !view.HasAPIKey {
		t.Error("has_api_key = false after setting a key")
	}
	if view.APIKey == "sk-abcdefghijklmnop" {
		t.Error("API key returned unredacted")
	}

	stored, err := env.settings.Load()
	if err != nil {
		t.Fatal(err)
	}
	if stored.APIKey != "sk-abcdefghijklmnop" || stored.Model != "gpt-4o" {
		t.Errorf("stored = %+v", stored)
	}

	// A partial update keeps the key.
	rec = env.do(t, http.MethodPut, "/v1/settings", map[string]string{"default_target_language": "fr"})
	if rec.Code != http.StatusOK {
		t.Fatalf("partial PUT status = %d", rec.Code)
	}
	stored, _ = env.settings.Load()
	if stored.APIKey != "sk-abcdefghijklmnop" || stored.DefaultTargetLanguage != "fr" {
		t.Errorf("after partial update stored = %+v", stored)
	}
}

func TestSettingsRejectsUnknownProvider(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	rec := env.do(t, http.MethodPut, "/v1/settings", map[string]string{"provider": "anthropic"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Param != "provider" {
		t.Errorf("param = %q, want provider", apiErr.Param)
	}
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	rec := env.do(t, http.MethodGet, "/v1/models", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("without key: status = %d, want 400", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Type != api.ErrorTypeConfiguration {
		t.Errorf("without key: error type = %q", apiErr.Type)
	}

	env.settings.Save(*withKey("sk-models"))
	rec = env.do(t, http.MethodGet, "/v1/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var list listBody[provider.ModelInfo]
	json.NewDecoder(rec.Body).Decode(&list)
	if list.Object != "list" || len(list.Data) != 1 || list.Data[0].ID != "gpt-4.1-mini" {
		t.Errorf("models = %+v", list)
	}
	if env.models.gotKey != "sk-models" {
		t.Errorf("lister got key %q", env.models.gotKey)
	}

	env.models.err = api.NewProviderError(401, `{"error":{"message":"bad key"}}`)
	rec = env.do(t, http.MethodGet, "/v1/models", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("provider failure: status = %d, want 502", rec.Code)
	}
}

func TestListLanguages(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	rec := env.do(t, http.MethodGet, "/v1/languages", nil)
	var list listBody[api.Language]
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 20 {
		t.Fatalf("got %d languages, want 20", len(list.Data))
	}
	if list.Data[0].Code != "en" || list.Data[0].Name != "English" {
		t.Errorf("first language = %+v", list.Data[0])
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), true)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i, pair := range [][2]string{{"en", "es"}, {"en", "fr"}, {"de", "es"}} {
		rec := &storage.Record{
			ID:             api.NewTranslationID(),
			SourceLanguage: pair[0],
			TargetLanguage: pair[1],
			SourceText:     fmt.Sprintf("text %d", i),
			TranslatedText: fmt.Sprintf("texto %d", i),
			Model:          "gpt-4.1-mini",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := env.history.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ID)
	}

	rec := env.do(t, http.MethodGet, "/v1/history?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list storage.RecordList
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Data) != 2 || !list.HasMore || list.Data[0].ID != ids[2] {
		t.Errorf("list = %+v, want newest two with has_more", list)
	}

	rec = env.do(t, http.MethodGet, "/v1/history?target_language=es&order=asc", nil)
	list = storage.RecordList{}
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Data) != 2 || list.Data[0].ID != ids[0] || list.Data[1].ID != ids[2] {
		t.Errorf("filtered list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/v1/history/"+ids[1], nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got storage.Record
	json.NewDecoder(rec.Body).Decode(&got)
	if got.SourceText != "text 1" {
		t.Errorf("record = %+v", got)
	}

	rec = env.do(t, http.MethodDelete, "/v1/history/"+ids[1], nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/v1/history/"+ids[1], nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/v1/history/"+ids[1], nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHistoryRequestErrors(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"malformed id", http.MethodGet, "/v1/history/not-an-id", http.StatusBadRequest},
		{"malformed delete id", http.MethodDelete, "/v1/history/tr_short", http.StatusBadRequest},
		{"both cursors", http.MethodGet, "/v1/history?after=a&before=b", http.StatusBadRequest},
		{"bad order", http.MethodGet, "/v1/history?order=sideways", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/v1/history?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), false)

	for _, path := range []string{"/v1/history", "/v1/history/" + api.NewTranslationID()} {
		rec := env.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("GET %s status = %d, want 501", path, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, streamingTranslator(), true)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

// TestTranslateEndToEnd runs the real dispatcher and OpenAI provider against
// a fake upstream and checks the streamed events and the history record.
func TestTranslateEndToEnd(t *testing.T) {
	var mu sync.Mutex
	var upstreamBody map[string]any

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-e2e" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		mu.Lock()
		json.NewDecoder(r.Body).Decode(&upstreamBody)
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Bon", "jour"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	p, err := openai.New(openai.Config{BaseURL: upstream.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	history := memory.New(10)
	d, err := translate.New(p, history)
	if err != nil {
		t.Fatal(err)
	}

	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	store.Save(*withKey("sk-e2e"))

	srv := NewServer(Backend{Translator: d, Models: d, Settings: store, History: history})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/translations", "application/json", strings.NewReader(
		`{"request":{"text":"Hello","source_language":"en","target_language":"fr"}}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	events := decodeEvents(t, string(body))
	if len(events) != 3 || events[2].Response == nil || events[2].Response.TranslatedText != "Bonjour" {
		t.Fatalf("events = %+v", events)
	}

	mu.Lock()
	if upstreamBody["stream"] != true || upstreamBody["model"] != settings.DefaultModel {
		t.Errorf("upstream request = %v", upstreamBody)
	}
	mu.Unlock()

	// The record is saved before OnComplete, so it is visible now.
	list, err := history.List(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 1 || list.Data[0].TranslatedText != "Bonjour" || list.Data[0].SourceText != "Hello" {
		t.Errorf("history = %+v", list.Data)
	}

	d.Wait()
}
