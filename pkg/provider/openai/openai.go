package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/provider"
)

const providerName = "openai"

// Provider talks to an OpenAI-compatible Chat Completions backend.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	rest       *resty.Client
}

// Compile-time check that Provider implements provider.Provider.
var _ provider.Provider = (*Provider)(nil)

// New creates a Provider from cfg, filling unset fields from DefaultConfig.
func New(cfg Config) (*Provider, error) {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("openai: base URL %q must start with http:// or https://", cfg.BaseURL)
	}

	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
		transport = t
	}

	// The streaming client has no overall timeout: a stream can legitimately
	// last longer than any fixed limit.
	httpClient := &http.Client{Transport: transport}

	rest := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Provider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		rest:       rest,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// OpenStream posts req to /chat/completions in streaming mode and returns
// the response body once the provider answered with a 2xx status.
func (p *Provider) OpenStream(ctx context.Context, apiKey string, req *provider.ChatRequest) (io.ReadCloser, error) {
	chatReq := translateToChat(req)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewSerializationError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	debug.Log("provider", "opening stream", "url", url, "model", chatReq.Model, "messages", len(chatReq.Messages))
	debug.Raw("provider", string(body))

	start := time.Now()
	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		debug.Log("provider", "request failed", "error", err)
		return nil, MapNetworkError(err)
	}

	debug.Log("provider", "response headers received",
		"status", httpResp.StatusCode,
		"content_type", httpResp.Header.Get("Content-Type"),
		"elapsed", time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp)
	}

	return httpResp.Body, nil
}

// ExtractDeltas returns the content fragments carried by event.
func (p *Provider) ExtractDeltas(event string) []string {
	return ExtractDeltas(event)
}

// ListModels returns the models visible to apiKey by querying /models.
func (p *Provider) ListModels(ctx context.Context, apiKey string) ([]provider.ModelInfo, error) {
	var modelsResp modelsResponse
	resp, err := p.rest.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetResult(&modelsResp).
		Get(p.baseURL + "/models")
	if err != nil {
		return nil, MapNetworkError(err)
	}
	if resp.IsError() {
		return nil, mapStatus(resp.StatusCode(), truncateBody(resp.String()))
	}

	models := make([]provider.ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, provider.ModelInfo{
			ID:      m.ID,
			Object:  m.Object,
			OwnedBy: m.OwnedBy,
		})
	}

	debug.Log("provider", "listed models", "count", len(models))
	return models, nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func truncateBody(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
