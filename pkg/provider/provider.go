package provider

import (
	"context"
	"io"
)

// Provider abstracts a streaming chat-completion backend.
//
// Implementations must be safe for concurrent use by multiple goroutines:
// every translation session shares the same Provider but owns its own
// stream.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// OpenStream sends req in streaming mode, authenticated with apiKey.
	// On a 2xx answer it returns the response body, which the caller reads
	// to exhaustion and closes. Connection failures and non-2xx answers are
	// returned as *api.APIError before any body is handed out.
	OpenStream(ctx context.Context, apiKey string, req *ChatRequest) (io.ReadCloser, error)

	// ExtractDeltas returns the content fragments carried by one complete
	// stream event, in order. Control events, the end-of-stream sentinel and
	// undecodable payloads yield no fragments and no error.
	ExtractDeltas(event string) []string

	// ListModels returns the models available to apiKey.
	ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error)

	// Close releases provider resources (idle HTTP connections).
	Close() error
}
