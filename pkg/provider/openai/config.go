package openai

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds configuration for the OpenAI provider.
type Config struct {
	// BaseURL is the API root including the version segment
	// (e.g., "https://api.openai.com/v1"). Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds non-streaming calls such as model listing. Defaults to 30s.
	// Streams are never cut off by a fixed timeout.
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for the provider's response
	// headers on streaming requests. Zero means no limit.
	ResponseHeaderTimeout time.Duration

	// Transport overrides the HTTP transport (used in tests).
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}
