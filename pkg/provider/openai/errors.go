package openai

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/simple-translate/pkg/api"
)

// maxErrorBody bounds how much of a non-2xx response body is kept.
const maxErrorBody = 64 << 10

// MapHTTPError converts a non-2xx response into a provider error. The
// response body is carried verbatim as the message so callers see exactly
// what the provider said. An empty body falls back to the status line.
func MapHTTPError(resp *http.Response) *api.APIError {
	body := readErrorBody(resp.Body)
	return mapStatus(resp.StatusCode, body)
}

func mapStatus(status int, body string) *api.APIError {
	if strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("provider returned HTTP %d %s", status, http.StatusText(status))
	}
	return api.NewProviderError(status, body)
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure, broken stream) into a transport error.
func MapNetworkError(err error) *api.APIError {
	return api.NewTransportError(fmt.Sprintf("provider connection error: %s", err.Error()))
}

func readErrorBody(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil && len(data) == 0 {
		return ""
	}
	return string(data)
}
