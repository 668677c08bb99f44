package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// knownRoutes are reported verbatim in the route label. Everything else is
// folded so unknown paths cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/v1/translations": true,
	"/v1/settings":     true,
	"/v1/models":       true,
	"/v1/languages":    true,
	"/v1/history":      true,
	"/healthz":         true,
	"/metrics":         true,
}

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - simple_translate_requests_total (counter): incremented per request with method, status class, and route labels
//   - simple_translate_request_duration_seconds (histogram): request duration with method and route labels
//   - simple_translate_streaming_connections_active (gauge): incremented while an SSE streaming response is in flight
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Translations always stream; other routes stream only when asked.
		isStreaming := r.URL.Path == "/v1/translations" ||
			r.Header.Get("Accept") == "text/event-stream"

		if isStreaming {
			StreamingConnections.Inc()
			defer StreamingConnections.Dec()
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		route := RouteLabel(r.URL.Path)

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, statusStr, route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// RouteLabel maps a request path to a bounded route label.
func RouteLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/v1/history/") {
		return "/v1/history/{id}"
	}
	return "other"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
// This is essential for SSE streaming support.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
