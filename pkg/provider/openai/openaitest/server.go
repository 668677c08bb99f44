// Package openaitest provides a deterministic Chat Completions server for
// tests and local development.
//
// The streamed "translation" is "[<target>] <text>", split into word-sized
// deltas. Markers in the text select other behaviors:
//
//	[status:NNN]  answer with HTTP NNN and a JSON error body
//	[drop]        send two deltas, then cut the connection
//	[malformed]   insert an unparseable event between deltas
//	[crlf]        terminate lines with CRLF instead of LF
//	[split]       write every event in 3-byte pieces, flushing each
//
// The API key "sk-invalid" and a missing Authorization header are answered
// with 401.
package openaitest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
)

// InvalidKey is rejected with 401.
const InvalidKey = "sk-invalid"

// Model is the single model listed by /v1/models.
const Model = "mock-model"

var (
	promptPattern = regexp.MustCompile(`(?s)^Translate the following text from (.+?) to (.+?):\n\n(.*)$`)
	statusPattern = regexp.MustCompile(`\[status:(\d{3})\]`)
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewServer starts an httptest server. Use its URL + "/v1" as base URL.
func NewServer() *httptest.Server {
	return httptest.NewServer(Handler())
}

// Handler returns the mock's routes.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// Translate returns the text the mock streams for a request.
func Translate(target, text string) string {
	return "[" + target + "] " + text
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if !req.Stream {
		writeError(w, http.StatusBadRequest, "only streaming requests are supported")
		return
	}

	_, target, text := parsePrompt(req.Messages)
	if m := statusPattern.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[1])
		writeError(w, code, "mock failure")
		return
	}

	s := stream{w: w, rc: http.NewResponseController(w), eol: "\n"}
	if strings.Contains(text, "[crlf]") {
		s.eol = "\r\n"
	}
	s.split = strings.Contains(text, "[split]")

	model := req.Model
	if model == "" {
		model = Model
	}
	tokens := tokenize(Translate(target, text))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	s.chunk(model, map[string]any{"role": "assistant"}, nil)
	for i, tok := range tokens {
		if strings.Contains(text, "[drop]") && i == 2 {
			s.drop()
			return
		}
		if strings.Contains(text, "[malformed]") && i == 1 {
			s.event(`{"choices":[{"delta":`)
		}
		s.chunk(model, map[string]any{"content": tok}, nil)
	}
	stop := "stop"
	s.chunk(model, map[string]any{}, &stop)
	s.event("[DONE]")
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": Model, "object": "model", "owned_by": "simple-translate-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || key == "" {
		writeError(w, http.StatusUnauthorized, "missing API key")
		return false
	}
	if key == InvalidKey {
		writeError(w, http.StatusUnauthorized, "Incorrect API key provided")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "type": "mock_error"},
	})
}

// parsePrompt recovers the languages and text from the user message.
func parsePrompt(msgs []chatMessage) (source, target, text string) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != "user" {
			continue
		}
		if m := promptPattern.FindStringSubmatch(msgs[i].Content); m != nil {
			return m[1], m[2], m[3]
		}
		return "", "", msgs[i].Content
	}
	return "", "", ""
}

// tokenize splits s into words, each carrying its trailing whitespace.
func tokenize(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i-1] == ' ' && s[i] != ' ' {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

type stream struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	eol   string
	split bool
}

func (s *stream) chunk(model string, delta map[string]any, finish *string) {
	data, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-mock",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finish,
		}},
	})
	s.event(string(data))
}

func (s *stream) event(data string) {
	frame := "data: " + data + s.eol + s.eol
	if !s.split {
		fmt.Fprint(s.w, frame)
		s.rc.Flush()
		return
	}
	for len(frame) > 0 {
		n := min(3, len(frame))
		fmt.Fprint(s.w, frame[:n])
		s.rc.Flush()
		frame = frame[n:]
	}
}

// drop closes the connection without finishing the response.
func (s *stream) drop() {
	conn, _, err := s.rc.Hijack()
	if err != nil {
		slog.Warn("mock provider: hijack failed", "error", err)
		return
	}
	conn.Close()
}
