package openai

import (
	"encoding/json"
	"strings"

	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/observability"
	"github.com/rhuss/simple-translate/pkg/provider/sse"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// ExtractDeltas returns the non-empty content fragments of every choice in
// every data line of event, in the order they appear.
//
// Lines that are not data lines (comments, "event:", "id:", "retry:") are
// ignored, as is the "[DONE]" sentinel. A data payload that is not a valid
// chunk is skipped with a debug log; it never fails the stream.
func ExtractDeltas(event string) []string {
	var deltas []string
	for _, line := range sse.Lines(event) {
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		if strings.TrimSpace(payload) == doneSentinel {
			continue
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			debug.Log("sse", "skipping malformed chunk", "error", err, "data", debug.Truncate(payload, 200))
			observability.SkippedEventsTotal.WithLabelValues(providerName, "malformed").Inc()
			continue
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				deltas = append(deltas, choice.Delta.Content)
			}
		}
	}
	return deltas
}
