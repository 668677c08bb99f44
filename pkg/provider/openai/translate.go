package openai

import "github.com/rhuss/simple-translate/pkg/provider"

// translateToChat converts a provider.ChatRequest into the Chat Completions
// wire format. Streaming is always requested.
func translateToChat(req *provider.ChatRequest) *chatCompletionRequest {
	msgs := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	return &chatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   true,
	}
}
