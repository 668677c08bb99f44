package provider

// Chat roles used when building translation prompts.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatRequest is the backend-facing request. It contains only what the
// provider needs, stripped of settings and transport concerns.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

// ChatMessage is one message of the conversation sent to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelInfo holds information about a model served by the provider.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
