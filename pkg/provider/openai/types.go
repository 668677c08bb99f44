package openai

// Chat Completions wire types. Only the fields the translator sends or reads
// are modelled; unknown fields in responses are ignored.

// chatCompletionRequest is the request body for /chat/completions.
type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatMessage is one message in the Chat Completions format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionChunk is the payload of one streaming data event.
type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

// chunkChoice is one choice inside a streaming chunk.
type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// chunkDelta holds the incremental content of a choice. Role-only and
// tool-call deltas leave Content empty.
type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// modelsResponse is the response body for /models.
type modelsResponse struct {
	Object string      `json:"object"`
	Data   []modelData `json:"data"`
}

// modelData is one entry of the /models list.
type modelData struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}
