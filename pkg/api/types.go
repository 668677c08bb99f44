package api

// TranslationRequest is the caller-owned input for one translation.
type TranslationRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// TranslationResponse is the result of a successful translation session.
// It is built once, after the provider stream has been fully consumed.
type TranslationResponse struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// EventType names a listener notification.
type EventType string

const (
	// EventToken carries one incremental text fragment.
	EventToken EventType = "translation_token"
	// EventComplete carries the final TranslationResponse.
	EventComplete EventType = "translation_complete"
	// EventError carries the terminal error message.
	EventError EventType = "translation_error"
)

// Event is the serialized form of a listener notification. Exactly one of
// Delta, Response or Error is meaningful, depending on Type.
type Event struct {
	Type     EventType            `json:"type"`
	Delta    string               `json:"delta,omitempty"`
	Response *TranslationResponse `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// IsTerminal reports whether the event ends a translation.
func (e Event) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
