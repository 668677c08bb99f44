// Package settings persists the user-editable translation settings: the
// provider credential, the model, the system prompt and the default
// language pair.
//
// Settings live in a single JSON document under the per-user configuration
// directory. A missing file means "use defaults" and is not an error.
package settings

// DefaultSystemPrompt asks for a meaning-preserving, idiomatic translation.
const DefaultSystemPrompt = `You are an expert translator. Your goal is to preserve the semantic meaning and contextual nuance of the source text rather than providing a word-for-word literal translation. Consider cultural context, idiomatic expressions, and the intended tone of the original text. Produce a natural, fluent translation that a native speaker would find authentic and easy to understand.`

const (
	DefaultModel          = "gpt-4.1-mini"
	DefaultProvider       = "openai"
	DefaultSourceLanguage = "en"
	DefaultTargetLanguage = "es"
)

// Settings is an immutable snapshot of the user's translation settings.
// It is a value type: each translation receives its own copy.
type Settings struct {
	APIKey                string `json:"api_key"`
	Model                 string `json:"model"`
	Provider              string `json:"provider"`
	SystemPrompt          string `json:"system_prompt"`
	DefaultSourceLanguage string `json:"default_source_language"`
	DefaultTargetLanguage string `json:"default_target_language"`
}

// Defaults returns the settings used when nothing has been saved yet.
func Defaults() Settings {
	return Settings{
		Model:                 DefaultModel,
		Provider:              DefaultProvider,
		SystemPrompt:          DefaultSystemPrompt,
		DefaultSourceLanguage: DefaultSourceLanguage,
		DefaultTargetLanguage: DefaultTargetLanguage,
	}
}

// HasCredential reports whether an API key is configured.
func (s Settings) HasCredential() bool {
	return s.APIKey != ""
}

// WithDefaults returns a copy in which an empty model, provider or default
// language is replaced by its default. The API key and the system prompt
// are never filled in: an empty prompt is a deliberate choice.
func (s Settings) WithDefaults() Settings {
	d := Defaults()
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.Provider == "" {
		s.Provider = d.Provider
	}
	if s.DefaultSourceLanguage == "" {
		s.DefaultSourceLanguage = d.DefaultSourceLanguage
	}
	if s.DefaultTargetLanguage == "" {
		s.DefaultTargetLanguage = d.DefaultTargetLanguage
	}
	return s
}

// Redacted returns a copy safe for logging and for echoing to front ends
// that only need to know whether a key is set.
func (s Settings) Redacted() Settings {
	if len(s.APIKey) > 8 {
		s.APIKey = s.APIKey[:3] + "..." + s.APIKey[len(s.APIKey)-4:]
	} else if s.APIKey != "" {
		s.APIKey = "***"
	}
	return s
}
