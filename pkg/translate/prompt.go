package translate

import (
	"fmt"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/provider"
	"github.com/rhuss/simple-translate/pkg/settings"
)

// userPromptFormat frames the text for the model. Language values are used
// exactly as the caller supplied them.
const userPromptFormat = "Translate the following text from %s to %s:\n\n%s"

// BuildChatRequest assembles the provider request for req: the settings'
// system prompt, then a user message naming both languages and carrying the
// text verbatim.
func BuildChatRequest(req api.TranslationRequest, s settings.Settings) *provider.ChatRequest {
	return &provider.ChatRequest{
		Model: s.Model,
		Messages: []provider.ChatMessage{
			{Role: provider.RoleSystem, Content: s.SystemPrompt},
			{Role: provider.RoleUser, Content: fmt.Sprintf(userPromptFormat, req.SourceLanguage, req.TargetLanguage, req.Text)},
		},
		Stream: true,
	}
}
