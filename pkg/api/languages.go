package api

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is an entry of the language catalog offered to front ends.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// languageCodes lists the codes offered in language pickers, in display order.
var languageCodes = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
	"ar", "hi", "nl", "pl", "tr", "vi", "th", "sv", "da", "fi",
}

// Languages returns the language catalog with English display names.
func Languages() []Language {
	namer := display.English.Tags()
	out := make([]Language, 0, len(languageCodes))
	for _, code := range languageCodes {
		out = append(out, Language{
			Code: code,
			Name: namer.Name(language.Make(code)),
		})
	}
	return out
}

// LanguageName returns the English display name for a language code, or the
// code itself when it is not a well-formed BCP 47 tag.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
