package api

import (
	"fmt"
	"unicode/utf8"
)

// MaxTextLength bounds the text accepted for a single translation, in runes.
const MaxTextLength = 100_000

// ValidateTranslationRequest checks a TranslationRequest for validity. It
// returns an *APIError describing the first validation failure, or nil if
// the request is valid.
//
// Language codes are not checked against the catalog: the provider is
// prompted with whatever the caller supplies.
func ValidateTranslationRequest(req *TranslationRequest) *APIError {
	if req == nil {
		return NewInvalidRequestError("request", "request is required")
	}
	if req.Text == "" {
		return NewInvalidRequestError("text", "text is required")
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxTextLength {
		return NewInvalidRequestError("text",
			fmt.Sprintf("text exceeds maximum of %d characters (got %d)", MaxTextLength, n))
	}
	if req.SourceLanguage == "" {
		return NewInvalidRequestError("source_language", "source_language is required")
	}
	if req.TargetLanguage == "" {
		return NewInvalidRequestError("target_language", "target_language is required")
	}
	return nil
}
