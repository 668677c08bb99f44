package api

import (
	"strings"
	"testing"
)

func TestValidateTranslationRequest(t *testing.T) {
	valid := TranslationRequest{Text: "Hello", SourceLanguage: "en", TargetLanguage: "es"}

	tests := []struct {
		name      string
		mutate    func(r *TranslationRequest)
		wantParam string
	}{
		{"valid", func(r *TranslationRequest) {}, ""},
		{"missing text", func(r *TranslationRequest) { r.Text = "" }, "text"},
		{"missing source", func(r *TranslationRequest) { r.SourceLanguage = "" }, "source_language"},
		{"missing target", func(r *TranslationRequest) { r.TargetLanguage = "" }, "target_language"},
		{"text too long", func(r *TranslationRequest) { r.Text = strings.Repeat("a", MaxTextLength+1) }, "text"},
		{"unknown language passes", func(r *TranslationRequest) { r.SourceLanguage = "Klingon" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateTranslationRequest(&req)
			if tt.wantParam == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for param %q", tt.wantParam)
			}
			if err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", err.Param, tt.wantParam)
			}
			if err.Type != ErrorTypeInvalidRequest {
				t.Errorf("Type = %q, want %q", err.Type, ErrorTypeInvalidRequest)
			}
		})
	}
}

func TestValidateTranslationRequest_Nil(t *testing.T) {
	if err := ValidateTranslationRequest(nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}
