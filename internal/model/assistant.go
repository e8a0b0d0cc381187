package model

import (
	"errors"
	"strings"
)

// Language is one of the supported reply languages.
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
	LangTelugu  Language = "te"
)

// NormalizeLanguage coerces any language tag to a supported one.
func NormalizeLanguage(raw string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LangHindi:
		return LangHindi
	case LangTelugu:
		return LangTelugu
	default:
		return LangEnglish
	}
}

// SchemeSuggestion is one government scheme card for the farmer context.
type SchemeSuggestion struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Benefit         string  `json:"benefit"`
	EligibilityHint string  `json:"eligibility_hint"`
	Eligible        bool    `json:"eligible"`
	Score           float64 `json:"score"`
	Link            string  `json:"link"`
}

// PolicyEvidence is one retrieved corpus snippet supporting a scheme.
type PolicyEvidence struct {
	SchemeID string  `json:"scheme_id"`
	Title    string  `json:"title"`
	Snippet  string  `json:"snippet"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
}

// AssistantChatRequest is the request body for POST /api/v1/assistant/chat
type AssistantChatRequest struct {
	Message  string  `json:"message"`
	Language string  `json:"language"`
	Location string  `json:"location"`
	Acres    float64 `json:"acres"`
	Crop     string  `json:"crop"`
}

// Normalize applies the original contract's defaults in place.
func (r *AssistantChatRequest) Normalize() {
	if strings.TrimSpace(r.Location) == "" {
		r.Location = "India"
	}
	if r.Acres <= 0 {
		r.Acres = 1.0
	}
}

// Validate runs input validation before any pipeline stage.
func (r *AssistantChatRequest) Validate() error {
	if len(strings.TrimSpace(r.Message)) < 2 {
		return errors.New("message must be at least 2 characters")
	}
	return nil
}

// AssistantChatResponse is the response body for POST /api/v1/assistant/chat
type AssistantChatResponse struct {
	Success    bool               `json:"success"`
	Language   Language           `json:"language"`
	Intent     string             `json:"intent"`
	RAGBackend string             `json:"rag_backend"`
	Reply      string             `json:"reply"`
	Schemes    []SchemeSuggestion `json:"schemes"`
	Evidence   []PolicyEvidence   `json:"evidence"`
}
