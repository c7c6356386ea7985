package ai

import (
	"context"
)

// Classification is the structured result of classifying one message snippet
type Classification struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// EnrichmentService is the interface for AI enrichment of mailbox items.
// Implement this interface to add new AI providers (OpenAI, Gemini, Ollama, etc.)
type EnrichmentService interface {
	// Classify summarizes a snippet and assigns one category, guided by the user's preferences.
	Classify(ctx context.Context, snippet, guidance string) (*Classification, error)
	// ComposeReply drafts a reply from an item summary, the user's style guidance and an instruction.
	ComposeReply(ctx context.Context, summary, styleGuidance, instruction string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
