package ai

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DynamicConfig holds AI provider configuration. Ollama settings are read
// from a shared OllamaSettings so they can change at runtime.
type DynamicConfig struct {
	Provider ProviderType

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiAPIKey string

	Ollama *OllamaSettings
}

func (cfg DynamicConfig) ollama() *OllamaService {
	settings := cfg.Ollama
	if settings == nil {
		settings = NewOllamaSettings("", "")
	}
	return NewOllamaServiceWithGetters(settings.BaseURL, settings.Model)
}

// NewEnrichmentService creates an EnrichmentService based on the config.
// Switch AI provider by changing cfg.Provider; "auto" prefers a hosted provider
// with a configured key and falls back to the local Ollama server.
func NewEnrichmentService(cfg DynamicConfig, logger logrus.FieldLogger) (EnrichmentService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return cfg.ollama(), nil

	case ProviderAuto, "":
		if cfg.OpenAIAPIKey != "" {
			return NewFallbackService("openai", NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), "ollama", cfg.ollama(), logger), nil
		}
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService("gemini", NewGeminiService(cfg.GeminiAPIKey), "ollama", cfg.ollama(), logger), nil
		}
		return cfg.ollama(), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
