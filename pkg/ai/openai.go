package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIService implements EnrichmentService using OpenAI chat completions in JSON mode
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService creates a new OpenAI service. baseURL may be empty to use the public API.
func NewOpenAIService(apiKey, model, baseURL string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Classify implements EnrichmentService
func (o *OpenAIService) Classify(ctx context.Context, snippet, guidance string) (*Classification, error) {
	content, err := o.complete(ctx, classificationPrompt(snippet, guidance))
	if err != nil {
		return nil, err
	}
	return ParseClassification(content)
}

// ComposeReply implements EnrichmentService
func (o *OpenAIService) ComposeReply(ctx context.Context, summary, styleGuidance, instruction string) (string, error) {
	content, err := o.complete(ctx, replyPrompt(summary, styleGuidance, instruction))
	if err != nil {
		return "", err
	}
	return ParseDraft(content)
}

func (o *OpenAIService) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: OpenAI response is missing content", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
