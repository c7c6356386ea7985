package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiService struct {
	ApiKey  string
	baseURL string
	client  *http.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{ApiKey: apiKey, baseURL: defaultGeminiBaseURL, client: &http.Client{}}
}

func (g *GeminiService) Classify(ctx context.Context, snippet, guidance string) (*Classification, error) {
	text, err := g.generate(ctx, classificationPrompt(snippet, guidance))
	if err != nil {
		return nil, err
	}
	return ParseClassification(text)
}

func (g *GeminiService) ComposeReply(ctx context.Context, summary, styleGuidance, instruction string) (string, error) {
	text, err := g.generate(ctx, replyPrompt(summary, styleGuidance, instruction))
	if err != nil {
		return "", err
	}
	return ParseDraft(text)
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	// Use gemini-2.5-flash for fast structured output
	url := g.baseURL + "/models/gemini-2.5-flash:generateContent?key=" + g.ApiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	// Parse text from response
	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}
	return "", fmt.Errorf("%w: no content returned by Gemini", ErrMalformedResponse)
}
