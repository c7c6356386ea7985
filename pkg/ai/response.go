package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the model output does not carry the required fields.
var ErrMalformedResponse = errors.New("malformed enrichment response")

// ParseClassification validates a model response against the {summary, category} shape
func ParseClassification(text string) (*Classification, error) {
	obj, err := extractObject(text)
	if err != nil {
		return nil, err
	}

	summary, err := requiredString(obj, "summary")
	if err != nil {
		return nil, err
	}
	category, err := requiredString(obj, "category")
	if err != nil {
		return nil, err
	}

	return &Classification{Summary: summary, Category: category}, nil
}

// ParseDraft validates a model response against the {draft} shape
func ParseDraft(text string) (string, error) {
	obj, err := extractObject(text)
	if err != nil {
		return "", err
	}
	return requiredString(obj, "draft")
}

// extractObject pulls a single JSON object out of the model output,
// tolerating markdown code fences and surrounding prose.
func extractObject(text string) (map[string]json.RawMessage, error) {
	responseText := strings.TrimSpace(text)
	// Clean up markdown code blocks if present
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
	}
	responseText = strings.TrimSpace(responseText)

	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}
	responseText = responseText[jsonStart : jsonEnd+1]

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(responseText), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return obj, nil
}

func requiredString(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformedResponse, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrMalformedResponse, key)
	}
	return value, nil
}
