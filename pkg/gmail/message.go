package gmail

import (
	"encoding/base64"
	"html"
	"net/textproto"
	"regexp"
	"strings"
	"time"

	"email-insight-backend/internal/inbox/domain"

	"google.golang.org/api/gmail/v1"
)

const maxSnippetLength = 500

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

func convertGmailMessage(msg *gmail.Message) *domain.RawMessage {
	raw := &domain.RawMessage{
		ID:           msg.Id,
		Headers:      make(textproto.MIMEHeader),
		Snippet:      html.UnescapeString(msg.Snippet),
		InternalDate: time.UnixMilli(msg.InternalDate),
	}
	if msg.Payload == nil {
		return raw
	}

	for _, header := range msg.Payload.Headers {
		raw.Headers.Add(header.Name, header.Value)
	}

	if strings.TrimSpace(raw.Snippet) == "" {
		body, isHTML := getEmailBody(msg.Payload)
		raw.Snippet = preview(body, isHTML)
	}
	return raw
}

// preview flattens a body into a single line of text
func preview(body string, isHTML bool) string {
	if isHTML {
		// Strip HTML tags
		body = htmlTagPattern.ReplaceAllString(body, " ")
		body = html.UnescapeString(body)
	}

	// Collapse multiple spaces into one
	body = strings.Join(strings.Fields(body), " ")

	if len(body) > maxSnippetLength {
		body = strings.ToValidUTF8(body[:maxSnippetLength], "") + "..."
	}
	return body
}

func getEmailBody(payload *gmail.MessagePart) (string, bool) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		if data, ok := decodePartData(payload.Body.Data); ok {
			return data, payload.MimeType == "text/html"
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				switch part.MimeType {
				case "text/html":
					if data, ok := decodePartData(part.Body.Data); ok {
						htmlBody = data
					}
				case "text/plain":
					if data, ok := decodePartData(part.Body.Data); ok {
						plainBody = data
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, htmlBody != ""
}

func decodePartData(data string) (string, bool) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return "", false
		}
	}
	return string(decoded), true
}
