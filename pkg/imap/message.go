package imap

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"net/textproto"
	"regexp"
	"strings"

	"email-insight-backend/internal/inbox/domain"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

const maxSnippetLength = 500

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// parseMessage reads the decoded headers and a plain-text snippet out of an RFC 5322 message
func parseMessage(r io.Reader) (*domain.RawMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	defer mr.Close()

	raw := &domain.RawMessage{Headers: make(textproto.MIMEHeader)}
	fields := mr.Header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		raw.Headers.Add(fields.Key(), value)
	}

	var plainBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			// Keep what was read so far; a broken trailing part should not lose the headers.
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()
		switch {
		case contentType == "text/plain" && plainBody == "":
			plainBody = readLimited(part.Body)
		case contentType == "text/html" && htmlBody == "":
			htmlBody = readLimited(part.Body)
		}
	}

	if plainBody != "" {
		raw.Snippet = snippet(plainBody, false)
	} else {
		raw.Snippet = snippet(htmlBody, true)
	}
	return raw, nil
}

func readLimited(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64*1024))
	return string(data)
}

func snippet(body string, isHTML bool) string {
	if isHTML {
		body = htmlTagPattern.ReplaceAllString(body, " ")
		body = html.UnescapeString(body)
	}
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxSnippetLength {
		body = strings.ToValidUTF8(body[:maxSnippetLength], "") + "..."
	}
	return body
}

// prepareOutgoing decodes a base64url message, collects its recipients and adds a
// From header when the message has none.
func prepareOutgoing(raw, from string) ([]byte, []string, error) {
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid raw message encoding: %w", err)
		}
	}

	entity, err := message.Read(bytes.NewReader(data))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, nil, fmt.Errorf("invalid raw message: %w", err)
	}
	header := mail.Header{Header: entity.Header}

	var recipients []string
	for _, key := range []string{"To", "Cc", "Bcc"} {
		addrs, err := header.AddressList(key)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid %s header: %w", key, err)
		}
		for _, addr := range addrs {
			recipients = append(recipients, addr.Address)
		}
	}
	if len(recipients) == 0 {
		return nil, nil, errors.New("message has no recipients")
	}

	if !header.Has("From") {
		data = append([]byte("From: "+from+"\r\n"), data...)
	}
	return data, recipients, nil
}
