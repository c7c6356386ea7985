package usecase

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"email-insight-backend/internal/inbox/domain"
	"email-insight-backend/pkg/ai"

	"github.com/sirupsen/logrus"
)

// SendResult is the outcome of a successful send
type SendResult string

const SendResultSent SendResult = "Sent"

const replySubjectPrefix = "Re: "

// ReplyConfig holds the timeouts of the reply flow. A zero timeout disables that timeout.
type ReplyConfig struct {
	DraftTimeout time.Duration
	SendTimeout  time.Duration
}

// ReplyPipeline drafts and sends replies to single items
type ReplyPipeline struct {
	source   domain.MessageSource
	enricher ai.EnrichmentService
	config   ReplyConfig
	logger   logrus.FieldLogger

	mu      sync.Mutex
	sending map[string]bool
	sent    map[string]bool
}

func NewReplyPipeline(source domain.MessageSource, enricher ai.EnrichmentService, cfg ReplyConfig, logger logrus.FieldLogger) *ReplyPipeline {
	return &ReplyPipeline{
		source:   source,
		enricher: enricher,
		config:   cfg,
		logger:   logger.WithField("component", "reply"),
		sending:  make(map[string]bool),
		sent:     make(map[string]bool),
	}
}

// DraftReply asks the enrichment service for a reply draft. Any failure, including a
// malformed response, is returned as a DraftGenerationError whose message is meant for display.
func (r *ReplyPipeline) DraftReply(ctx context.Context, item *domain.MailboxItem, styleGuidance, instruction string) (string, error) {
	if item == nil {
		return "", &domain.DraftGenerationError{Message: "no message selected"}
	}

	callCtx, cancel := withTimeout(ctx, r.config.DraftTimeout)
	defer cancel()

	draft, err := r.enricher.ComposeReply(callCtx, item.Summary, styleGuidance, instruction)
	if err != nil {
		r.logger.WithError(err).WithField("message_id", item.ID).Warn("draft generation failed")
		return "", &domain.DraftGenerationError{Message: err.Error(), Err: err}
	}
	return draft, nil
}

// SendReply builds the reply message for item and submits it once. It is never retried.
func (r *ReplyPipeline) SendReply(ctx context.Context, item *domain.MailboxItem, draft, authToken string) (SendResult, error) {
	if item == nil {
		return "", &domain.SendError{Reason: "no message selected", Precondition: true}
	}
	if strings.TrimSpace(draft) == "" {
		return "", &domain.SendError{Reason: "draft is empty", Precondition: true}
	}
	if authToken == "" {
		return "", &domain.SendError{Reason: "missing auth token", Precondition: true}
	}

	r.mu.Lock()
	if r.sent[item.ID] || r.sending[item.ID] {
		r.mu.Unlock()
		return "", &domain.SendError{Reason: "reply already sent", Precondition: true}
	}
	r.sending[item.ID] = true
	r.mu.Unlock()

	raw := EncodeRaw(BuildReplyMessage(*item, draft))

	callCtx, cancel := withTimeout(ctx, r.config.SendTimeout)
	err := r.source.Send(callCtx, raw, authToken)
	cancel()

	r.mu.Lock()
	delete(r.sending, item.ID)
	if err == nil {
		r.sent[item.ID] = true
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.WithError(err).WithField("message_id", item.ID).Error("send reply failed")
		return "", &domain.SendError{Reason: "remote send failed", Err: err}
	}
	r.logger.WithField("message_id", item.ID).Info("reply sent")
	return SendResultSent, nil
}

// Sent reports whether a reply to the item was already sent in this session
func (r *ReplyPipeline) Sent(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[id]
}

// BuildReplyMessage renders a minimal RFC 2822 plain-text reply to item.
// Threading headers are omitted when the item has no Message-ID.
func BuildReplyMessage(item domain.MailboxItem, draft string) string {
	lines := []string{
		"To: " + headerValue(item.Sender),
		"Subject: " + replySubjectPrefix + headerValue(item.Subject),
	}
	if thread := headerValue(item.ThreadHeaderID); thread != "" {
		lines = append(lines,
			"In-Reply-To: "+thread,
			"References: "+thread,
		)
	}
	lines = append(lines,
		"Content-Type: text/plain; charset=utf-8",
		"",
		draft,
	)
	return strings.Join(lines, "\r\n")
}

// EncodeRaw encodes a message with the URL-safe base64 alphabet used for raw Gmail messages
func EncodeRaw(message string) string {
	return base64.URLEncoding.EncodeToString([]byte(message))
}

// DecodeRaw reverses EncodeRaw. Unpadded input is accepted.
func DecodeRaw(raw string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return "", err
		}
	}
	return string(data), nil
}

func headerValue(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}
