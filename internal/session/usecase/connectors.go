package usecase

import (
	"context"

	inboxdomain "email-insight-backend/internal/inbox/domain"
	"email-insight-backend/pkg/gmail"
	"email-insight-backend/pkg/imap"

	"golang.org/x/oauth2"
)

type gmailConnector struct {
	service *gmail.Service
}

// NewGmailConnector connects sessions to Gmail with OAuth access tokens
func NewGmailConnector(service *gmail.Service) MailboxConnector {
	return &gmailConnector{service: service}
}

func (c *gmailConnector) Connect(ctx context.Context, accessToken, refreshToken string, onTokenRefresh func(string)) (inboxdomain.MessageSource, string, error) {
	mailbox, address, err := c.service.Connect(ctx, accessToken, refreshToken, func(t *oauth2.Token) error {
		if onTokenRefresh != nil {
			onTokenRefresh(t.AccessToken)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return mailbox, address, nil
}

type imapConnector struct {
	service *imap.Service
}

// NewIMAPConnector connects sessions to the configured IMAP account; the access
// token is the account password.
func NewIMAPConnector(service *imap.Service) MailboxConnector {
	return &imapConnector{service: service}
}

func (c *imapConnector) Connect(ctx context.Context, accessToken, _ string, _ func(string)) (inboxdomain.MessageSource, string, error) {
	mailbox, address, err := c.service.Connect(ctx, accessToken)
	if err != nil {
		return nil, "", err
	}
	return mailbox, address, nil
}
