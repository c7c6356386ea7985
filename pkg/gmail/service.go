package gmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"email-insight-backend/internal/inbox/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user        = "me"
	unreadQuery = "is:unread"
	unreadLabel = "UNREAD"
)

// ErrInvalidToken is returned by Connect when the mailbox rejects the access token
var ErrInvalidToken = errors.New("invalid or expired access token")

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc func(token *oauth2.Token) error

type Service struct {
	clientID     string
	clientSecret string
	options      []option.ClientOption
	logger       logrus.FieldLogger
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
	logger   logrus.FieldLogger
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			s.logger.WithError(err).Warn("failed to update token")
		}
	}
	return t, nil
}

// NewService creates the Gmail adapter. Extra client options are appended to every
// API client it builds (e.g. a custom endpoint).
func NewService(clientID, clientSecret string, logger logrus.FieldLogger, opts ...option.ClientOption) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		options:      opts,
		logger:       logger.WithField("component", "gmail"),
	}
}

// GetGmailService creates Gmail service with user's access token
func (s *Service) GetGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
		logger:   s.logger,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.options...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// Connect validates the access token and returns a mailbox bound to it together
// with the mailbox address.
func (s *Service) Connect(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*Mailbox, string, error) {
	// The API client keeps the context for token refreshes; it outlives this request.
	srv, err := s.GetGmailService(context.Background(), accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, "", err
	}

	profile, err := srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		s.logger.WithError(err).Warn("token validation failed")
		return nil, "", ErrInvalidToken
	}

	return &Mailbox{service: s, srv: srv, address: profile.EmailAddress}, profile.EmailAddress, nil
}

// Mailbox is a Gmail message source bound to one user's token
type Mailbox struct {
	service *Service
	srv     *gmail.Service
	address string
}

// Address returns the mailbox email address
func (m *Mailbox) Address() string {
	return m.address
}

// ListUnread implements domain.MessageSource
func (m *Mailbox) ListUnread(ctx context.Context, pageToken string, max int) (*domain.MessagePage, error) {
	listQuery := m.srv.Users.Messages.List(user).Q(unreadQuery).MaxResults(int64(max)).Context(ctx)
	if pageToken != "" {
		listQuery = listQuery.PageToken(pageToken)
	}

	messagesResp, err := listQuery.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	page := &domain.MessagePage{
		IDs:           make([]string, 0, len(messagesResp.Messages)),
		NextPageToken: messagesResp.NextPageToken,
	}
	for _, msg := range messagesResp.Messages {
		page.IDs = append(page.IDs, msg.Id)
	}
	return page, nil
}

// FetchFull implements domain.MessageSource
func (m *Mailbox) FetchFull(ctx context.Context, id string) (*domain.RawMessage, error) {
	msg, err := m.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}
	return convertGmailMessage(msg), nil
}

// RemoveUnreadLabel implements domain.MessageSource
func (m *Mailbox) RemoveUnreadLabel(ctx context.Context, id string) error {
	modifyReq := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{unreadLabel},
	}

	_, err := m.srv.Users.Messages.Modify(user, id, modifyReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %w", err)
	}
	return nil
}

// Send implements domain.MessageSource. The message is sent with the given token,
// not the one the mailbox was connected with.
func (m *Mailbox) Send(ctx context.Context, raw, authToken string) error {
	srv, err := m.service.GetGmailService(ctx, authToken, "", nil)
	if err != nil {
		return err
	}

	_, err = srv.Users.Messages.Send(user, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}

	m.service.logger.WithField("mailbox", m.address).Info("message sent")
	return nil
}
