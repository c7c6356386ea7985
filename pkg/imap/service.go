package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"email-insight-backend/internal/inbox/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

const defaultMailbox = "INBOX"

var (
	// ErrInvalidPageToken is returned when a page token was not produced by this mailbox
	ErrInvalidPageToken = errors.New("invalid IMAP page token")
	// ErrMessageNotFound is returned when a UID no longer exists in the mailbox
	ErrMessageNotFound = errors.New("message not found")
)

// Config describes one IMAP/SMTP account
type Config struct {
	Host     string
	Port     int
	Username string
	SMTPHost string
	SMTPPort int
	Mailbox  string
	// Insecure disables TLS on the IMAP connection (local test servers only)
	Insecure bool
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service connects to an IMAP account and submits replies over SMTP
type Service struct {
	config   Config
	logger   logrus.FieldLogger
	sendMail sendMailFunc
}

func NewService(cfg Config, logger logrus.FieldLogger) *Service {
	if cfg.Mailbox == "" {
		cfg.Mailbox = defaultMailbox
	}
	return &Service{
		config:   cfg,
		logger:   logger.WithField("component", "imap"),
		sendMail: smtp.SendMail,
	}
}

// Connect logs in with password and selects the configured mailbox.
// It returns the mailbox and the account address.
func (s *Service) Connect(ctx context.Context, password string) (*Mailbox, string, error) {
	if s.config.Host == "" || s.config.Username == "" {
		return nil, "", errors.New("IMAP account is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	conn, err := s.dial(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, "", fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	// Until login completes, cancelling ctx closes the socket so blocked reads return
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	c, status, err := s.open(conn, password)
	if !stop() {
		if c != nil {
			_ = c.Terminate()
		}
		_ = conn.Close()
		return nil, "", ctx.Err()
	}
	if err != nil {
		return nil, "", err
	}

	s.logger.WithField("account", s.config.Username).Info("connected to IMAP server")
	return &Mailbox{
		service:     s,
		client:      c,
		uidValidity: status.UidValidity,
		password:    password,
	}, s.config.Username, nil
}

func (s *Service) dial(ctx context.Context) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if s.config.Insecure {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	d := &tls.Dialer{Config: &tls.Config{
		ServerName: s.config.Host,
		MinVersion: tls.VersionTLS12,
	}}
	return d.DialContext(ctx, "tcp", addr)
}

// open reads the greeting, logs in and selects the mailbox. The connection is
// closed on any error.
func (s *Service) open(conn net.Conn, password string) (*client.Client, *imap.MailboxStatus, error) {
	c, err := client.New(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(s.config.Username, password); err != nil {
		s.logger.WithError(err).Error("failed to login to IMAP server")
		_ = c.Logout()
		return nil, nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	status, err := c.Select(s.config.Mailbox, false)
	if err != nil {
		_ = c.Logout()
		return nil, nil, fmt.Errorf("failed to select mailbox: %w", err)
	}
	return c, status, nil
}

// Mailbox is an IMAP message source holding one logged-in connection.
// Commands are serialized over the connection.
type Mailbox struct {
	service     *Service
	uidValidity uint32
	password    string

	mu     sync.Mutex
	client *client.Client
}

// run executes fn on the connection and returns early when ctx is done.
// The command itself keeps running until the server answers.
func (m *Mailbox) run(ctx context.Context, fn func(c *client.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.client == nil {
			done <- errors.New("IMAP connection is closed")
			return
		}
		done <- fn(m.client)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListUnread implements domain.MessageSource. UIDs are listed newest first; the page
// token records the UID validity and the last UID handed out.
func (m *Mailbox) ListUnread(ctx context.Context, pageToken string, max int) (*domain.MessagePage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	if pageToken != "" {
		validity, lastUID, err := parsePageToken(pageToken)
		if err != nil {
			return nil, err
		}
		if validity != m.uidValidity {
			return nil, fmt.Errorf("%w: mailbox UID validity changed", ErrInvalidPageToken)
		}
		if lastUID <= 1 {
			return &domain.MessagePage{}, nil
		}
		criteria.Uid = new(imap.SeqSet)
		criteria.Uid.AddRange(1, lastUID-1)
	}

	var uids []uint32
	err := m.run(ctx, func(c *client.Client) error {
		var err error
		uids, err = c.UidSearch(criteria)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search unread messages: %w", err)
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })

	page := &domain.MessagePage{}
	if max > 0 && len(uids) > max {
		page.NextPageToken = formatPageToken(m.uidValidity, uids[max-1])
		uids = uids[:max]
	}
	page.IDs = make([]string, 0, len(uids))
	for _, uid := range uids {
		page.IDs = append(page.IDs, strconv.FormatUint(uint64(uid), 10))
	}
	return page, nil
}

// FetchFull implements domain.MessageSource. The body is fetched with PEEK so the
// message stays unread.
func (m *Mailbox) FetchFull(ctx context.Context, id string) (*domain.RawMessage, error) {
	seqSet, err := uidSet(id)
	if err != nil {
		return nil, err
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}

	var msg *imap.Message
	err = m.run(ctx, func(c *client.Client) error {
		messages := make(chan *imap.Message, 1)
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqSet, items, messages)
		}()
		for fetched := range messages {
			if msg == nil {
				msg = fetched
			}
		}
		return <-done
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %s has no body", id)
	}

	raw, err := parseMessage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}
	raw.ID = id
	raw.InternalDate = msg.InternalDate
	return raw, nil
}

// RemoveUnreadLabel implements domain.MessageSource by adding the \Seen flag
func (m *Mailbox) RemoveUnreadLabel(ctx context.Context, id string) error {
	seqSet, err := uidSet(id)
	if err != nil {
		return err
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	err = m.run(ctx, func(c *client.Client) error {
		return c.UidStore(seqSet, item, flags, nil)
	})
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %w", err)
	}
	return nil
}

// Send implements domain.MessageSource. The raw message is submitted over SMTP with
// authToken as the account password.
func (m *Mailbox) Send(ctx context.Context, raw, authToken string) error {
	cfg := m.service.config
	if cfg.SMTPHost == "" {
		return errors.New("SMTP host is not configured")
	}

	msg, recipients, err := prepareOutgoing(raw, cfg.Username)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	auth := smtp.PlainAuth("", cfg.Username, authToken, cfg.SMTPHost)

	done := make(chan error, 1)
	go func() {
		done <- m.service.sendMail(addr, auth, cfg.Username, recipients, msg)
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.service.logger.WithField("recipients", len(recipients)).Info("message sent via SMTP")
	return nil
}

// Close logs out and releases the connection
func (m *Mailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Logout()
	m.client = nil
	return err
}

func uidSet(id string) (*imap.SeqSet, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil || uid == 0 {
		return nil, fmt.Errorf("invalid message id %q", id)
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	return seqSet, nil
}

func formatPageToken(validity, lastUID uint32) string {
	return fmt.Sprintf("%d:%d", validity, lastUID)
}

func parsePageToken(token string) (validity, lastUID uint32, err error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidPageToken
	}
	v, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, ErrInvalidPageToken
	}
	u, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, ErrInvalidPageToken
	}
	return uint32(v), uint32(u), nil
}
