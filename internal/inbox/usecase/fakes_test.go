package usecase

import (
	"context"
	"errors"
	"net/textproto"
	"sync"
	"time"

	"email-insight-backend/internal/inbox/domain"
	"email-insight-backend/pkg/ai"
)

var errRemote = errors.New("remote unavailable")

type fakeSource struct {
	mu sync.Mutex

	pages     map[string]*domain.MessagePage
	listErr   error
	listGate  chan struct{}
	listHang  bool
	listCalls []string
	listMax   []int

	messages  map[string]*domain.RawMessage
	fetchErr  map[string]error
	fetchHang map[string]bool

	removeErr error
	removed   []string

	sendErr  error
	sentRaw  []string
	sentAuth []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:     make(map[string]*domain.MessagePage),
		messages:  make(map[string]*domain.RawMessage),
		fetchErr:  make(map[string]error),
		fetchHang: make(map[string]bool),
	}
}

func (f *fakeSource) addMessage(id, from, subject, snippet string) {
	h := make(textproto.MIMEHeader)
	h.Set(domain.HeaderFrom, from)
	h.Set(domain.HeaderSubject, subject)
	h.Set(domain.HeaderMessageID, "<"+id+"@mail.example.com>")
	h.Set(domain.HeaderDate, "Mon, 02 Jan 2006 15:04:05 -0700")
	f.messages[id] = &domain.RawMessage{ID: id, Headers: h, Snippet: snippet}
}

func (f *fakeSource) ListUnread(ctx context.Context, pageToken string, max int) (*domain.MessagePage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, pageToken)
	f.listMax = append(f.listMax, max)
	gate := f.listGate
	hang := f.listHang
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return &domain.MessagePage{}, nil
	}
	return &domain.MessagePage{IDs: append([]string(nil), page.IDs...), NextPageToken: page.NextPageToken}, nil
}

func (f *fakeSource) FetchFull(ctx context.Context, id string) (*domain.RawMessage, error) {
	f.mu.Lock()
	hang := f.fetchHang[id]
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func (f *fakeSource) RemoveUnreadLabel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeSource) Send(ctx context.Context, raw, authToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentRaw = append(f.sentRaw, raw)
	f.sentAuth = append(f.sentAuth, authToken)
	return nil
}

// fakeEnricher classifies by snippet. The category may depend on the guidance
// so tests can observe re-classification after a preference change.
type fakeEnricher struct {
	mu sync.Mutex

	categories  map[string]string
	byGuidance  map[string]string
	classifyErr map[string]error
	hang        map[string]bool
	delay       time.Duration
	guidances   []string

	draft      string
	draftErr   error
	summaries  []string
	styles     []string
	directions []string
}

func newFakeEnricher() *fakeEnricher {
	return &fakeEnricher{
		categories:  make(map[string]string),
		byGuidance:  make(map[string]string),
		classifyErr: make(map[string]error),
		hang:        make(map[string]bool),
	}
}

func (f *fakeEnricher) Classify(ctx context.Context, snippet, guidance string) (*ai.Classification, error) {
	f.mu.Lock()
	hang := f.hang[snippet]
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.guidances = append(f.guidances, guidance)
	if err := f.classifyErr[snippet]; err != nil {
		return nil, err
	}
	category := f.categories[snippet]
	if c, ok := f.byGuidance[guidance]; ok {
		category = c
	}
	if category == "" {
		category = "Non-Important"
	}
	return &ai.Classification{
		Summary:  "Summary of " + snippet + ". It has four sentences. This is three. This is four.",
		Category: category,
	}, nil
}

func (f *fakeEnricher) ComposeReply(ctx context.Context, summary, styleGuidance, instruction string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	f.styles = append(f.styles, styleGuidance)
	f.directions = append(f.directions, instruction)
	if f.draftErr != nil {
		return "", f.draftErr
	}
	return f.draft, nil
}
