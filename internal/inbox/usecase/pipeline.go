package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"email-insight-backend/internal/inbox/domain"
	"email-insight-backend/pkg/ai"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize    = 10
	DefaultConcurrency = 10
)

// State is the lifecycle state of a Pipeline
type State int

const (
	StateIdle State = iota
	StateListing
	StateEnriching
	StateMarkingRead
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StateEnriching:
		return "enriching"
	case StateMarkingRead:
		return "marking_read"
	default:
		return "idle"
	}
}

// PipelineConfig bounds page size, fan-out width and per-call timeouts.
// A zero timeout disables that timeout.
type PipelineConfig struct {
	PageSize        int
	Concurrency     int
	ListTimeout     time.Duration
	FetchTimeout    time.Duration
	ClassifyTimeout time.Duration
}

// Snapshot is a copy of the accumulated set and the cursor at one point in time
type Snapshot struct {
	Items  []domain.MailboxItem
	Cursor domain.PageCursor
}

// LoadResult is returned by LoadMore
type LoadResult struct {
	Appended []domain.MailboxItem
	Snapshot
}

// Pipeline pages through unread mail, enriches every message and owns the accumulated set.
// Top-level calls (Refresh, LoadMore, MarkAsRead) are rejected with domain.ErrBusy while
// another one is in flight.
type Pipeline struct {
	source   domain.MessageSource
	enricher ai.EnrichmentService
	config   PipelineConfig
	logger   logrus.FieldLogger

	mu         sync.Mutex
	state      State
	generation uint64
	items      []domain.MailboxItem
	cursor     domain.PageCursor
	prefs      domain.PreferenceSet
}

// NewPipeline creates a pipeline with an empty accumulated set and an initial cursor
func NewPipeline(source domain.MessageSource, enricher ai.EnrichmentService, cfg PipelineConfig, logger logrus.FieldLogger) *Pipeline {
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Pipeline{
		source:   source,
		enricher: enricher,
		config:   cfg,
		logger:   logger.WithField("component", "pipeline"),
		cursor:   domain.InitialCursor(),
	}
}

// Refresh discards the current set and cursor, lists the first page and enriches it.
// The set is only replaced once the page has been enriched; on a ListError the set
// keeps its pre-call value.
func (p *Pipeline) Refresh(ctx context.Context, prefs domain.PreferenceSet) (*Snapshot, error) {
	gen, err := p.begin(StateListing)
	if err != nil {
		return nil, err
	}
	defer p.end()

	items, next, err := p.fetchPage(ctx, "", prefs)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		p.logger.Info("refresh result discarded: pipeline was invalidated")
		return p.snapshotLocked(), nil
	}
	p.items = items
	p.cursor = domain.NextCursor(next)
	p.prefs = prefs
	p.logger.WithFields(logrus.Fields{
		"items":  len(items),
		"cursor": p.cursor.String(),
	}).Info("refresh completed")
	return p.snapshotLocked(), nil
}

// LoadMore lists the page after the held cursor with the preferences of the last refresh
// and appends the enriched items. Ids already present in the set are skipped.
func (p *Pipeline) LoadMore(ctx context.Context) (*LoadResult, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if !p.cursor.HasMore() {
		p.mu.Unlock()
		return nil, domain.ErrInvalidCursor
	}
	token := p.cursor.Token()
	prefs := p.prefs
	gen := p.generation
	p.state = StateListing
	p.mu.Unlock()
	defer p.end()

	items, next, err := p.fetchPage(ctx, token, prefs)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		p.logger.Info("load-more result discarded: pipeline was invalidated")
		return &LoadResult{Snapshot: *p.snapshotLocked()}, nil
	}

	present := make(map[string]struct{}, len(p.items))
	for _, item := range p.items {
		present[item.ID] = struct{}{}
	}
	appended := make([]domain.MailboxItem, 0, len(items))
	for _, item := range items {
		if _, ok := present[item.ID]; ok {
			continue
		}
		appended = append(appended, item)
	}
	p.items = append(p.items, appended...)
	p.cursor = domain.NextCursor(next)

	p.logger.WithFields(logrus.Fields{
		"appended": len(appended),
		"items":    len(p.items),
		"cursor":   p.cursor.String(),
	}).Info("load-more completed")
	return &LoadResult{Appended: appended, Snapshot: *p.snapshotLocked()}, nil
}

// MarkAsRead removes the unread label remotely, then drops the item from the set.
// On failure the set is left unchanged.
func (p *Pipeline) MarkAsRead(ctx context.Context, id string) error {
	gen, err := p.begin(StateMarkingRead)
	if err != nil {
		return err
	}
	defer p.end()

	callCtx, cancel := withTimeout(ctx, p.config.FetchTimeout)
	defer cancel()
	if err := p.source.RemoveUnreadLabel(callCtx, id); err != nil {
		p.logger.WithError(err).WithField("message_id", id).Error("mark as read failed")
		return &domain.ReadStateUpdateError{ID: id, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	for i, item := range p.items {
		if item.ID == id {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			break
		}
	}
	return nil
}

// Invalidate discards the set and the cursor. The result of a call in flight at
// this moment is discarded when it completes.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.items = nil
	p.cursor = domain.InitialCursor()
	p.prefs = domain.PreferenceSet{}
}

// Items returns a copy of the accumulated set
func (p *Pipeline) Items() []domain.MailboxItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneItems(p.items)
}

// Item looks up one accumulated item by id
func (p *Pipeline) Item(id string) (domain.MailboxItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range p.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.MailboxItem{}, false
}

func (p *Pipeline) Cursor() domain.PageCursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the current set and cursor
func (p *Pipeline) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pipeline) begin(state State) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return 0, domain.ErrBusy
	}
	p.state = state
	return p.generation, nil
}

func (p *Pipeline) end() {
	p.setState(StateIdle)
}

func (p *Pipeline) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Pipeline) snapshotLocked() *Snapshot {
	return &Snapshot{Items: cloneItems(p.items), Cursor: p.cursor}
}

// fetchPage lists one page and enriches it. It fails only when the listing fails
// or the caller's context is done.
func (p *Pipeline) fetchPage(ctx context.Context, pageToken string, prefs domain.PreferenceSet) ([]domain.MailboxItem, string, error) {
	listCtx, cancel := withTimeout(ctx, p.config.ListTimeout)
	page, err := p.source.ListUnread(listCtx, pageToken, p.config.PageSize)
	cancel()
	if err != nil {
		p.logger.WithError(err).Error("list unread failed")
		return nil, "", &domain.ListError{Err: err}
	}
	if page == nil {
		page = &domain.MessagePage{}
	}

	p.setState(StateEnriching)
	items := p.enrichAll(ctx, uniqueIDs(page.IDs), prefs.ClassificationGuidance)

	// An abandoned call must not replace the set with a page of failed items.
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return items, page.NextPageToken, nil
}

// enrichAll fetches and classifies every id concurrently and waits for all of them.
// Failed items are logged and dropped; the rest keep the listing order.
func (p *Pipeline) enrichAll(ctx context.Context, ids []string, guidance string) []domain.MailboxItem {
	results := make([]*domain.MailboxItem, len(ids))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.config.Concurrency)

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			item, err := p.enrichOne(ctx, id, guidance)
			if err != nil {
				p.logger.WithError(err).WithField("message_id", id).Warn("message dropped from page")
				return
			}
			results[i] = item
		}(i, id)
	}
	wg.Wait()

	items := make([]domain.MailboxItem, 0, len(ids))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

func (p *Pipeline) enrichOne(ctx context.Context, id, guidance string) (*domain.MailboxItem, error) {
	fetchCtx, cancel := withTimeout(ctx, p.config.FetchTimeout)
	raw, err := p.source.FetchFull(fetchCtx, id)
	cancel()
	if err != nil {
		return nil, &domain.ItemFetchError{ID: id, Err: err}
	}
	if raw == nil {
		return nil, &domain.ItemFetchError{ID: id, Err: errors.New("empty message")}
	}

	item := itemFromRaw(id, raw)

	classifyCtx, cancel := withTimeout(ctx, p.config.ClassifyTimeout)
	result, err := p.enricher.Classify(classifyCtx, item.Snippet, guidance)
	cancel()
	if err != nil {
		return nil, &domain.ItemClassifyError{ID: id, Err: err}
	}
	if result == nil {
		return nil, &domain.ItemClassifyError{ID: id, Err: fmt.Errorf("%w: empty classification", ai.ErrMalformedResponse)}
	}

	item.Summary = result.Summary
	item.Category = domain.ParseCategory(result.Category)
	return &item, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cloneItems(items []domain.MailboxItem) []domain.MailboxItem {
	out := make([]domain.MailboxItem, len(items))
	copy(out, items)
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
