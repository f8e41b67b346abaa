package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
	"github.com/s00d/author-today-cli/internal/infra/logger"
	"github.com/s00d/author-today-cli/internal/store"
	"github.com/segmentio/ksuid"
)

// Manager owns the serve-mode queue: one book downloads at a time, chapter
// concurrency stays inside the run itself.
type Manager struct {
	mu       sync.RWMutex
	catalog  app.Catalog
	runner   app.Runner
	store    *store.PersistentStore
	log      *logger.Logger
	baseOpts download.Options

	activeID string

	newJobChan chan struct{}
	done       chan struct{}
}

func NewManager(appCtx *app.Context, baseOpts download.Options) *Manager {
	return &Manager{
		catalog:    appCtx.Catalog,
		runner:     appCtx.Runner,
		store:      appCtx.Store,
		log:        appCtx.Logger,
		baseOpts:   baseOpts,
		newJobChan: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Enqueue creates a queued item for workID and notifies the processing loop.
// A work already waiting or running is returned as-is instead of duplicated.
func (m *Manager) Enqueue(ctx context.Context, workID int64) (*domain.QueueItem, error) {
	items, err := m.store.GetQueueItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	for _, it := range items {
		if it.WorkID == workID && (it.Status == domain.QueueStatusQueued || it.Status == domain.QueueStatusRunning) {
			return it, nil
		}
	}

	// Best effort: the cached library gives the item a human-readable title
	var title string
	if book, err := m.store.GetBook(ctx, workID); err == nil && book != nil {
		title = book.Title
	}

	now := time.Now().UTC()
	item := &domain.QueueItem{
		ID:        ksuid.New().String(),
		WorkID:    workID,
		Title:     title,
		Status:    domain.QueueStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.store.SaveQueueItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save queue item: %w", err)
	}

	// Signal the Start() loop that there is work to do
	select {
	case m.newJobChan <- struct{}{}:
	default:
		// Signal already pending, no need to block
	}

	return item, nil
}

// Start runs the processing loop until ctx is cancelled. Run it in its own
// goroutine; use Stop to wait for the in-flight run to be finalized.
func (m *Manager) Start(ctx context.Context) {
	defer close(m.done)

	// Work interrupted by a previous crash goes back to the line
	if err := m.store.ResetRunning(ctx); err != nil {
		m.log.Warn("failed to reset interrupted queue items: %v", err)
	}

	for {
		item, err := m.store.NextQueued(ctx)
		if err != nil {
			m.log.Error("failed to fetch next queue item: %v", err)
			item = nil
		}

		if item == nil {
			select {
			case <-m.newJobChan:
				continue
			case <-ctx.Done():
				return
			}
		}

		m.process(ctx, item)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Stop blocks until the loop has exited. Cancel the context passed to Start
// first.
func (m *Manager) Stop() {
	<-m.done
}

// ActiveID returns the id of the item currently running, or "".
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

// Item fetches one queue item. Returns nil when the id is unknown.
func (m *Manager) Item(ctx context.Context, id string) (*domain.QueueItem, error) {
	return m.store.GetQueueItem(ctx, id)
}

// Items returns the whole queue in enqueue order.
func (m *Manager) Items(ctx context.Context) ([]*domain.QueueItem, error) {
	return m.store.GetQueueItems(ctx)
}

func (m *Manager) process(ctx context.Context, item *domain.QueueItem) {
	m.setActive(item.ID)
	defer m.setActive("")

	m.updateStatus(ctx, item, domain.QueueStatusRunning)
	m.log.Info("queue: starting work %d (%s)", item.WorkID, item.ID)

	book, chapters, err := m.catalog.BookDetails(ctx, item.WorkID)
	if err != nil {
		m.finalize(item, domain.Summary{}, err)
		return
	}
	if item.Title == "" {
		item.Title = book.Title
	}

	summary, err := m.runner.Run(ctx, book, chapters, m.baseOpts)

	if ctx.Err() != nil {
		// Shutdown mid-run: requeue so the next start picks the book up again
		item.Status = domain.QueueStatusQueued
		item.UpdatedAt = time.Now().UTC()
		if serr := m.store.SaveQueueItem(context.Background(), item); serr != nil {
			m.log.Error("failed to requeue %s on shutdown: %v", item.ID, serr)
		}
		return
	}

	if err == nil {
		if rerr := m.store.RecordRun(ctx, item.WorkID, summary); rerr != nil {
			m.log.Warn("failed to record outcomes for work %d: %v", item.WorkID, rerr)
		}
	}

	m.finalize(item, summary, err)
}

// finalize persists the terminal status and counts
func (m *Manager) finalize(item *domain.QueueItem, summary domain.Summary, err error) {
	item.Completed = summary.Completed
	item.Skipped = summary.Skipped
	item.Failed = summary.Failed

	allFailed := summary.Failed > 0 && summary.Completed == 0 && summary.Skipped == 0

	switch {
	case err != nil:
		item.Status = domain.QueueStatusFailed
		item.Error = err.Error()
	case allFailed:
		item.Status = domain.QueueStatusFailed
		item.Error = "every chapter failed"
	default:
		item.Status = domain.QueueStatusDone
	}
	item.UpdatedAt = time.Now().UTC()

	if serr := m.store.SaveQueueItem(context.Background(), item); serr != nil {
		m.log.Error("failed to persist queue item %s: %v", item.ID, serr)
	}

	m.log.Info("queue: work %d finished with status %s (%d ok, %d skipped, %d failed)",
		item.WorkID, item.Status, item.Completed, item.Skipped, item.Failed)
}

func (m *Manager) updateStatus(ctx context.Context, item *domain.QueueItem, status domain.QueueStatus) {
	item.Status = status
	item.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveQueueItem(ctx, item); err != nil {
		m.log.Error("failed to persist queue item %s: %v", item.ID, err)
	}
}

func (m *Manager) setActive(id string) {
	m.mu.Lock()
	m.activeID = id
	m.mu.Unlock()
}
