package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
)

func (s *PersistentStore) SaveQueueItem(ctx context.Context, item *domain.QueueItem) error {

	var dbo queueItemDBO
	dbo.FromDomain(item)

	query := `INSERT OR REPLACE INTO queue_items (id, work_id, title, status, error, completed, skipped, failed, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		dbo.ID,
		dbo.WorkID,
		dbo.Title,
		dbo.Status,
		dbo.Error,
		dbo.Completed,
		dbo.Skipped,
		dbo.Failed,
		dbo.CreatedAt,
		dbo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save queue item %s: %w", item.ID, err)
	}
	return nil
}

func (s *PersistentStore) GetQueueItem(ctx context.Context, id string) (*domain.QueueItem, error) {
	query := `
			SELECT id, work_id, title, status, error, completed, skipped, failed, created_at, updated_at
			FROM queue_items
			WHERE id = ? LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, id)

	var dbo queueItemDBO
	err := row.Scan(
		&dbo.ID, &dbo.WorkID, &dbo.Title, &dbo.Status, &dbo.Error,
		&dbo.Completed, &dbo.Skipped, &dbo.Failed, &dbo.CreatedAt, &dbo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Return nil, nil to indicate "Not found"
		}
		return nil, fmt.Errorf("failed to fetch queue item: %w", err)
	}

	return dbo.ToDomain(), nil
}

// GetQueueItems returns every queue item. KSUIDs sort chronologically, so
// ordering by id is ordering by enqueue time.
func (s *PersistentStore) GetQueueItems(ctx context.Context) ([]*domain.QueueItem, error) {
	query := `
		SELECT id, work_id, title, status, error, completed, skipped, failed, created_at, updated_at
		FROM queue_items
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch queue: %w", err)
	}
	defer rows.Close()

	var items []*domain.QueueItem
	for rows.Next() {
		var dbo queueItemDBO
		err := rows.Scan(
			&dbo.ID, &dbo.WorkID, &dbo.Title, &dbo.Status, &dbo.Error,
			&dbo.Completed, &dbo.Skipped, &dbo.Failed, &dbo.CreatedAt, &dbo.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, dbo.ToDomain())
	}

	return items, rows.Err()
}

// NextQueued returns the oldest item still waiting to run, or nil when the
// queue is drained.
func (s *PersistentStore) NextQueued(ctx context.Context) (*domain.QueueItem, error) {
	query := `
		SELECT id, work_id, title, status, error, completed, skipped, failed, created_at, updated_at
		FROM queue_items
		WHERE status = ?
		ORDER BY id ASC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, string(domain.QueueStatusQueued))

	var dbo queueItemDBO
	err := row.Scan(
		&dbo.ID, &dbo.WorkID, &dbo.Title, &dbo.Status, &dbo.Error,
		&dbo.Completed, &dbo.Skipped, &dbo.Failed, &dbo.CreatedAt, &dbo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch next queued item: %w", err)
	}

	return dbo.ToDomain(), nil
}

// ResetRunning moves items stuck in the running state back to queued, so
// work interrupted by a crash is picked up again on the next start.
func (s *PersistentStore) ResetRunning(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE status = ?`,
		string(domain.QueueStatusQueued), time.Now().UTC(), string(domain.QueueStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to reset running queue items: %w", err)
	}
	return nil
}
