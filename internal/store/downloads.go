package store

import (
	"context"
	"fmt"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/segmentio/ksuid"
)

// RecordRun persists every terminal chapter outcome of a finished run.
func (s *PersistentStore) RecordRun(ctx context.Context, workID int64, summary domain.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Reuse a single DBO instance for efficiency
	var dbo downloadDBO

	now := time.Now().UTC()
	for _, out := range summary.Outcomes {
		rec := domain.DownloadRecord{
			ID:         ksuid.New().String(),
			WorkID:     workID,
			ChapterID:  out.Chapter.ID,
			Title:      out.Chapter.Title,
			Path:       out.Path,
			Status:     out.State,
			Attempts:   out.Attempts,
			FinishedAt: now,
		}
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
		dbo.FromDomain(rec)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO downloads (id, work_id, chapter_id, title, path, status, attempts, error, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dbo.ID, dbo.WorkID, dbo.ChapterID, dbo.Title, dbo.Path,
			dbo.Status, dbo.Attempts, dbo.Error, dbo.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record chapter %d: %w", out.Chapter.ID, err)
		}
	}

	return tx.Commit()
}

// ListDownloads returns download history, newest first. A workID of zero
// lists history across all books. KSUIDs sort chronologically, so ordering
// by id is ordering by insertion time.
func (s *PersistentStore) ListDownloads(ctx context.Context, workID int64, limit int) ([]domain.DownloadRecord, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, work_id, chapter_id, title, path, status, attempts, error, finished_at
		FROM downloads`
	args := []any{}
	if workID != 0 {
		query += ` WHERE work_id = ?`
		args = append(args, workID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []domain.DownloadRecord
	for rows.Next() {
		var dbo downloadDBO
		err := rows.Scan(
			&dbo.ID, &dbo.WorkID, &dbo.ChapterID, &dbo.Title, &dbo.Path,
			&dbo.Status, &dbo.Attempts, &dbo.Error, &dbo.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		records = append(records, dbo.ToDomain())
	}

	return records, rows.Err()
}
