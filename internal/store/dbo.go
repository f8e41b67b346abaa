package store

import (
	"database/sql"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
)

// queueItemDBO maps to the queue_items table
type queueItemDBO struct {
	ID        string         `db:"id"`
	WorkID    int64          `db:"work_id"`
	Title     string         `db:"title"`
	Status    string         `db:"status"`
	Error     sql.NullString `db:"error"`
	Completed int            `db:"completed"`
	Skipped   int            `db:"skipped"`
	Failed    int            `db:"failed"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Mapper: DBO to Domain QueueItem
func (q *queueItemDBO) ToDomain() *domain.QueueItem {
	return &domain.QueueItem{
		ID:        q.ID,
		WorkID:    q.WorkID,
		Title:     q.Title,
		Status:    domain.QueueStatus(q.Status),
		Error:     q.Error.String,
		Completed: q.Completed,
		Skipped:   q.Skipped,
		Failed:    q.Failed,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

// Mapper: Domain QueueItem to DBO
func (q *queueItemDBO) FromDomain(item *domain.QueueItem) {
	q.ID = item.ID
	q.WorkID = item.WorkID
	q.Title = item.Title
	q.Status = string(item.Status)
	q.Error = sql.NullString{String: item.Error, Valid: item.Error != ""}
	q.Completed = item.Completed
	q.Skipped = item.Skipped
	q.Failed = item.Failed
	q.CreatedAt = item.CreatedAt
	q.UpdatedAt = item.UpdatedAt
}

// downloadDBO maps to the downloads table
type downloadDBO struct {
	ID         string         `db:"id"`
	WorkID     int64          `db:"work_id"`
	ChapterID  int64          `db:"chapter_id"`
	Title      string         `db:"title"`
	Path       string         `db:"path"`
	Status     string         `db:"status"`
	Attempts   int            `db:"attempts"`
	Error      sql.NullString `db:"error"`
	FinishedAt time.Time      `db:"finished_at"`
}

// Mapper: DBO to Domain DownloadRecord
func (d *downloadDBO) ToDomain() domain.DownloadRecord {
	return domain.DownloadRecord{
		ID:         d.ID,
		WorkID:     d.WorkID,
		ChapterID:  d.ChapterID,
		Title:      d.Title,
		Path:       d.Path,
		Status:     domain.ChapterState(d.Status),
		Attempts:   d.Attempts,
		Error:      d.Error.String,
		FinishedAt: d.FinishedAt,
	}
}

// Mapper: Domain DownloadRecord to DBO
func (d *downloadDBO) FromDomain(rec domain.DownloadRecord) {
	d.ID = rec.ID
	d.WorkID = rec.WorkID
	d.ChapterID = rec.ChapterID
	d.Title = rec.Title
	d.Path = rec.Path
	d.Status = string(rec.Status)
	d.Error = sql.NullString{String: rec.Error, Valid: rec.Error != ""}
	d.Attempts = rec.Attempts
	d.FinishedAt = rec.FinishedAt
}
