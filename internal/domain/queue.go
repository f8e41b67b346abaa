package domain

import "time"

type QueueStatus string

const (
	QueueStatusQueued  QueueStatus = "queued"
	QueueStatusRunning QueueStatus = "running"
	QueueStatusDone    QueueStatus = "done"
	QueueStatusFailed  QueueStatus = "failed"
)

// QueueItem represents one book waiting for, or finished with, a serve-mode
// download run.
type QueueItem struct {
	ID        string      `json:"id"`
	WorkID    int64       `json:"workId"`
	Title     string      `json:"title"`
	Status    QueueStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	Completed int         `json:"completed"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
