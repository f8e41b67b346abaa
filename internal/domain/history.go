package domain

import "time"

// DownloadRecord is one persisted chapter outcome from a finished run.
type DownloadRecord struct {
	ID         string       `json:"id"`
	WorkID     int64        `json:"workId"`
	ChapterID  int64        `json:"chapterId"`
	Title      string       `json:"title"`
	Path       string       `json:"path"`
	Status     ChapterState `json:"status"`
	Attempts   int          `json:"attempts"`
	Error      string       `json:"error,omitempty"`
	FinishedAt time.Time    `json:"finishedAt"`
}
