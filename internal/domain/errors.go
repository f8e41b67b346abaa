package domain

import (
	"errors"
	"fmt"
)

// ErrResourceUnavailable indicates the platform has no usable audio source
// for a chapter (missing URL or a 404-class response).
var ErrResourceUnavailable = errors.New("audio source unavailable")

// ErrNotAuthenticated indicates there is no stored session or the platform
// rejected the token.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrRateLimited indicates a 429/503 response from the platform API.
var ErrRateLimited = errors.New("rate limited by platform")

// TransferError wraps a failure that happened mid-flight while streaming a
// URL to disk: network error, unexpected status, short write, rename failure.
type TransferError struct {
	URL    string
	Path   string
	Status int // HTTP status when relevant, otherwise 0
	Err    error
}

func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transfer %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// FailedAfterRetriesError is the terminal error for a chapter whose retry
// budget ran out. It wraps the last attempt's error.
type FailedAfterRetriesError struct {
	ChapterID int64
	Title     string
	Attempts  int
	Err       error
}

func (e *FailedAfterRetriesError) Error() string {
	return fmt.Sprintf("chapter %d %q failed after %d attempts: %v", e.ChapterID, e.Title, e.Attempts, e.Err)
}

func (e *FailedAfterRetriesError) Unwrap() error { return e.Err }
