package download

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/s00d/author-today-cli/internal/domain"
)

// tmpSuffix marks in-flight files. Anything carrying it in the book
// directory is a leftover from an interrupted run.
const tmpSuffix = ".tmp"

// ProgressFunc receives the running byte count after each chunk. total is 0
// when the source did not declare a length.
type ProgressFunc func(received, total int64)

// Transferer streams URLs to disk. Bytes go into a sibling temp file and
// only a fully received body is renamed onto the destination, so a partial
// download is never observable at the final path.
type Transferer struct {
	client  *http.Client
	bufSize int
}

func NewTransferer(client *http.Client) *Transferer {
	if client == nil {
		client = &http.Client{}
	}
	return &Transferer{client: client, bufSize: 32 * 1024}
}

// Fetch downloads url into dest. The rename at the end is the single commit
// point; on any earlier failure the temp file is removed best-effort and
// the original error is returned.
func (t *Transferer) Fetch(ctx context.Context, url, dest string, onProgress ProgressFunc) error {
	if url == "" {
		return domain.ErrResourceUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return domain.ErrResourceUnavailable
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &domain.TransferError{URL: url, Path: dest, Status: resp.StatusCode}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	tmp := dest + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}

	pw := &progressWriter{dst: f, total: total, fn: onProgress}
	if _, err := io.CopyBuffer(pw, resp.Body, make([]byte, t.bufSize)); err != nil {
		f.Close()
		os.Remove(tmp)
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &domain.TransferError{URL: url, Path: dest, Err: err}
	}
	return nil
}

type progressWriter struct {
	dst      io.Writer
	received int64
	total    int64
	fn       ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.received += int64(n)
		if w.fn != nil {
			w.fn(w.received, w.total)
		}
	}
	return n, err
}
