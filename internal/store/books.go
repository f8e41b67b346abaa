package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
)

// SaveBooks replaces the cached library with a fresh snapshot from the API.
func (s *PersistentStore) SaveBooks(ctx context.Context, books []domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// A removed purchase must disappear from the cache too, so the
	// snapshot is replaced wholesale instead of upserted row by row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("failed to clear book cache: %w", err)
	}

	now := time.Now().UTC()
	for _, b := range books {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode book %d: %w", b.WorkID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO books (work_id, title, author, series, data, cached_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			b.WorkID, b.Title, b.Author, b.Series, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("failed to save book %d: %w", b.WorkID, err)
		}
	}

	return tx.Commit()
}

// GetBooks returns the cached library ordered by author and title. An empty
// slice means no snapshot has been saved yet.
func (s *PersistentStore) GetBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM books ORDER BY author ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		var b domain.Book
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			// Skip rows written by an incompatible older build
			continue
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

// GetBook fetches a single cached book
func (s *PersistentStore) GetBook(ctx context.Context, workID int64) (*domain.Book, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM books WHERE work_id = ? LIMIT 1`, workID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch book %d: %w", workID, err)
	}

	var b domain.Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode book %d: %w", workID, err)
	}
	return &b, nil
}

// CachedAt reports when the library snapshot was taken. The zero time means
// the cache is empty.
func (s *PersistentStore) CachedAt(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx, `SELECT cached_at FROM books ORDER BY cached_at DESC LIMIT 1`).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to fetch cache age: %w", err)
	}
	return ts, nil
}
