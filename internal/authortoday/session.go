package authortoday

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
)

// Session is the persisted login state.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the token's lifetime has passed. Sessions
// without an expiry never expire locally.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// LoadSession reads the session file. A missing file or an expired token
// comes back as ErrNotAuthenticated.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if s.Token == "" || s.Expired() {
		return nil, domain.ErrNotAuthenticated
	}
	return &s, nil
}

// Save writes the session file with owner-only permissions.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// RemoveSession deletes the session file. Absence is not an error.
func RemoveSession(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
