// Package naming turns platform metadata into filesystem-safe file and
// folder names.
package naming

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/s00d/author-today-cli/internal/domain"
)

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

// SanitizeName makes a string safe to use as a single path element on every
// platform we care about. Empty results fall back to "untitled".
func SanitizeName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	s = spaceRun.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")
	if s == "" {
		return "untitled"
	}
	return s
}

// ChapterNamer builds the file name for one chapter of a book.
type ChapterNamer func(order int, title string) string

// ChapterFileName is the default namer: "001. Title.mp3". The sequence is
// 1-based and zero-padded to three digits.
func ChapterFileName(order int, title string) string {
	return fmt.Sprintf("%03d. %s.mp3", order, SanitizeName(title))
}

// DefaultFolderTemplate groups books by author.
const DefaultFolderTemplate = "{{.Author}}/{{.Title}}"

type folderData struct {
	Author      string
	Title       string
	Narrator    string
	Series      string
	SeriesOrder int
	WorkID      int64
}

// BookFolder renders tmpl against the book and returns a relative directory
// path. Every field is sanitized before rendering, so path separators can
// only come from the template itself.
func BookFolder(tmpl string, book domain.Book) (string, error) {
	if tmpl == "" {
		tmpl = DefaultFolderTemplate
	}
	t, err := template.New("folder").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing folder template: %w", err)
	}

	data := folderData{
		Author:      SanitizeName(book.Author),
		Title:       SanitizeName(book.Title),
		Narrator:    SanitizeName(book.Narrator),
		Series:      SanitizeName(book.Series),
		SeriesOrder: book.SeriesOrder,
		WorkID:      book.WorkID,
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering folder template: %w", err)
	}

	var parts []string
	for _, p := range strings.Split(buf.String(), "/") {
		p = strings.Trim(p, " .")
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return SanitizeName(book.Title), nil
	}
	return filepath.Join(parts...), nil
}

// CoverCandidates lists the file names that mark a cover as already present.
func CoverCandidates() []string {
	return []string{"cover.jpg", "cover.png", "cover.webp"}
}

// CoverFileName picks the cover file name for a cover URL. Unknown or
// missing extensions default to jpg.
func CoverFileName(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "cover.png"
	case ".webp":
		return "cover.webp"
	default:
		return "cover.jpg"
	}
}
