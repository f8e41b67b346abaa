package authortoday

import (
	"sort"
	"strings"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
)

// Wire-level payloads. Everything public in this package speaks
// domain types; these stay behind the client.

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// User identifies the logged-in account.
type User struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

type libraryItem struct {
	WorkID      int64     `json:"workId"`
	Title       string    `json:"title"`
	AuthorFIO   string    `json:"authorFIO"`
	Narrator    string    `json:"narrator"`
	SeriesTitle string    `json:"seriesTitle"`
	SeriesOrder int       `json:"seriesOrder"`
	CoverURL    string    `json:"coverUrl"`
	Format      string    `json:"format"`
	ChapterCnt  int       `json:"chapterCount"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

func (i libraryItem) isAudiobook() bool {
	return strings.EqualFold(i.Format, "audiobook")
}

func (i libraryItem) toBook() domain.Book {
	return domain.Book{
		WorkID:       i.WorkID,
		Title:        i.Title,
		Author:       i.AuthorFIO,
		Narrator:     i.Narrator,
		Series:       i.SeriesTitle,
		SeriesOrder:  i.SeriesOrder,
		CoverURL:     i.CoverURL,
		ChapterCount: i.ChapterCnt,
		PurchasedAt:  i.PurchasedAt,
	}
}

type workDetails struct {
	libraryItem
	Annotation string `json:"annotation"`
}

func (d workDetails) toBook() domain.Book {
	b := d.libraryItem.toBook()
	b.Annotation = d.Annotation
	return b
}

type chapterItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	SortOrder   int    `json:"sortOrder"`
	DurationSec int    `json:"durationSec"`
}

type chapterURLResponse struct {
	URL *string `json:"url"`
}

func toChapters(items []chapterItem) []domain.Chapter {
	sorted := make([]chapterItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })

	chapters := make([]domain.Chapter, len(sorted))
	for i, it := range sorted {
		order := it.SortOrder
		if order <= 0 {
			order = i + 1
		}
		chapters[i] = domain.Chapter{
			ID:      it.ID,
			Title:   it.Title,
			Order:   order,
			Seconds: it.DurationSec,
		}
	}
	return chapters
}
