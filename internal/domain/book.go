package domain

import "time"

// Book is one audiobook work as the platform describes it.
type Book struct {
	WorkID       int64     `json:"workId"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Narrator     string    `json:"narrator,omitempty"`
	Series       string    `json:"series,omitempty"`
	SeriesOrder  int       `json:"seriesOrder,omitempty"`
	Annotation   string    `json:"annotation,omitempty"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	ChapterCount int       `json:"chapterCount"`
	PurchasedAt  time.Time `json:"purchasedAt,omitempty"`
}

// Chapter is a single audio chapter within a book. Order is the 1-based
// position in the book's playback sequence.
type Chapter struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Seconds int    `json:"seconds,omitempty"`
}
