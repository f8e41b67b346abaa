package naming

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/s00d/author-today-cli/internal/domain"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Глава 1: Начало", "Глава 1_ Начало"},
		{`a\b/c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  spaced\t\tout  ", "spaced out"},
		{"trailing dots...", "trailing dots"},
		{"???", "___"},
		{"", "untitled"},
		{"...", "untitled"},
		{" . . ", "untitled"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestChapterFileName(t *testing.T) {
	cases := []struct {
		order int
		title string
		want  string
	}{
		{1, "Пролог", "001. Пролог.mp3"},
		{42, "Middle", "042. Middle.mp3"},
		{100, "End?", "100. End_.mp3"},
		{1000, "Overflow", "1000. Overflow.mp3"},
	}
	for _, tc := range cases {
		if got := ChapterFileName(tc.order, tc.title); got != tc.want {
			t.Errorf("ChapterFileName(%d, %q) = %q, want %q", tc.order, tc.title, got, tc.want)
		}
	}
}

func TestBookFolder(t *testing.T) {
	book := domain.Book{
		WorkID: 7,
		Title:  "Дом: в котором",
		Author: "Мариам Петросян",
		Series: "Одиночная",
	}

	got, err := BookFolder("", book)
	if err != nil {
		t.Fatalf("BookFolder: %v", err)
	}
	want := filepath.Join("Мариам Петросян", "Дом_ в котором")
	if got != want {
		t.Errorf("default template = %q, want %q", got, want)
	}

	got, err = BookFolder("{{.Series}}/{{.Title}}", book)
	if err != nil {
		t.Fatalf("BookFolder: %v", err)
	}
	want = filepath.Join("Одиночная", "Дом_ в котором")
	if got != want {
		t.Errorf("series template = %q, want %q", got, want)
	}

	if _, err := BookFolder("{{.Nope}}", book); err == nil {
		t.Error("expected error for unknown template field")
	}
}

func TestBookFolderNeverEscapesRoot(t *testing.T) {
	book := domain.Book{Title: "../../etc/passwd", Author: "..///.."}
	got, err := BookFolder("", book)
	if err != nil {
		t.Fatalf("BookFolder: %v", err)
	}
	if filepath.IsAbs(got) {
		t.Fatalf("folder %q is absolute", got)
	}
	for _, part := range strings.Split(got, string(filepath.Separator)) {
		if part == ".." {
			t.Fatalf("folder %q climbs out of the root", got)
		}
	}
}

func TestCoverFileName(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cm.author.today/content/abc/cover.png?width=600", "cover.png"},
		{"https://cm.author.today/content/abc/im.webp", "cover.webp"},
		{"https://cm.author.today/content/abc/im.jpeg", "cover.jpg"},
		{"https://cm.author.today/content/abc/im", "cover.jpg"},
		{"", "cover.jpg"},
	}
	for _, tc := range cases {
		if got := CoverFileName(tc.url); got != tc.want {
			t.Errorf("CoverFileName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
