package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/infra/logger"
	"github.com/s00d/author-today-cli/internal/naming"
)

const bookInfoName = "book-info.json"

// Resolver supplies the direct audio URL for one chapter. An empty URL with
// a nil error means the platform has no source for it.
type Resolver interface {
	ResolveChapterURL(ctx context.Context, workID, chapterID int64) (string, error)
}

// Options tune a single book run.
type Options struct {
	OutDir         string
	FolderTemplate string
	Concurrency    int
	MaxAttempts    int
	RetryDelay     time.Duration
	SkipExisting   bool
	WriteBookInfo  bool
	FetchCover     bool
	Namer          naming.ChapterNamer
	Hooks          Hooks
}

func (o Options) withDefaults() Options {
	if o.OutDir == "" {
		o.OutDir = "."
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.Namer == nil {
		o.Namer = naming.ChapterFileName
	}
	if o.Hooks == nil {
		o.Hooks = NopHooks{}
	}
	return o
}

// Descriptor pairs a chapter with its destination path.
type Descriptor struct {
	Chapter domain.Chapter
	Path    string
}

// Orchestrator runs whole-book downloads: bounded concurrency, fixed-delay
// retries, atomic placement, aggregate progress.
type Orchestrator struct {
	resolver Resolver
	transfer *Transferer
	log      *logger.Logger
}

func NewOrchestrator(resolver Resolver, transfer *Transferer, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{resolver: resolver, transfer: transfer, log: log}
}

// Run downloads every chapter of book into its folder under opts.OutDir and
// reports per-chapter outcomes. Only plan construction can fail the run;
// chapter failures are data in the summary, not an error.
func (o *Orchestrator) Run(ctx context.Context, book domain.Book, chapters []domain.Chapter, opts Options) (domain.Summary, error) {
	opts = opts.withDefaults()

	rel, err := naming.BookFolder(opts.FolderTemplate, book)
	if err != nil {
		return domain.Summary{}, err
	}
	dir := filepath.Join(opts.OutDir, rel)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.Summary{}, fmt.Errorf("creating book directory: %w", err)
	}

	o.removeStaleTemp(dir)

	plan, err := buildPlan(dir, chapters, opts.Namer)
	if err != nil {
		return domain.Summary{}, err
	}

	o.log.Info("downloading %q by %s: %d chapters into %s", book.Title, book.Author, len(plan), dir)

	if opts.WriteBookInfo {
		o.writeBookInfo(dir, book, plan)
	}
	if opts.FetchCover && book.CoverURL != "" {
		o.fetchCover(ctx, dir, book.CoverURL)
	}

	outcomes := make([]domain.Outcome, len(plan))
	var pending []int
	for i, d := range plan {
		if opts.SkipExisting {
			if _, err := os.Stat(d.Path); err == nil {
				outcomes[i] = domain.Outcome{Chapter: d.Chapter, Path: d.Path, State: domain.ChapterSkipped}
				opts.Hooks.OnStateChange(d.Chapter, domain.ChapterSkipped, nil)
				o.log.Debug("chapter %03d already present, skipping", d.Chapter.Order)
				continue
			}
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		s := domain.Summarize(outcomes)
		s.Dir = dir
		return s, nil
	}

	gate := NewGate(opts.Concurrency)
	policy := RetryPolicy{MaxAttempts: opts.MaxAttempts, Delay: opts.RetryDelay}

	var wg sync.WaitGroup
	for _, idx := range pending {
		wg.Add(1)
		go func(idx int, d Descriptor) {
			defer wg.Done()
			outcomes[idx] = o.downloadChapter(ctx, gate, policy, book.WorkID, d, opts.Hooks)
		}(idx, plan[idx])
	}
	wg.Wait()

	s := domain.Summarize(outcomes)
	s.Dir = dir
	return s, nil
}

func (o *Orchestrator) downloadChapter(ctx context.Context, gate *Gate, policy RetryPolicy, workID int64, d Descriptor, hooks Hooks) domain.Outcome {
	if err := gate.Acquire(ctx); err != nil {
		hooks.OnStateChange(d.Chapter, domain.ChapterFailed, err)
		return domain.Outcome{Chapter: d.Chapter, Path: d.Path, State: domain.ChapterFailed, Err: err}
	}
	defer gate.Release()

	hooks.OnStateChange(d.Chapter, domain.ChapterAttempting, nil)

	attempts, err := policy.Run(ctx, func(attempt int) error {
		if attempt > 1 {
			o.log.Debug("chapter %03d: attempt %d", d.Chapter.Order, attempt)
		}
		url, rerr := o.resolver.ResolveChapterURL(ctx, workID, d.Chapter.ID)
		if rerr != nil {
			return rerr
		}
		if url == "" {
			return domain.ErrResourceUnavailable
		}
		return o.transfer.Fetch(ctx, url, d.Path, func(received, total int64) {
			hooks.OnProgress(ProgressSample{
				ChapterID: d.Chapter.ID,
				Order:     d.Chapter.Order,
				Bytes:     received,
				Total:     total,
			})
		})
	})
	if err != nil {
		ferr := &domain.FailedAfterRetriesError{
			ChapterID: d.Chapter.ID,
			Title:     d.Chapter.Title,
			Attempts:  attempts,
			Err:       err,
		}
		o.log.Warn("chapter %03d %q: %v", d.Chapter.Order, d.Chapter.Title, ferr)
		hooks.OnStateChange(d.Chapter, domain.ChapterFailed, ferr)
		return domain.Outcome{Chapter: d.Chapter, Path: d.Path, State: domain.ChapterFailed, Attempts: attempts, Err: ferr}
	}

	o.log.Info("chapter %03d %q done (%d attempt(s))", d.Chapter.Order, d.Chapter.Title, attempts)
	hooks.OnStateChange(d.Chapter, domain.ChapterCompleted, nil)
	return domain.Outcome{Chapter: d.Chapter, Path: d.Path, State: domain.ChapterCompleted, Attempts: attempts}
}

// buildPlan sorts chapters by sequence and assigns destination paths. Two
// chapters mapping to the same file is a fatal planning error.
func buildPlan(dir string, chapters []domain.Chapter, namer naming.ChapterNamer) ([]Descriptor, error) {
	cs := make([]domain.Chapter, len(chapters))
	copy(cs, chapters)
	sort.Slice(cs, func(i, j int) bool { return cs[i].Order < cs[j].Order })

	seen := make(map[string]int64, len(cs))
	plan := make([]Descriptor, 0, len(cs))
	for _, ch := range cs {
		p := filepath.Join(dir, namer(ch.Order, ch.Title))
		if otherID, dup := seen[p]; dup {
			return nil, fmt.Errorf("chapters %d and %d both map to %q", otherID, ch.ID, filepath.Base(p))
		}
		seen[p] = ch.ID
		plan = append(plan, Descriptor{Chapter: ch, Path: p})
	}
	return plan, nil
}

func (o *Orchestrator) removeStaleTemp(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			o.log.Warn("removing stale temp file %s: %v", p, err)
			continue
		}
		o.log.Debug("removed stale temp file %s", p)
	}
}

type bookInfo struct {
	domain.Book
	Chapters []domain.Chapter `json:"chapters"`
	SavedAt  time.Time        `json:"savedAt"`
}

// writeBookInfo drops the metadata sidecar next to the audio files. Failures
// are logged and do not touch the run.
func (o *Orchestrator) writeBookInfo(dir string, book domain.Book, plan []Descriptor) {
	chapters := make([]domain.Chapter, len(plan))
	for i, d := range plan {
		chapters[i] = d.Chapter
	}
	data, err := json.MarshalIndent(bookInfo{Book: book, Chapters: chapters, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		o.log.Warn("encoding %s: %v", bookInfoName, err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, bookInfoName), data, 0644); err != nil {
		o.log.Warn("writing %s: %v", bookInfoName, err)
	}
}

// fetchCover downloads the cover unless one is already on disk.
func (o *Orchestrator) fetchCover(ctx context.Context, dir, coverURL string) {
	for _, name := range naming.CoverCandidates() {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return
		}
	}
	dest := filepath.Join(dir, naming.CoverFileName(coverURL))
	if err := o.transfer.Fetch(ctx, coverURL, dest, nil); err != nil {
		o.log.Warn("cover download failed: %v", err)
	}
}
