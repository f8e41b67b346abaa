// Package progress renders transfer progress. Implementations receive hook
// calls from transfer goroutines and must never block them.
package progress

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
)

const renderInterval = 250 * time.Millisecond

// Console renders the whole run as a single rewritten terminal line:
// every in-flight chapter with its percentage (or byte count when the
// length is unknown) plus a done counter. Hook calls only update state;
// rendering happens on the reporter's own ticker goroutine.
type Console struct {
	out   io.Writer
	total int

	mu      sync.Mutex
	active  map[int64]download.ProgressSample
	done    int
	failed  int
	prevLen int

	ticker   *time.Ticker
	quit     chan struct{}
	stopOnce sync.Once
}

func NewConsole(out io.Writer, totalChapters int) *Console {
	c := &Console{
		out:    out,
		total:  totalChapters,
		active: make(map[int64]download.ProgressSample),
		ticker: time.NewTicker(renderInterval),
		quit:   make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Console) loop() {
	for {
		select {
		case <-c.ticker.C:
			c.render()
		case <-c.quit:
			return
		}
	}
}

// OnProgress keeps only the latest sample per chapter; last write wins.
func (c *Console) OnProgress(s download.ProgressSample) {
	c.mu.Lock()
	c.active[s.ChapterID] = s
	c.mu.Unlock()
}

func (c *Console) OnStateChange(ch domain.Chapter, state domain.ChapterState, _ error) {
	c.mu.Lock()
	switch state {
	case domain.ChapterCompleted, domain.ChapterSkipped:
		c.done++
		delete(c.active, ch.ID)
	case domain.ChapterFailed:
		c.failed++
		delete(c.active, ch.ID)
	}
	c.mu.Unlock()
}

// Stop renders the final state and moves the cursor to a fresh line. Safe
// to call more than once.
func (c *Console) Stop() {
	c.stopOnce.Do(func() {
		c.ticker.Stop()
		close(c.quit)
		c.render()
		fmt.Fprintln(c.out)
	})
}

func (c *Console) render() {
	c.mu.Lock()
	samples := make([]download.ProgressSample, 0, len(c.active))
	for _, s := range c.active {
		samples = append(samples, s)
	}
	done, failed := c.done, c.failed
	c.mu.Unlock()

	sort.Slice(samples, func(i, j int) bool { return samples[i].Order < samples[j].Order })

	parts := make([]string, 0, len(samples)+1)
	for _, s := range samples {
		if s.Total > 0 {
			parts = append(parts, fmt.Sprintf("%03d %3.0f%%", s.Order, float64(s.Bytes)*100/float64(s.Total)))
		} else {
			parts = append(parts, fmt.Sprintf("%03d %s", s.Order, formatBytes(s.Bytes)))
		}
	}

	status := fmt.Sprintf("done %d/%d", done, c.total)
	if failed > 0 {
		status += fmt.Sprintf(", failed %d", failed)
	}
	parts = append(parts, status)
	line := strings.Join(parts, " | ")

	c.mu.Lock()
	pad := c.prevLen - len(line)
	c.prevLen = len(line)
	c.mu.Unlock()
	if pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	fmt.Fprintf(c.out, "\r%s", line)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
