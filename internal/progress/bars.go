package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
)

// Placeholder total until the first sample tells us the real size. Bars
// with undeclared lengths keep it and just grow.
const barPlaceholderTotal = 100 * 1024 * 1024 * 1024

type chapterBar struct {
	bar      *mpb.Bar
	lastSize int64
	start    time.Time
}

// Bars renders one terminal bar per in-flight chapter.
type Bars struct {
	pc *mpb.Progress

	mu   sync.Mutex
	bars map[int64]*chapterBar
}

func NewBars(ctx context.Context) *Bars {
	return &Bars{
		pc:   mpb.NewWithContext(ctx, mpb.WithWidth(64)),
		bars: make(map[int64]*chapterBar),
	}
}

func (b *Bars) OnStateChange(ch domain.Chapter, state domain.ChapterState, _ error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch state {
	case domain.ChapterAttempting:
		if _, ok := b.bars[ch.ID]; ok {
			return
		}
		name := fmt.Sprintf("%03d %s", ch.Order, left(ch.Title, 24))
		bar := b.pc.AddBar(barPlaceholderTotal,
			mpb.BarWidth(12),
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			),
			mpb.AppendDecorators(
				decor.AverageSpeed(decor.UnitKB, " %.1f", decor.WC{W: 15, C: decor.DidentRight}),
			),
			mpb.BarRemoveOnComplete(),
		)
		bar.SetPriority(ch.Order)
		b.bars[ch.ID] = &chapterBar{bar: bar, start: time.Now()}

	case domain.ChapterCompleted:
		if cb, ok := b.bars[ch.ID]; ok {
			total := cb.lastSize
			if total == 0 {
				total = 1
			}
			cb.bar.SetTotal(total, true)
		}

	case domain.ChapterFailed:
		if cb, ok := b.bars[ch.ID]; ok {
			cb.bar.Abort(true)
		}
	}
}

func (b *Bars) OnProgress(s download.ProgressSample) {
	b.mu.Lock()
	cb, ok := b.bars[s.ChapterID]
	b.mu.Unlock()
	if !ok {
		return
	}

	if s.Total > 0 {
		cb.bar.SetTotal(s.Total, false)
	}
	cb.bar.IncrInt64(s.Bytes-cb.lastSize, time.Since(cb.start))
	cb.lastSize = s.Bytes
}

// Stop waits for every bar to finish rendering.
func (b *Bars) Stop() {
	b.pc.Wait()
}

func left(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
