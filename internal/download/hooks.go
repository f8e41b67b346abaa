package download

import "github.com/s00d/author-today-cli/internal/domain"

// ProgressSample is one point-in-time measurement of a chapter transfer.
// Total is 0 when the source did not declare a length.
type ProgressSample struct {
	ChapterID int64
	Order     int
	Bytes     int64
	Total     int64
}

// Hooks observes a run from the side. Calls arrive from transfer goroutines
// and must return quickly; nothing in the run waits on an observer.
type Hooks interface {
	OnProgress(s ProgressSample)
	OnStateChange(ch domain.Chapter, state domain.ChapterState, err error)
}

// NopHooks discards every notification.
type NopHooks struct{}

func (NopHooks) OnProgress(ProgressSample)                                 {}
func (NopHooks) OnStateChange(domain.Chapter, domain.ChapterState, error) {}

// MultiHooks fans notifications out to several observers in order.
func MultiHooks(hooks ...Hooks) Hooks {
	return multiHooks(hooks)
}

type multiHooks []Hooks

func (m multiHooks) OnProgress(s ProgressSample) {
	for _, h := range m {
		h.OnProgress(s)
	}
}

func (m multiHooks) OnStateChange(ch domain.Chapter, state domain.ChapterState, err error) {
	for _, h := range m {
		h.OnStateChange(ch, state, err)
	}
}
