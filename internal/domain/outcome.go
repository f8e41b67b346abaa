package domain

type ChapterState string

const (
	ChapterPending    ChapterState = "pending"
	ChapterAttempting ChapterState = "attempting"
	ChapterCompleted  ChapterState = "completed"
	ChapterSkipped    ChapterState = "skipped_existing"
	ChapterFailed     ChapterState = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s ChapterState) IsTerminal() bool {
	switch s {
	case ChapterCompleted, ChapterSkipped, ChapterFailed:
		return true
	}
	return false
}

// Outcome is the terminal record for one chapter of a run.
type Outcome struct {
	Chapter  Chapter
	Path     string
	State    ChapterState
	Attempts int
	Err      error
}

// Summary aggregates the outcomes of one book run.
type Summary struct {
	Dir       string
	Outcomes  []Outcome
	Completed int
	Skipped   int
	Failed    int
}

// Summarize counts terminal states across outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.State {
		case ChapterCompleted:
			s.Completed++
		case ChapterSkipped:
			s.Skipped++
		case ChapterFailed:
			s.Failed++
		}
	}
	return s
}

// FailedChapters returns the outcomes that exhausted their retry budget,
// preserving chapter identity and the final error.
func (s Summary) FailedChapters() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.State == ChapterFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
