package progress

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/s00d/author-today-cli/internal/download"
)

// Reporter is a hooks implementation with a lifecycle. Stop flushes any
// pending rendering; it must be called after the run joins.
type Reporter interface {
	download.Hooks
	Stop()
}

type nop struct{ download.NopHooks }

func (nop) Stop() {}

// Nop returns a reporter that renders nothing.
func Nop() Reporter { return nop{} }

// New picks the reporter for the configured mode: "bars", "line", "none",
// or "auto" (bars on a terminal, the single line otherwise).
func New(ctx context.Context, mode string, out io.Writer, totalChapters int) Reporter {
	switch mode {
	case "none":
		return Nop()
	case "bars":
		return NewBars(ctx)
	case "line":
		return NewConsole(out, totalChapters)
	default:
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return NewBars(ctx)
		}
		return NewConsole(out, totalChapters)
	}
}
