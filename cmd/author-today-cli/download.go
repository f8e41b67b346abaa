package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
	"github.com/s00d/author-today-cli/internal/infra/config"
	"github.com/s00d/author-today-cli/internal/progress"
)

func newDownloadCmd() *cobra.Command {
	var (
		all         bool
		outDir      string
		concurrency int
		retries     int
		noSkip      bool
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "download [work-id]...",
		Short: "Download audiobooks chapter by chapter",
		Long: `Downloads every chapter of the given books as numbered mp3 files into
one folder per book. Chapters already on disk are skipped, so an
interrupted download can simply be run again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass at least one work id or --all")
			}

			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var ids []int64
			if all {
				books, err := loadLibrary(cmd.Context(), app, false)
				if err != nil {
					return err
				}
				for _, b := range books {
					ids = append(ids, b.WorkID)
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audiobooks in the library.")
					return nil
				}
			} else {
				for _, arg := range args {
					id, err := strconv.ParseInt(arg, 10, 64)
					if err != nil || id <= 0 {
						return fmt.Errorf("invalid work id %q", arg)
					}
					ids = append(ids, id)
				}
			}

			opts := optionsFromConfig(app.cfg)
			if outDir != "" {
				opts.OutDir = outDir
			}
			if concurrency > 0 {
				opts.Concurrency = concurrency
			}
			if retries > 0 {
				opts.MaxAttempts = retries
			}
			if noSkip {
				opts.SkipExisting = false
			}

			mode := app.cfg.UI.Progress
			if quiet {
				mode = "none"
			}

			for _, workID := range ids {
				if err := downloadBook(cmd, app, workID, opts, mode); err != nil {
					return err
				}
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "download every audiobook in the library")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel chapter downloads")
	cmd.Flags().IntVar(&retries, "retries", 0, "attempts per chapter")
	cmd.Flags().BoolVar(&noSkip, "no-skip-existing", false, "re-download chapters that already exist on disk")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")
	return cmd
}

func optionsFromConfig(cfg *config.Config) download.Options {
	return download.Options{
		OutDir:         cfg.Download.OutDir,
		FolderTemplate: cfg.Download.FolderTemplate,
		Concurrency:    cfg.Download.Concurrency,
		MaxAttempts:    cfg.Download.MaxAttempts,
		SkipExisting:   cfg.Download.SkipExisting,
		WriteBookInfo:  cfg.Download.WriteBookInfo,
		FetchCover:     cfg.Download.FetchCover,
	}
}

// downloadBook runs the whole pipeline for one work: details, chapter
// transfers, history record, summary print. Chapter failures are part of the
// summary; only fatal errors come back as an error.
func downloadBook(cmd *cobra.Command, app *application, workID int64, opts download.Options, mode string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	book, chapters, err := app.client.BookDetails(ctx, workID)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return fmt.Errorf("not logged in, run the login command first")
		}
		return fmt.Errorf("failed to fetch book %d: %w", workID, err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("book %d has no audio chapters", workID)
	}

	fmt.Fprintf(out, "%s — %s (%d chapters)\n", book.Author, book.Title, len(chapters))

	reporter := progress.New(ctx, mode, out, len(chapters))
	opts.Hooks = reporter

	summary, err := app.app.Runner.Run(ctx, book, chapters, opts)
	reporter.Stop()
	if err != nil {
		return fmt.Errorf("download of %q failed: %w", book.Title, err)
	}

	if err := app.store.RecordRun(ctx, workID, summary); err != nil {
		app.log.Warn("failed to record outcomes for work %d: %v", workID, err)
	}

	printSummary(out, book, summary)
	return nil
}

func printSummary(w io.Writer, book domain.Book, s domain.Summary) {
	fmt.Fprintf(w, "%s: %d completed, %d skipped, %d failed -> %s\n",
		book.Title, s.Completed, s.Skipped, s.Failed, s.Dir)
	for _, o := range s.FailedChapters() {
		fmt.Fprintf(w, "  chapter %03d %q: %v\n", o.Chapter.Order, o.Chapter.Title, o.Err)
	}
}
