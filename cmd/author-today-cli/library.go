package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s00d/author-today-cli/internal/domain"
)

func newLibraryCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List your purchased audiobooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			books, err := loadLibrary(cmd.Context(), app, refresh)
			if err != nil {
				return err
			}

			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No audiobooks in the library.")
				return nil
			}

			printLibrary(cmd.OutOrStdout(), books)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the library from the platform instead of the cache")
	return cmd
}

// loadLibrary serves books from the local cache and falls back to the
// platform when the cache is empty or a refresh is forced.
func loadLibrary(ctx context.Context, app *application, refresh bool) ([]domain.Book, error) {
	if !refresh {
		books, err := app.store.GetBooks(ctx)
		if err != nil {
			return nil, err
		}
		if len(books) > 0 {
			return books, nil
		}
	}

	books, err := app.client.Library(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return nil, fmt.Errorf("not logged in, run the login command first")
		}
		return nil, fmt.Errorf("failed to fetch library: %w", err)
	}

	if err := app.store.SaveBooks(ctx, books); err != nil {
		app.log.Warn("failed to cache library: %v", err)
	}
	return books, nil
}

func printLibrary(w io.Writer, books []domain.Book) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tTITLE\tCHAPTERS")
	for _, b := range books {
		title := b.Title
		if b.Series != "" {
			title = fmt.Sprintf("%s (%s #%d)", b.Title, b.Series, b.SeriesOrder)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", b.WorkID, b.Author, title, b.ChapterCount)
	}
	tw.Flush()
}
