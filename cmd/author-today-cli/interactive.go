package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// runInteractive is the default mode on a terminal: list the purchased
// audiobooks and let the user pick one by number until they quit.
func runInteractive(cmd *cobra.Command) error {
	app, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	books, err := loadLibrary(ctx, app, false)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(out, "No audiobooks in the library.")
		return nil
	}

	opts := optionsFromConfig(app.cfg)
	reader := bufio.NewReader(cmd.InOrStdin())

	for {
		fmt.Fprintln(out)
		for i, b := range books {
			fmt.Fprintf(out, "%3d. %s — %s (%d chapters)\n", i+1, b.Author, b.Title, b.ChapterCount)
		}
		fmt.Fprint(out, "\nBook number to download (q to quit): ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		answer := strings.TrimSpace(line)
		switch strings.ToLower(answer) {
		case "q", "quit", "exit":
			return nil
		case "":
			continue
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(books) {
			fmt.Fprintf(out, "Pick a number between 1 and %d.\n", len(books))
			continue
		}

		if err := downloadBook(cmd, app, books[n-1].WorkID, opts, app.cfg.UI.Progress); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
