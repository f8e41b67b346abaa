package main

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/authortoday"
	"github.com/s00d/author-today-cli/internal/download"
	"github.com/s00d/author-today-cli/internal/infra/config"
	"github.com/s00d/author-today-cli/internal/infra/logger"
	"github.com/s00d/author-today-cli/internal/store"
)

// application bundles everything a command needs. Built per invocation from
// the resolved config.
type application struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *store.PersistentStore
	client *authortoday.Client
	app    *app.Context
}

func newApplication(cmd *cobra.Command) (*application, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if verbose {
		level = logger.LevelDebug
	}
	log, err := logger.New(cfg.Log.Path, level, cfg.Log.IncludeStdout)
	if err != nil {
		return nil, err
	}

	st, err := store.NewPersistentStore(cfg.Store.SQLitePath)
	if err != nil {
		log.Close()
		return nil, err
	}

	client := authortoday.New(cfg.API.BaseURL,
		authortoday.WithMinInterval(time.Duration(cfg.API.MinIntervalMS)*time.Millisecond),
		authortoday.WithLogger(log),
	)

	// Attach the saved session when present. Commands that need auth get a
	// clean ErrNotAuthenticated from the client otherwise.
	if sess, err := authortoday.LoadSession(cfg.API.TokenFile); err == nil {
		client.SetSession(sess)
	}

	appCtx := app.NewContext(cfg, log)
	appCtx.Catalog = client
	appCtx.Store = st
	appCtx.Runner = download.NewOrchestrator(client, download.NewTransferer(nil), log)

	return &application{cfg: cfg, log: log, store: st, client: client, app: appCtx}, nil
}

func (a *application) Close() {
	a.store.Close()
	a.log.Close()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "author-today-cli",
		Short: "Download your purchased Author.Today audiobooks",
		Long: `author-today-cli downloads the audiobooks you bought on Author.Today
for offline listening: chapters as numbered mp3 files, plus the cover
and a metadata sidecar, into one folder per book.

Run it without arguments on a terminal for the interactive picker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation on a terminal drops into the interactive picker
			if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
				return runInteractive(cmd)
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to the config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newLibraryCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newServeCmd())

	return root
}
