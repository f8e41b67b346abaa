package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/s00d/author-today-cli/internal/api"
	"github.com/s00d/author-today-cli/internal/queue"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with a background download queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if port == "" {
				port = app.cfg.Server.Port
			}

			manager := queue.NewManager(app.app, optionsFromConfig(app.cfg))
			go manager.Start(ctx)

			e := echo.New()
			api.RegisterRoutes(e, app.app, manager)

			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           e,
				ReadHeaderTimeout: 10 * time.Second,
			}

			app.log.Info("http api listening on %s", srv.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.Addr)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			// Stop taking requests first, then wait for the in-flight run
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.log.Warn("http shutdown: %v", err)
			}
			manager.Stop()

			app.log.Info("serve mode stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")
	return cmd
}
