package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s00d/author-today-cli/internal/authortoday"
	"github.com/s00d/author-today-cli/internal/infra/config"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Author.Today and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			reader := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Email: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password must not be empty")
			}

			sess, err := app.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := sess.Save(app.cfg.API.TokenFile); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}

			if sess.UserName != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.UserName)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			if err := authortoday.RemoveSession(cfg.API.TokenFile); err != nil {
				return fmt.Errorf("failed to remove session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session removed")
			return nil
		},
	}
}
