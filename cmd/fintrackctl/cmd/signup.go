package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
)

var (
	signupName     string
	signupEmail    string
	signupPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a user",
	Long: `Create a user in the configured ledger. The memory backend forgets
the user when the command exits, so this is only useful with sqlite.

Example:
  fintrackctl signup --name asha --email asha@example.com --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DataBackend != "sqlite" {
			logger.Warn("Creating a user in a non-persistent backend", "backend", cfg.DataBackend)
		}

		app, err := cli.BuildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		svc := auth.NewService(app.Backend.Store, cache.NewLRUCache[auth.Session](1, time.Minute), nil, logger)
		msg, err := svc.Signup(cmd.Context(), signupName, signupEmail, signupPassword)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupName, "name", "", "user name (required)")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "email address (required)")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "password (required)")

	signupCmd.MarkFlagRequired("name")
	signupCmd.MarkFlagRequired("email")
	signupCmd.MarkFlagRequired("password")
}
