// Package cmd provides the fintrackctl commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	envFile string
	debug   bool

	logger = log.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "fintrackctl",
	Short: "Operate a fintrack installation from the terminal",
	Long: `fintrackctl talks to the fintrack ledger directly, without the HTTP API.

It supports:
- Chatting with the assistant in a terminal loop
- Creating users
- Applying and rolling back SQLite migrations

Example:
  fintrackctl chat --user-id 1
  fintrackctl signup --name asha --email asha@example.com --password secret
  fintrackctl migrate up`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			cli.LoadEnvFile(envFile)
		} else {
			cli.LoadEnvFile()
		}

		level := os.Getenv("LOG_LEVEL")
		if debug {
			level = "debug"
		}
		if level == "" {
			// Keep the terminal quiet unless asked.
			level = "warn"
		}
		logger = cli.SetupLogger(level)
	},
}

// Execute runs the root command. main calls it once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
