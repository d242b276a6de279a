package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/storage"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
	Long: `Apply, roll back or inspect the embedded SQLite migrations at SQLITE_DB_PATH.

Example:
  fintrackctl migrate up
  fintrackctl migrate down --steps 1
  fintrackctl migrate version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RollbackMigrations(path, rollbackSteps); err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to undo")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func sqlitePath() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.SQLiteDBPath == "" {
		return "", errors.New("SQLITE_DB_PATH is empty")
	}
	return cfg.SQLiteDBPath, nil
}

func printVersion(cmd *cobra.Command, path string) error {
	version, dirty, err := storage.MigrationVersion(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, path)
	return nil
}
