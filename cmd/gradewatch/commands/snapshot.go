package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"gradewatch/internal/app"
	"gradewatch/internal/config"
	"gradewatch/internal/grades"
	"gradewatch/internal/snapshot"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspects the grades saved by previous runs.",
}

func openSnapshot() (snapshot.SqliteStore, *sql.DB, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return snapshot.SqliteStore{}, nil, err
	}
	if cfg.GradesTable == "" {
		return snapshot.SqliteStore{}, nil, config.ConfigurationError{Message: "GRADES_TABLE not set in environment."}
	}
	clock, err := app.NewClock(cfg)
	if err != nil {
		return snapshot.SqliteStore{}, nil, err
	}
	return app.OpenStore(cfg, clock, newTelemetry())
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every saved subject with its scores.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, database, err := openSnapshot()
		if err != nil {
			return err
		}
		defer database.Close()

		records, err := store.ReadAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No grades saved yet.")
			return nil
		}
		renderRecords(cmd.OutOrStdout(), records)
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <subject>",
	Short: "Shows the saved scores of a single subject.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, database, err := openSnapshot()
		if err != nil {
			return err
		}
		defer database.Close()

		record, ok, err := store.ReadOne(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ok {
			renderRecords(cmd.OutOrStdout(), []grades.Record{record})
			return nil
		}

		records, err := store.ReadAll(cmd.Context())
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("No saved grades for %q.", args[0])
		suggestions := suggestSubjects(args[0], records)
		if len(suggestions) > 0 {
			msg += fmt.Sprintf(" Did you mean: %s?", strings.Join(suggestions, ", "))
		}
		return errors.New(msg)
	},
}
