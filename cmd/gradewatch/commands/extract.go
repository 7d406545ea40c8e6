package commands

import (
	"fmt"
	"gradewatch/internal/scrapers/interage"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <grades.html>",
	Short: "Extracts grades from a saved grades page without contacting the portal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		html, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		extractor := interage.NewExtractor(interage.MatchersFromConfig(cfg.Portal.Markers), newTelemetry())
		records, err := extractor.Extract(html)
		if err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}

		renderRecords(cmd.OutOrStdout(), records)
		return nil
	},
}
