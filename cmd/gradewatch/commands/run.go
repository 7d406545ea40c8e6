package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"gradewatch/internal/app"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/handler"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

// newHandler creates a handler that reloads the config on every invocation
// so changes to the environment or config file are picked up between runs.
func newHandler(tel telemetry.API) handler.Handler {
	opts := appOptions()
	return handler.New(func(ctx context.Context) error {
		return app.RunOnce(ctx, configFile, opts, tel)
	}, tel)
}

var runCmd = &cobra.Command{
	Use:   "run [--dry-run]",
	Short: "Checks the portal once, saves what changed and emails a report.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tel := newTelemetry()
		res := newHandler(tel).Handle(cmd.Context(), nil)

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if res.StatusCode == http.StatusOK {
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString(string(out)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.RedString(string(out)))
		return exitError{code: 1}
	},
}
