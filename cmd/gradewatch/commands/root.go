package commands

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/internal/app"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/config"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const restyDumpDir = ".dev/resty/gradewatch"

var (
	verbose    bool
	configFile string
	dryRun     bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs and dump every portal request to "+restyDumpDir+".")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "gradewatch.json5", "The config file to read, <name>.local.<ext> is merged on top of it.")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print reports instead of emailing them and never write to the grades table.")
}

var rootCmd = &cobra.Command{
	Use:           "gradewatch",
	Short:         "gradewatch watches the interage portal for new grades and emails what changed.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

// exitError ends the process with a status code without printing anything
// more, the command already reported what went wrong.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExecuteContext runs the cli and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
	return 1
}

func newTelemetry() telemetry.API {
	return telemetry.NewMeteredAPI(telemetry.SlogAPI{})
}

func appOptions() app.Options {
	opts := app.Options{DryRun: dryRun}
	if !verbose {
		return opts
	}
	output, err := telemetry.NewFilesystemOutput(restyDumpDir)
	if err != nil {
		slog.Warn("failed to create resty dump directory", "dir", restyDumpDir, "err", err.Error())
		return opts
	}
	opts.Output = output
	return opts
}

// loadConfig reads the config, offline commands pass strict=false to skip
// validating settings they do not need (like the portal credentials).
// Malformed values are always an error.
func loadConfig(strict bool) (config.Config, error) {
	if strict {
		return config.Load(configFile)
	}
	return config.Read(configFile)
}
