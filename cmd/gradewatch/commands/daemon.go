package commands

import (
	"context"
	"gradewatch/internal/app"
	"gradewatch/internal/components/chrono"
	"gradewatch/internal/components/telemetry"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

var (
	daemonSchedule string
	daemonNow      bool
)

func init() {
	daemonCmd.Flags().StringVar(&daemonSchedule, "schedule", "", "A cron expression, defaults to the schedule in the config file.")
	daemonCmd.Flags().BoolVar(&daemonNow, "now", false, "Run once immediately instead of waiting for the first tick.")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--schedule <cron>] [--now]",
	Short: "Checks the portal on a schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		clock, err := app.NewClock(cfg)
		if err != nil {
			return err
		}
		schedule := daemonSchedule
		if schedule == "" {
			schedule = cfg.Schedule
		}

		tel := newTelemetry()
		telemetry.InstrumentPerfStats(ctx, tel, telemetry.DefaultPerfStatsInterval)

		h := newHandler(tel)
		runner := &exclusiveRunner{fn: func() {
			res := h.Handle(ctx, nil)
			if res.StatusCode != http.StatusOK {
				slog.Warn("run failed", "status", res.StatusCode, "body", res.Body)
				return
			}
			slog.Info("run finished", "body", res.Body)
		}}
		invoke := func() {
			if !runner.Run() {
				slog.Warn("skipping run, the previous one is still running")
			}
		}

		cron := chrono.NewStandardCron(clock, tel)
		err = cron.Cron(schedule, invoke)
		if err != nil {
			return err
		}
		slog.Info("scheduled runs", "schedule", schedule, "timezone", clock.Location().String())

		immediate := make(chan struct{})
		if daemonNow {
			go func() {
				defer close(immediate)
				invoke()
			}()
		} else {
			close(immediate)
		}

		<-ctx.Done()
		slog.Info("stopping, waiting for the current run to finish...")

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		cron.Stop(stopCtx)
		select {
		case <-immediate:
		case <-stopCtx.Done():
		}
		return nil
	},
}

// exclusiveRunner runs fn unless a previous call is still running, it is
// shared by scheduled runs and the --now run.
type exclusiveRunner struct {
	mutex sync.Mutex
	fn    func()
}

// Run returns false without calling fn if another call holds the runner.
func (r *exclusiveRunner) Run() bool {
	if !r.mutex.TryLock() {
		return false
	}
	defer r.mutex.Unlock()
	r.fn()
	return true
}
