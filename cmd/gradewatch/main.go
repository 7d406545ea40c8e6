package main

import (
	"context"
	"gradewatch/cmd/gradewatch/commands"
	"gradewatch/internal/components/telemetry"
	"gradewatch/pkg/serviceutil"
	"log/slog"
	"os"
	"time"
)

func main() {
	telemetry.InitSlog(false)

	ctx, stop := serviceutil.SignalContext()
	t, err := telemetry.SetupFromEnv(ctx, "gradewatch")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err.Error())
	}

	code := commands.ExecuteContext(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = t.Shutdown(shutdownCtx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err.Error())
	}
	os.Exit(code)
}
