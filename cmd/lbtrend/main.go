package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"lbtrend/cmd/lbtrend/commands"
	"lbtrend/lib/telemetry"
	"lbtrend/lib/util/serviceutil"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run returns instead of exiting so the telemetry flush always happens.
func run() error {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "lbtrend")
	if err != nil && !telemetry.IsNotConfigured(err) {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	if err == nil {
		telemetry.InstrumentPerfStats(ctx, 5*time.Second)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	return commands.ExecuteContext(ctx)
}
