package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"lbtrend/internal/components/chrono"
	"lbtrend/internal/components/telemetry"
	"lbtrend/internal/harvest"
	"lbtrend/internal/sink"
	"lbtrend/internal/trend"
	"lbtrend/lib/restyutil"
	libtelemetry "lbtrend/lib/telemetry"

	"github.com/spf13/cobra"
)

// runHarvest runs a full harvest, only a run that cannot start (or a sink that
// stops accepting rows) is an error. Failed units are left to the report.
func runHarvest(cmd *cobra.Command, mode string) error {
	config, err := loadConfig(configPath, mode, outputPath)
	if err != nil {
		return err
	}
	libtelemetry.InitSlog(config.Debug)

	opts := config.clientOptions()
	if config.DumpDir != "" {
		dump, err := restyutil.NewDirectoryDump(config.DumpDir)
		if err != nil {
			return fmt.Errorf("create dump dir: %w", err)
		}
		opts.Dump = &dump
	}

	tel := telemetry.SlogAPI{}
	client := trend.NewClient(opts, tel)
	deps := harvest.Deps{
		Hierarchy: trend.NewHierarchy(client, tel),
		Tel:       tel,
		Clock:     chrono.NewStandardImpl(),
	}
	hopts := harvest.Options{
		Regions:      config.Regions,
		RequestTypes: config.RequestTypes,
		Pool:         config.poolOptions(),
		WardDelay:    config.wardDelay(),
	}

	slog.Info("starting harvest", "mode", config.Mode, "output", config.Output, "sink", config.Sink)

	ctx := cmd.Context()
	var report harvest.Report
	switch config.Mode {
	case modeDetailed:
		report, err = runWithSink[trend.DetailedRow](ctx, config, func(ctx context.Context, out sink.Sink[trend.DetailedRow]) (harvest.Report, error) {
			return harvest.Detailed(ctx, deps, hopts, out)
		})
	default:
		report, err = runWithSink[trend.SummaryRow](ctx, config, func(ctx context.Context, out sink.Sink[trend.SummaryRow]) (harvest.Report, error) {
			return harvest.Summary(ctx, deps, hopts, out)
		})
	}
	if report.Mode != "" {
		report.Render(os.Stdout)
	}
	return err
}

func openSink[R sink.Row](config Config) (sink.Sink[R], error) {
	if config.Sink == sinkSQLite {
		return sink.OpenSQLite[R](config.Output, config.SqliteTable)
	}
	return sink.OpenCSV[R](config.Output)
}

func runWithSink[R sink.Row](
	ctx context.Context,
	config Config,
	run func(ctx context.Context, out sink.Sink[R]) (harvest.Report, error),
) (harvest.Report, error) {
	out, err := openSink[R](config)
	if err != nil {
		return harvest.Report{}, err
	}

	report, err := run(ctx, out)
	cerr := out.Close()
	if err == nil {
		err = cerr
	}
	return report, err
}
