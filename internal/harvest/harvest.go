// Package harvest wires enumeration, the worker pool and a sink into a
// single run.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lbtrend/internal/assert"
	"lbtrend/internal/components/chrono"
	"lbtrend/internal/components/telemetry"
	"lbtrend/internal/scheduler"
	"lbtrend/internal/sink"
	"lbtrend/internal/trend"
)

const (
	report_harvest_append = "harvest.append"
)

type Options struct {
	Regions      []trend.Region
	RequestTypes []string
	Pool         scheduler.Options
	// WardDelay is only used by Detailed.
	WardDelay time.Duration
}

type Deps struct {
	Hierarchy *trend.Hierarchy
	Tel       telemetry.API
	Clock     chrono.API
}

func (d Deps) check() {
	assert.NotNil(d.Hierarchy)
	assert.NotNil(d.Tel)
	assert.NotNil(d.Clock)
}

// Summary runs the trend view harvest, one row per ward.
func Summary(ctx context.Context, deps Deps, opts Options, out sink.Sink[trend.SummaryRow]) (Report, error) {
	deps.check()
	return run[trend.SummaryRow](ctx, "summary", deps, opts, trend.SummaryProcessor(deps.Hierarchy), out)
}

// Detailed runs the candidate table harvest, one row per candidate.
func Detailed(ctx context.Context, deps Deps, opts Options, out sink.Sink[trend.DetailedRow]) (Report, error) {
	deps.check()
	return run[trend.DetailedRow](ctx, "detailed", deps, opts, trend.DetailedProcessor(deps.Hierarchy, opts.WardDelay), out)
}

// run streams each completed unit's rows into `out` as soon as it arrives.
// Unit failures only show up in the report, the returned error is set when
// the sink rejected a batch.
func run[R any](
	ctx context.Context,
	mode string,
	deps Deps,
	opts Options,
	process scheduler.ProcessFunc[trend.Unit, R],
	out sink.Sink[R],
) (Report, error) {
	tel := telemetry.NewScopedAPI("harvest", deps.Tel)
	report := newReport(mode, opts.Regions, deps.Clock.Now())

	slog.Info("fetching local body lists", "mode", mode, "districts", len(opts.Regions))
	units := trend.Enumerate(ctx, deps.Hierarchy, opts.Regions, opts.RequestTypes)
	report.Units = len(units)
	slog.Info("total local bodies to scrape", "count", len(units), "workers", opts.Pool.Workers)

	pool := scheduler.NewPool[trend.Unit, R](opts.Pool, process, deps.Tel)

	var errs []error
	for res := range pool.Run(ctx, units) {
		report.Completed++
		if res.Err != nil {
			report.Failed++
			continue
		}
		if len(res.Rows) == 0 {
			continue
		}
		err := out.Append(res.Rows)
		if err != nil {
			err = fmt.Errorf("%s: %w", res.Unit.String(), err)
			tel.ReportBroken(report_harvest_append, err, len(res.Rows))
			errs = append(errs, err)
			continue
		}
		report.addRows(res.Unit.Region.Name, len(res.Rows))
	}

	report.Duration = deps.Clock.Now().Sub(report.Started)
	report.Interrupted = ctx.Err() != nil
	tel.ReportCount("rows", int64(report.Rows))

	slog.Info(
		"scraping completed",
		"mode", mode,
		"duration", report.Duration.Round(10*time.Millisecond).String(),
		"units", report.Units,
		"failed", report.Failed,
		"rows", report.Rows,
	)
	return report, errors.Join(errs...)
}
