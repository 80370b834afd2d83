package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"lbtrend/internal/assert"
	"lbtrend/internal/components/telemetry"

	"github.com/cheggaaa/pb/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("lbtrend/internal/scheduler")

var meter = otel.Meter("lbtrend/internal/scheduler")
var unitsCompleted, _ = meter.Int64Counter("lbtrend.units.completed")
var unitsFailed, _ = meter.Int64Counter("lbtrend.units.failed")
var rowsEmitted, _ = meter.Int64Counter("lbtrend.rows.emitted")

const (
	report_pool_unit = "pool.unit"
)

// ErrUnit wraps every error (and recovered panic) a unit produced.
var ErrUnit = errors.New("unit failed")

// ProcessFunc turns a single unit into rows, rows must be in source order.
type ProcessFunc[U, R any] func(ctx context.Context, unit U) ([]R, error)

// Result is the outcome of a single unit. When Err is set Rows is always empty.
type Result[U, R any] struct {
	// Index is the position of the unit in the slice given to Run.
	Index int
	Unit  U
	Rows  []R
	Err   error
}

type Options struct {
	// Workers is the number of units processed at the same time.
	Workers int
	// ProgressEvery logs progress after every n completed units, 0 disables it.
	ProgressEvery int
	// ProgressBar renders a terminal progress bar on stderr.
	ProgressBar bool
}

type Pool[U fmt.Stringer, R any] struct {
	opts    Options
	process ProcessFunc[U, R]
	tel     telemetry.API
}

func NewPool[U fmt.Stringer, R any](opts Options, process ProcessFunc[U, R], tel telemetry.API) *Pool[U, R] {
	assert.NotNil(tel)
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pool[U, R]{
		opts:    opts,
		process: process,
		tel:     telemetry.NewScopedAPI("scheduler", tel),
	}
}

type queued[U any] struct {
	index int
	unit  U
}

// Run dispatches units to the workers in order and streams their results in
// completion order. The returned channel is closed once every dispatched unit
// is done, the caller must drain it.
//
// Cancelling ctx stops dispatching. Units already running see the cancelled
// ctx and finish on their own.
func (p *Pool[U, R]) Run(ctx context.Context, units []U) <-chan Result[U, R] {
	queue := make(chan queued[U])
	results := make(chan Result[U, R], p.opts.Workers)

	var bar *pb.ProgressBar
	if p.opts.ProgressBar {
		bar = pb.Full.Start(len(units))
	}

	var completed atomic.Int64
	total := len(units)

	var group errgroup.Group
	group.Go(func() error {
		defer close(queue)
		for i, u := range units {
			select {
			case queue <- queued[U]{index: i, unit: u}:
			case <-ctx.Done():
				slog.Warn("dispatch stopped", "dispatched", i, "total", total, "err", ctx.Err())
				return nil
			}
		}
		return nil
	})
	for w := 0; w < p.opts.Workers; w++ {
		group.Go(func() error {
			for item := range queue {
				res := p.runUnit(ctx, item.index, item.unit)
				results <- res

				done := completed.Add(1)
				if bar != nil {
					bar.Increment()
				}
				if p.opts.ProgressEvery > 0 && done%int64(p.opts.ProgressEvery) == 0 {
					slog.Info("progress", "processed", done, "total", total)
				}
			}
			return nil
		})
	}

	go func() {
		// workers never return an error
		_ = group.Wait()
		if bar != nil {
			bar.Finish()
		}
		close(results)
	}()

	return results
}

func (p *Pool[U, R]) runUnit(ctx context.Context, index int, unit U) Result[U, R] {
	ctx, span := tracer.Start(ctx, "unit", trace.WithAttributes(
		attribute.Int("unit.index", index),
		attribute.String("unit.name", unit.String()),
	))
	defer span.End()

	rows, err := p.safeProcess(ctx, unit)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrUnit, unit.String(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.tel.ReportBroken(report_pool_unit, err, index)
		unitsFailed.Add(ctx, 1)
		return Result[U, R]{Index: index, Unit: unit, Err: err}
	}

	unitsCompleted.Add(ctx, 1)
	rowsEmitted.Add(ctx, int64(len(rows)))
	span.SetAttributes(attribute.Int("unit.rows", len(rows)))
	return Result[U, R]{Index: index, Unit: unit, Rows: rows}
}

func (p *Pool[U, R]) safeProcess(ctx context.Context, unit U) (rows []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.process(ctx, unit)
}
