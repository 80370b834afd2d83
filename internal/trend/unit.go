package trend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lbtrend/internal/assert"
)

const (
	report_enumerate         = "enumerate"
	report_unit_summary_ward = "unit.summary-ward"
)

// Enumerate lists the local bodies of every (region, request type) pair and
// returns them as units in enumeration order. It stops early when ctx is
// done. Every region needs a code and a name.
func Enumerate(ctx context.Context, h *Hierarchy, regions []Region, requestTypes []string) []Unit {
	var units []Unit
	for _, region := range regions {
		assert.NotEmptyStr(region.Code, "region code")
		assert.NotEmptyStr(region.Name, "region name")
		slog.Info("listing local bodies", "district", region.Name)
		for _, reqType := range requestTypes {
			if ctx.Err() != nil {
				h.tel.ReportWarning(report_enumerate, ctx.Err(), len(units))
				return units
			}
			bodies := h.ListLocalBodies(ctx, region.Code, reqType)
			slog.Info(
				"local bodies found",
				"district", region.Name,
				"type", reqType,
				"count", len(bodies),
			)
			for _, lb := range bodies {
				units = append(units, Unit{
					Region:      region,
					RequestType: reqType,
					LocalBody:   lb,
				})
			}
		}
	}
	return units
}

// SummaryProcessor returns the unit processor for the trend view, one
// request per unit.
func SummaryProcessor(h *Hierarchy) func(ctx context.Context, unit Unit) ([]SummaryRow, error) {
	return func(ctx context.Context, unit Unit) ([]SummaryRow, error) {
		wards := h.ListWards(ctx, unit.LocalBody.Code, unit.RequestType)
		for _, w := range wards {
			if w.Leader == nil {
				h.tel.ReportWarning(
					report_unit_summary_ward,
					fmt.Errorf("%w: ward %s has no leader", ErrMalformedPayload, w.Code),
					unit.String(),
				)
			}
		}
		return SummaryRows(unit, wards), nil
	}
}

// DetailedProcessor returns the unit processor for the candidate table, it
// lists the candidates of every ward waiting `wardDelay` after each one.
func DetailedProcessor(h *Hierarchy, wardDelay time.Duration) func(ctx context.Context, unit Unit) ([]DetailedRow, error) {
	return func(ctx context.Context, unit Unit) ([]DetailedRow, error) {
		var rows []DetailedRow
		for _, w := range h.ListWards(ctx, unit.LocalBody.Code, unit.RequestType) {
			candidates := h.ListCandidates(ctx, w.Code, unit.RequestType)
			rows = append(rows, DetailedRows(unit, w, candidates)...)

			if wardDelay <= 0 {
				continue
			}
			timer := time.NewTimer(wardDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}
		return rows, nil
	}
}
