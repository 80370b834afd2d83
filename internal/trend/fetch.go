package trend

import (
	"context"
	"encoding/json"
	"fmt"

	"lbtrend/internal/assert"
	"lbtrend/internal/components/telemetry"
)

const (
	report_hierarchy_list_local_bodies = "hierarchy.list-local-bodies"
	report_hierarchy_list_wards        = "hierarchy.list-wards"
	report_hierarchy_list_candidates   = "hierarchy.list-candidates"
)

// PayloadFetcher is anything that can post a form and return the upstream
// payload, *Client is the production implementation.
type PayloadFetcher interface {
	Fetch(ctx context.Context, endpoint string, form map[string]string) (json.RawMessage, error)
}

// Hierarchy lists the levels of the upstream hierarchy. Every method degrades
// to an empty list on failure, failures are reported and never returned.
type Hierarchy struct {
	fetcher PayloadFetcher
	tel     telemetry.API
}

func NewHierarchy(fetcher PayloadFetcher, tel telemetry.API) *Hierarchy {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	return &Hierarchy{
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("trend", tel),
	}
}

// rows fetches and splits a payload into rows, rows shorter than minLen are
// dropped with a warning. The fetcher owns reporting fetch errors.
func (h *Hierarchy) rows(ctx context.Context, reportId, endpoint string, form map[string]string, minLen int) []row {
	payload, err := h.fetcher.Fetch(ctx, endpoint, form)
	if err != nil || isEmptyPayload(payload) {
		return nil
	}

	var rows []row
	err = json.Unmarshal(payload, &rows)
	if err != nil {
		h.tel.ReportBroken(
			reportId,
			fmt.Errorf("%w: %w", ErrMalformedPayload, err),
			form,
		)
		return nil
	}

	out := make([]row, 0, len(rows))
	for i, r := range rows {
		if len(r) < minLen {
			h.tel.ReportWarning(
				reportId,
				fmt.Errorf("%w: row %d has %d fields, expected at least %d", ErrMalformedPayload, i, len(r), minLen),
				form,
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

// ListLocalBodies lists the local bodies of a region, typeChar is remapped
// with RequestTypeFor before it is sent.
func (h *Hierarchy) ListLocalBodies(ctx context.Context, regionCode, typeChar string) []LocalBody {
	form := map[string]string{
		"_p": "dv",
		"_l": RequestTypeFor(typeChar),
		"_d": regionCode,
		"_s": "L",
	}
	rows := h.rows(ctx, report_hierarchy_list_local_bodies, stateViewEndpoint, form, localBodyRowLen)

	out := make([]LocalBody, len(rows))
	for i, r := range rows {
		out[i] = localBodyFromRow(r)
	}
	return out
}

// ListWards lists the wards of a local body. Rows long enough to carry the
// trend view's leader and rival get a non-nil Ward.Leader.
func (h *Hierarchy) ListWards(ctx context.Context, localBodyCode, typeParam string) []Ward {
	form := map[string]string{
		"_p": "wv",
		"_w": localBodyCode,
		"_t": typeParam,
		"_s": "L",
	}
	rows := h.rows(ctx, report_hierarchy_list_wards, localBodyEndpoint, form, detailedWardRowLen)

	out := make([]Ward, len(rows))
	for i, r := range rows {
		out[i] = wardFromRow(r)
	}
	return out
}

func (h *Hierarchy) ListCandidates(ctx context.Context, wardCode, typeParam string) []Candidate {
	form := map[string]string{
		"_p": "can",
		"_w": wardCode,
		"_t": typeParam,
		"_s": "L",
	}
	rows := h.rows(ctx, report_hierarchy_list_candidates, localBodyEndpoint, form, candidateRowLen)

	out := make([]Candidate, len(rows))
	for i, r := range rows {
		out[i] = candidateFromRow(r)
	}
	return out
}
