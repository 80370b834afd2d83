package telemetry

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPIPrefixesIds(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("trend", NewScopedAPI("inner", rec))

	scoped.ReportBroken("hierarchy.list-wards", "G01001")
	scoped.ReportCount("rows", 3)

	require.Equal(t, []Report{
		// the outer scope prefixes first, the inner one ends up in front
		{Level: "broken", Id: "inner: trend: hierarchy.list-wards", Params: []any{"G01001"}},
	}, rec.Reports("broken"))
	require.Equal(t, []any{int64(3)}, rec.Reports("count")[0].Params)
	require.Len(t, rec.Reports(""), 2)
	require.Len(t, rec.Broken("list-wards"), 1)
	require.Empty(t, rec.Broken("list-candidates"))
}

func TestInstrumentRestyReportsRetries(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rec := &Recorder{}
	client := resty.New().
		SetBaseURL(srv.URL).
		SetRetryCount(2).
		SetRetryWaitTime(time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Millisecond).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil || res.StatusCode() == http.StatusServiceUnavailable
		})
	InstrumentResty(client, rec)

	res, err := client.R().Get("/")
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())

	require.Len(t, rec.Reports("warning"), 1)
	requests := 0
	for _, rep := range rec.Reports("debug") {
		if rep.Id == report_resty_request {
			requests++
		}
	}
	require.Equal(t, 2, requests)
}
