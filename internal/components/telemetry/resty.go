package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
	report_resty_retry    = "resty.retry"
)

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

// InstrumentResty reports every attempt made by the client, annotates the
// span carried by the request context and warns on every retry.
func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
	client.AddRetryHook(i.onRetry)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL, req.Attempt)

	req.SetContext(ctx)
	return nil
}

func elapsed(ctx context.Context) (uint64, time.Duration) {
	rc, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		return 0, 0
	}
	return rc.id, time.Since(rc.startTime)
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	id, duration := elapsed(ctx)

	span := trace.SpanFromContext(ctx)
	span.AddEvent("http response", trace.WithAttributes(
		attribute.Int("http.status_code", res.StatusCode()),
		attribute.Int("http.attempt", res.Request.Attempt),
		attribute.Int64("http.duration_ms", duration.Milliseconds()),
	))

	i.tel.ReportDebug(
		report_resty_response,
		id,
		duration.String(),
		res.Status(),
	)
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	_, duration := elapsed(req.Context())
	// the caller owns reporting the failure, this only traces the attempt
	i.tel.ReportDebug(
		report_resty_response,
		err,
		req.Method,
		req.URL,
		duration,
	)
}

func (i instrumentResty) onRetry(res *resty.Response, err error) {
	if res == nil || res.Request == nil {
		i.tel.ReportWarning(report_resty_retry, err)
		return
	}
	i.tel.ReportWarning(
		report_resty_retry,
		res.Request.URL,
		res.Request.Attempt,
		res.Status(),
		err,
	)
}
