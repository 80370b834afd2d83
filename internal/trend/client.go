package trend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lbtrend/internal/assert"
	"lbtrend/internal/components/telemetry"
	"lbtrend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("lbtrend/internal/trend")

const (
	report_client_fetch = "client.fetch"
)

var (
	// ErrTransient is returned when a retryable failure (network error,
	// timeout, 429 or 5xx) persisted through every retry.
	ErrTransient = errors.New("transient failure")
	// ErrPermanentStatus is returned on a non-retryable error status.
	ErrPermanentStatus = errors.New("permanent http status")
	// ErrMalformedPayload is returned when the response or payload does not
	// have the expected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)

type ClientOptions struct {
	BaseUrl    string
	MaxRetries int
	// Timeout applies to every attempt, not the whole call.
	Timeout      time.Duration
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	// RequestsPerSecond caps the request rate shared by every caller,
	// 0 disables the cap.
	RequestsPerSecond float64
	// Dump, when set, records every response the client receives.
	Dump *restyutil.DirectoryDump
}

// Client posts forms to the upstream AJAX endpoints and returns their
// payload. It is safe to share between goroutines.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("trend", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("User-Agent", userAgent)
	httpClient.SetHeader("X-Requested-With", "XMLHttpRequest")

	httpClient.SetRetryCount(opts.MaxRetries)
	if opts.RetryWait > 0 {
		httpClient.SetRetryWaitTime(opts.RetryWait)
	}
	if opts.RetryMaxWait > 0 {
		httpClient.SetRetryMaxWaitTime(opts.RetryMaxWait)
	}
	// a condition returning false overrides resty's default of retrying on
	// errors, so network errors have to be checked here too
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res != nil && retryableStatus(res.StatusCode())
	})

	if opts.RequestsPerSecond > 0 {
		// burst >= 1 just means that no requests will be dropped
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	if opts.Dump != nil {
		opts.Dump.Attach(httpClient)
	}

	return &Client{http: httpClient, tel: tel}
}

type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

// Fetch posts `form` to `endpoint` (relative to the base url) and returns the
// raw `payload` field of the response. A missing or null payload is not an
// error, it returns (nil, nil).
//
// Every failure is reported before it is returned, callers only need to
// decide what an error degrades to.
func (c *Client) Fetch(ctx context.Context, endpoint string, form map[string]string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("form._p", form["_p"]),
	))
	defer span.End()

	fail := func(err error) (json.RawMessage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch, err, endpoint, form)
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(endpoint)
	if err != nil {
		return fail(fmt.Errorf("%w: post %s: %w", ErrTransient, endpoint, err))
	}

	status := res.StatusCode()
	if res.IsError() {
		if retryableStatus(status) {
			return fail(fmt.Errorf(
				"%w: post %s: status %d after %d attempts",
				ErrTransient, endpoint, status, res.Request.Attempt,
			))
		}
		return fail(fmt.Errorf("%w: post %s: status %d", ErrPermanentStatus, endpoint, status))
	}

	var body envelope
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		return fail(fmt.Errorf("%w: decode response of %s: %w", ErrMalformedPayload, endpoint, err))
	}
	if isEmptyPayload(body.Payload) {
		return nil, nil
	}
	return body.Payload, nil
}

func isEmptyPayload(payload json.RawMessage) bool {
	return len(payload) == 0 || string(payload) == "null"
}
