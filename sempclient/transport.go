package sempclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
)

const (
	DefaultRetryDelay     = 5 * time.Second
	DefaultRetryAttempts  = 3
	DefaultPollInterval   = 5 * time.Second
	DefaultTimeoutMinutes = 10
)

// Options tune retries, polling and instrumentation of a client.
type Options struct {
	// Fixed delay between two attempts of a transiently failed request.
	RetryDelay time.Duration
	// Retries after the first attempt. 0 disables retries.
	RetryAttempts int
	// Interval between two polls of a Solace Cloud job.
	PollInterval time.Duration
	// Solace Cloud jobs not finished after this many minutes fail.
	TimeoutMinutes int
	Clock          clock.Clock
	Metrics        *Metrics
	// Logger for the retry layer. Request round trips are logged with the
	// logger of the request context.
	Logger logr.Logger
	// Replaces the Solace Cloud api url derived from solace_cloud_home.
	CloudBaseURL string
}

func DefaultOptions() Options {
	return Options{
		RetryDelay:     DefaultRetryDelay,
		RetryAttempts:  DefaultRetryAttempts,
		PollInterval:   DefaultPollInterval,
		TimeoutMinutes: DefaultTimeoutMinutes,
		Clock:          clock.RealClock{},
		Logger:         logr.Discard(),
	}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.TimeoutMinutes <= 0 {
		o.TimeoutMinutes = DefaultTimeoutMinutes
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	return o
}

// pollRetries converts the job timeout into a number of polls.
func (o Options) pollRetries() int {
	n := int(time.Duration(o.TimeoutMinutes) * time.Minute / o.PollInterval)
	if n < 1 {
		return 1
	}
	return n
}

type opKey struct{}

type basicAuth struct {
	username string
	password string
}

type request struct {
	api         string
	op          string
	method      string
	url         string
	body        []byte
	contentType string
	header      http.Header
	auth        *basicAuth
}

type response struct {
	statusCode int
	status     string
	body       []byte
	// masked request headers, kept for error reports
	requestHeader map[string]string
}

func (r *response) ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

type transport struct {
	http       *retryablehttp.Client
	metrics    *Metrics
	clock      clock.Clock
	retryDelay time.Duration
}

// newTransport builds a retrying http client. wrap may decorate the pooled
// transport, e.g. to add bearer authentication.
func newTransport(timeout time.Duration, tlsCfg *tls.Config, opts Options, wrap func(http.RoundTripper) http.RoundTripper) *transport {
	base := cleanhttp.DefaultPooledTransport()
	if tlsCfg != nil {
		base.TLSClientConfig = tlsCfg
	}
	var rt http.RoundTripper = base
	if wrap != nil {
		rt = wrap(base)
	}

	c := retryablehttp.NewClient()
	c.HTTPClient = &http.Client{Transport: rt, Timeout: timeout}
	c.RetryMax = opts.RetryAttempts
	// the delay is spent in PrepareRetry, on opts.Clock
	c.RetryWaitMin = 0
	c.RetryWaitMax = 0
	c.Backoff = noBackoff
	c.CheckRetry = checkRetry
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{log: opts.Logger.WithName("retry")}

	t := &transport{http: c, metrics: opts.Metrics, clock: opts.Clock, retryDelay: opts.RetryDelay}
	c.PrepareRetry = t.waitRetry
	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt == 0 {
			return
		}
		r, _ := req.Context().Value(opKey{}).(request)
		t.metrics.observeRetry(r.api, r.op)
	}
	return t
}

func (t *transport) do(ctx context.Context, r request) (*response, error) {
	log := ctrl.LoggerFrom(ctx)
	module := ModuleFrom(ctx)

	var body interface{}
	if r.body != nil {
		body = r.body
	}
	req, err := retryablehttp.NewRequestWithContext(context.WithValue(ctx, opKey{}, r), r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("unable to create request %s %s: %w", r.method, r.url, err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.auth != nil {
		req.SetBasicAuth(r.auth.username, r.auth.password)
	}
	masked := maskHeaders(req.Header)

	resp, err := t.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.metrics.observeRequest(r.api, r.op, 0)
		log.V(1).Info("request failed", "module", module, "op", r.op, "method", r.method, "url", r.url, "error", err.Error())
		return nil, &NetworkError{Module: module, Op: r.op, Method: r.method, URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.metrics.observeRequest(r.api, r.op, 0)
		return nil, &NetworkError{Module: module, Op: r.op, Method: r.method, URL: r.url, Err: fmt.Errorf("unable to read response body: %w", err)}
	}
	t.metrics.observeRequest(r.api, r.op, resp.StatusCode)

	if log.V(1).Enabled() {
		log.V(1).Info("http round trip",
			"module", module,
			"op", r.op,
			"request", map[string]interface{}{
				"method":  r.method,
				"url":     r.url,
				"headers": masked,
				"body":    loggableBody(r.body),
			},
			"response", map[string]interface{}{
				"status": resp.Status,
				"body":   loggableBody(data),
			})
	}

	return &response{
		statusCode:    resp.StatusCode,
		status:        http.StatusText(resp.StatusCode),
		body:          data,
		requestHeader: masked,
	}, nil
}

func (t *transport) apiError(ctx context.Context, r request, resp *response) *ApiError {
	return &ApiError{
		Module:     ModuleFrom(ctx),
		Op:         r.op,
		Method:     r.method,
		URL:        r.url,
		StatusCode: resp.statusCode,
		Reason:     resp.status,
		Body:       parseBody(resp.body),
		Headers:    resp.requestHeader,
	}
}

func loggableBody(b []byte) interface{} {
	v := parseBody(b)
	if v == nil {
		return "{}"
	}
	return v
}

func noBackoff(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return 0
}

// waitRetry sleeps the fixed retry delay before the next attempt of req.
func (t *transport) waitRetry(req *http.Request) error {
	if err := req.Context().Err(); err != nil {
		return err
	}
	t.clock.Sleep(t.retryDelay)
	return req.Context().Err()
}

// checkRetry retries 502, 504, a busy broker answering 500, and network
// errors other than TLS failures.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		if isTLSError(err) {
			return false, err
		}
		return true, nil
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return true, nil
	case http.StatusInternalServerError:
		return isBusy(resp), nil
	}
	return false, nil
}

var busySignatures = []string{"busy", "unavailable"}

// isBusy looks for a busy signature in meta.error of a SEMP v2 error body.
// The body is restored for the caller.
func isBusy(resp *http.Response) bool {
	if resp.Body == nil {
		return false
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return false
	}
	var body struct {
		Meta struct {
			Error struct {
				Status      string `json:"status"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return false
	}
	text := strings.ToLower(body.Meta.Error.Status + " " + body.Meta.Error.Description)
	for _, s := range busySignatures {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// leveledLogger lets retryablehttp log through logr.
type leveledLogger struct {
	log logr.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}
