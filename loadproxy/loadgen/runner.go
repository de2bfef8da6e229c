package loadgen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidConfig is returned when a Config cannot drive a run.
	ErrInvalidConfig = errors.New("invalid load generator config")

	errMissingTarget  = errors.New("target URL is required")
	errNoVUs          = errors.New("at least one virtual user is required")
	errNoQueries      = errors.New("at least one query is required")
	errUnbounded      = errors.New("either iterations or duration must be set")
	errNegativeBounds = errors.New("iterations, duration and pause must not be negative")
)

const (
	executePath = "/execute"

	defaultRequestTimeout = 2 * time.Minute

	logMsgRunStarted  = "load run started"
	logMsgRunFinished = "load run finished"
	logMsgSendFailed  = "request failed"

	logAttrVUs        = "vus"
	logAttrTarget     = "target"
	logAttrRequests   = "requests"
	logAttrFailed     = "failed"
	logAttrVuID       = "vu_id"
	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
)

// Config describes one load run.
type Config struct {
	Target     string        // base URL of the proxy, e.g. http://localhost:3000
	VUs        int           // virtual users, numbered 1..VUs like k6's __VU
	Iterations int           // requests per virtual user, 0 runs until Duration elapses
	Duration   time.Duration // wall-clock bound, 0 means no bound
	Pause      time.Duration // sleep between two requests of one virtual user
	Queries    []string      // virtual users rotate through these
}

// Option configures a Runner.
type Option func(*Runner) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Runner) error {
		if client != nil {
			r.client = client
		}

		return nil
	}
}

// WithProgress registers a callback invoked once per completed request.
func WithProgress(progress func()) Option {
	return func(r *Runner) error {
		r.progress = progress
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger loadproxy.Logger) Option {
	return func(r *Runner) error {
		r.logger = logger
		return nil
	}
}

// Runner executes a Config against a proxy.
type Runner struct {
	config   Config
	endpoint string
	client   *http.Client
	progress func()
	logger   loadproxy.Logger
}

type requestBody struct {
	Query string `json:"query"`
	VuID  int    `json:"vuID"`
}

type responseBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewRunner validates config and returns a Runner.
func NewRunner(config Config, options ...Option) (*Runner, error) {
	endpoint, err := validate(config)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	r := &Runner{
		config:   config,
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, option := range options {
		if err = option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func validate(config Config) (string, error) {
	if strings.TrimSpace(config.Target) == "" {
		return "", errMissingTarget
	}

	target, err := url.Parse(strings.TrimRight(config.Target, "/"))
	if err != nil {
		return "", err
	}

	if target.Scheme == "" || target.Host == "" {
		return "", errMissingTarget
	}

	switch {
	case config.VUs < 1:
		return "", errNoVUs
	case len(config.Queries) == 0:
		return "", errNoQueries
	case config.Iterations < 0 || config.Duration < 0 || config.Pause < 0:
		return "", errNegativeBounds
	case config.Iterations == 0 && config.Duration == 0:
		return "", errUnbounded
	}

	return target.String() + executePath, nil
}

// Total returns the number of requests the run will send, or 0 when only Duration bounds it.
func (r *Runner) Total() int {
	if r.config.Iterations == 0 {
		return 0
	}

	return r.config.VUs * r.config.Iterations
}

// Run starts all virtual users and blocks until they are done, ctx is cancelled,
// or the configured duration elapses. Requests cut off by the end of the run are not counted.
func (r *Runner) Run(ctx context.Context) Report {
	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	if r.logger != nil {
		r.logger.Info(logMsgRunStarted, logAttrVUs, r.config.VUs, logAttrTarget, r.endpoint)
	}

	results := newCollector()
	started := time.Now()

	var wg sync.WaitGroup
	for vu := 1; vu <= r.config.VUs; vu++ {
		wg.Add(1)
		go func(vuID int) {
			defer wg.Done()
			r.virtualUser(ctx, vuID, results)
		}(vu)
	}
	wg.Wait()

	report := results.report(time.Since(started))

	if r.logger != nil {
		r.logger.Info(logMsgRunFinished,
			logAttrRequests, report.Requests,
			logAttrFailed, report.Failed,
			logAttrDurationMS, toMilliseconds(report.Elapsed))
	}

	return report
}

func (r *Runner) virtualUser(ctx context.Context, vuID int, results *collector) {
	for i := 0; r.config.Iterations == 0 || i < r.config.Iterations; i++ {
		if ctx.Err() != nil {
			return
		}

		query := r.config.Queries[(vuID-1+i)%len(r.config.Queries)]

		s := r.send(ctx, vuID, query)
		if s.err != nil && ctx.Err() != nil {
			return
		}

		results.add(s)

		if r.progress != nil {
			r.progress()
		}

		if r.config.Pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.config.Pause):
			}
		}
	}
}

func (r *Runner) send(ctx context.Context, vuID int, query string) sample {
	payload, err := json.Marshal(requestBody{Query: query, VuID: vuID})
	if err != nil {
		return sample{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return sample{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := r.client.Do(req)
	if err != nil {
		r.logSendFailed(vuID, err)
		return sample{latency: time.Since(start), err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		return sample{latency: latency, status: resp.StatusCode, err: err}
	}

	var body responseBody
	if err = json.Unmarshal(raw, &body); err != nil {
		return sample{latency: latency, status: resp.StatusCode, err: err}
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		return sample{latency: latency, status: resp.StatusCode, err: errors.New(body.Error)}
	}

	return sample{latency: latency, status: resp.StatusCode}
}

func (r *Runner) logSendFailed(vuID int, err error) {
	if r.logger != nil {
		r.logger.Warn(logMsgSendFailed, logAttrVuID, vuID, logAttrError, err.Error())
	}
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Round(time.Microsecond)) / float64(time.Millisecond)
}
