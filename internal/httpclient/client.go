// Package httpclient is the outbound JSON client used for every ERP call.
//
// Each attempt waits on a shared min-interval limiter. Retryable statuses and
// transport failures are retried with exponential backoff for every method,
// honouring Retry-After.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"lxsync/internal/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultRetryStatuses are the statuses retried when Config leaves them unset.
var DefaultRetryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config configures the client.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	RetryStatuses []int

	// MinInterval is the floor between the start of two attempts. Zero disables it.
	MinInterval time.Duration

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper

	Metrics *metrics.Metrics
}

// Request is one logical call. Query is appended to URL. At most one of JSON
// and Form may be set.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	JSON    any
	Form    url.Values
}

// Client is a rate-limited, retry-capable JSON client. It is safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a client. Zero-valued tunables fall back to the defaults the
// job has always used.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	if len(cfg.RetryStatuses) == 0 {
		cfg.RetryStatuses = DefaultRetryStatuses
	}

	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		t.TLSHandshakeTimeout = cfg.ConnectTimeout
		t.ResponseHeaderTimeout = cfg.ReadTimeout
		transport = t
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With().Str("component", "httpclient").Logger(),
	}
}

// Do executes req and decodes the JSON response into a map. Numbers are kept
// as json.Number so large ids survive.
func (c *Client) Do(ctx context.Context, req Request) (map[string]any, error) {
	var out map[string]any
	if err := c.DoInto(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DoInto executes req and decodes the JSON response into out.
func (c *Client) DoInto(ctx context.Context, req Request, out any) error {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	payload, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	body, err := c.send(ctx, method, target, req.Headers, payload, contentType)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &ParseError{Method: method, URL: redact(target), Snippet: snippet(body), Err: err}
	}
	return nil
}

func encodeBody(req Request) ([]byte, string, error) {
	switch {
	case req.JSON != nil && req.Form != nil:
		return nil, "", errors.New("httpclient: request has both JSON and Form bodies")
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("httpclient: marshal body: %w", err)
		}
		return b, "application/json; charset=utf-8", nil
	case req.Form != nil:
		return []byte(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}

func (c *Client) send(ctx context.Context, method, target string, headers map[string]string, payload []byte, contentType string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		// The attempt deadline covers the body read as well as the headers.
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout+c.cfg.ReadTimeout)
		defer cancel()

		httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("httpclient: build request: %w", err))
		}
		httpReq.Header.Set("Accept", "application/json")
		if contentType != "" {
			httpReq.Header.Set("Content-Type", contentType)
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.cfg.Metrics.ObserveHTTP(method, 0)
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, &TransportError{Method: method, URL: redact(target), Err: err}
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.cfg.Metrics.ObserveHTTP(method, resp.StatusCode)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, &TransportError{Method: method, URL: redact(target), Err: fmt.Errorf("read body: %w", err)}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		serr := &StatusError{
			Method:     method,
			URL:        redact(target),
			StatusCode: resp.StatusCode,
			Body:       snippet(data),
		}
		if !slices.Contains(c.cfg.RetryStatuses, resp.StatusCode) {
			return nil, backoff.Permanent(serr)
		}
		serr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, serr
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffBase
	b.MaxInterval = c.cfg.BackoffMax
	b.Multiplier = 2
	b.RandomizationFactor = 0

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.cfg.Metrics.ObserveRetry()
			c.logger.Warn().
				Err(err).
				Str("method", method).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("retrying request")
		}),
	)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Int("attempts", attempt).Msg("request failed")
		return nil, err
	}
	return data, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Zero means absent or invalid.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// redact masks credentials in a URL before it lands in an error or a log line.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	for _, k := range []string{"access_token", "sign", "appSecret"} {
		if q.Has(k) {
			q.Set(k, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
