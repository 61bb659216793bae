// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sirseerhq/sirseer-scout/internal/version"
)

const (
	// maxResponseSize caps a single response body.
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	// defaultRateLimitWait is used when a rate-limited response carries no reset hint.
	defaultRateLimitWait = time.Second

	// defaultRequestTimeout bounds a single attempt when the config leaves it unset.
	defaultRequestTimeout = 30 * time.Second
)

// TransportConfig controls the throttling and rate-limit behaviour of the
// HTTP transport shared by the GraphQL and REST clients.
type TransportConfig struct {
	// RequestsPerSecond is the proactive request budget. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	// MaxWait is the longest reset wait accepted before the single retry.
	// Longer waits fail immediately with a RateLimitError.
	MaxWait           time.Duration
	// RequestTimeout bounds each attempt on the wire, response body included.
	// The rate-limit wait between attempts is not counted against it.
	RequestTimeout    time.Duration
	Logger            *zap.Logger
}

// DefaultTransportConfig returns the settings used for GitHub's search API,
// which allows 30 authenticated search requests per minute.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		RequestsPerSecond: 1.2,
		Burst:             1,
		MaxWait:           60 * time.Second,
		RequestTimeout:    defaultRequestTimeout,
	}
}

// RateLimitError is returned when GitHub keeps rejecting a request for
// quota reasons after the transport has already retried it once.
type RateLimitError struct {
	StatusCode int
	Remaining  int
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("API rate limit exceeded (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("API rate limit exceeded (status %d), resets at %s",
		e.StatusCode, e.ResetAt.Format(time.RFC3339))
}

// IsRateLimitError lets the error chain inspector classify this error.
func (e *RateLimitError) IsRateLimitError() bool { return true }

// newHTTPClient builds the client used for all GitHub calls:
// oauth2 bearer auth -> one rate-limit retry -> throttle -> safety limits -> pooled transport.
// The client carries no overall Timeout: that would also cover the rate-limit
// wait, so the deadline is applied per attempt by safetyTransport instead.
func newHTTPClient(token string, cfg *TransportConfig) *http.Client {
	if cfg == nil {
		cfg = DefaultTransportConfig()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var base http.RoundTripper = &safetyTransport{base: newPooledTransport(), timeout: timeout}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		base = &throttleTransport{
			base:    base,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		}
	}
	base = &rateLimitTransport{
		base:    base,
		maxWait: cfg.MaxWait,
		logger:  loggerOrNop(cfg.Logger),
		now:     time.Now,
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		},
	}
}

// safetyTransport sets the User-Agent, bounds the response body size and
// gives each attempt its own deadline when timeout is set.
type safetyTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *safetyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())

	cancel := context.CancelFunc(func() {})
	if t.timeout > 0 {
		var ctx context.Context
		ctx, cancel = context.WithTimeout(req.Context(), t.timeout)
		req = req.WithContext(ctx)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.Body == nil {
		cancel()
		return resp, nil
	}

	// The deadline has to outlive RoundTrip so the body can still be read.
	resp.Body = &limitedReader{
		ReadCloser: &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		limit:      maxResponseSize,
	}

	return resp, nil
}

// cancelOnClose releases an attempt's deadline once its body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// throttleTransport spaces requests out so a busy caller stays under the
// search quota instead of bouncing off it.
type throttleTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper.
func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("request throttle: %w", err)
	}
	return t.base.RoundTrip(req)
}

// rateLimitTransport retries a rate-limited request exactly once after the
// advertised reset. A second rejection surfaces as *RateLimitError.
type rateLimitTransport struct {
	base    http.RoundTripper
	maxWait time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// RoundTrip implements http.RoundTripper with a single rate-limit retry.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || !isRateLimited(resp) {
		return resp, err
	}

	limitErr, wait := t.inspect(resp)
	drainAndClose(resp)

	if wait > t.maxWait {
		t.logger.Warn("Rate limit reset too far away, not retrying",
			zap.Duration("wait", wait),
			zap.Duration("max_wait", t.maxWait))
		return nil, limitErr
	}

	t.logger.Info("Rate limited by GitHub, retrying once",
		zap.Int("status", limitErr.StatusCode),
		zap.Duration("wait", wait))

	if err := sleepContext(req.Context(), wait); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	retry, err := rewindRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err = t.base.RoundTrip(retry)
	if err != nil || !isRateLimited(resp) {
		return resp, err
	}

	limitErr, _ = t.inspect(resp)
	drainAndClose(resp)
	return nil, limitErr
}

// inspect reads the rate limit headers and computes how long to wait.
// Retry-After wins over X-RateLimit-Reset.
func (t *rateLimitTransport) inspect(resp *http.Response) (*RateLimitError, time.Duration) {
	now := t.now()
	limitErr := &RateLimitError{StatusCode: resp.StatusCode, Remaining: -1}

	if remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil {
		limitErr.Remaining = remaining
	}

	wait := defaultRateLimitWait
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		limitErr.ResetAt = time.Unix(reset, 0)
		wait = limitErr.ResetAt.Sub(now)
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		wait = time.Duration(secs) * time.Second
		limitErr.ResetAt = now.Add(wait)
	}

	if wait < 0 {
		wait = 0
	}
	return limitErr, wait
}

// isRateLimited reports whether GitHub rejected the request for quota reasons.
// A 403 without quota headers is a permissions problem and passes through.
func isRateLimited(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0" ||
			resp.Header.Get("Retry-After") != ""
	default:
		return false
	}
}

// rewindRequest clones req with a fresh body for a second attempt.
func rewindRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot retry request to %s: body is not replayable", req.URL.Host)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	retry.Body = body
	return retry, nil
}

func drainAndClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
