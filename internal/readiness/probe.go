// Package readiness gates the browser open on the server actually accepting
// connections. The legacy launchers used a fixed sleep as a readiness proxy;
// this replaces it with a bounded polling loop against the target port and URL.
package readiness

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Config holds probe parameters.
type Config struct {
	// Addr is the host:port the server is expected to bind (TCP check).
	Addr string

	// URL is the target the browser will be pointed at (HTTP check).
	URL string

	// Timeout bounds the whole polling loop.
	Timeout time.Duration

	// InitialInterval is the base delay for backoff between attempts.
	InitialInterval time.Duration

	// MaxInterval caps the backoff between attempts.
	MaxInterval time.Duration

	// RequestTimeout bounds a single dial or GET attempt.
	RequestTimeout time.Duration

	// OnAttempt is an optional callback invoked after each failed attempt.
	OnAttempt func(attempt int, err error)
}

// Probe polls until the server accepts a TCP connection and answers the URL
// with a non-5xx status, or until the budget is exhausted.
//
// Returns (true, nil) when the server is ready. Returns (false, err) on
// timeout with the last failure; callers treat that as a degraded launch, not
// a fatal one - the browser is opened anyway and the user sees the report.
func Probe(ctx context.Context, cfg Config) (bool, error) {
	deadline := time.Now().Add(cfg.Timeout)
	client := newProbeClient(cfg.RequestTimeout)

	var lastErr error
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		err := attemptOnce(ctx, client, cfg)
		if err == nil {
			return true, nil
		}
		lastErr = err

		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt+1, err)
		}

		backoff := CalculateBackoff(attempt, cfg.InitialInterval, cfg.MaxInterval)
		if time.Now().Add(backoff).After(deadline) {
			return false, fmt.Errorf("server not ready after %s: %w", cfg.Timeout, lastErr)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// attemptOnce performs one TCP dial followed by one HTTP GET.
// The TCP check fails fast while the port is still unbound; the GET confirms
// the HTTP layer is actually serving, not just listening.
func attemptOnce(ctx context.Context, client *nethttp.Client, cfg Config) error {
	conn, err := net.DialTimeout("tcp", cfg.Addr, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("port not accepting connections: %w", err)
	}
	conn.Close()

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(reqCtx, nethttp.MethodGet, cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("invalid probe URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server answered %d", resp.StatusCode)
	}
	return nil
}

// newProbeClient builds the HTTP client used for probe attempts. Retries are
// disabled on the client itself - the polling loop owns the retry policy.
func newProbeClient(requestTimeout time.Duration) *nethttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.HTTPClient.Timeout = requestTimeout
	retryClient.Logger = nil
	return retryClient.StandardClient()
}

// CalculateBackoff returns exponential backoff duration with full jitter.
// Full jitter spreads attempts so a slow-starting server isn't hammered on a
// fixed cadence.
//
// Formula: random(0, min(maxInterval, initialInterval * 2^attempt))
func CalculateBackoff(attempt int, initialInterval, maxInterval time.Duration) time.Duration {
	if initialInterval <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialInterval
	if base > maxInterval || base <= 0 {
		base = maxInterval
	}
	if base <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(base)))
}

// WaitFixed blocks for the given duration, invoking onTick once per second
// with the remaining time. This is the legacy readiness mode: a coarse guess
// with no feedback loop, kept selectable for parity with the old scripts.
func WaitFixed(ctx context.Context, d time.Duration, onTick func(remaining time.Duration)) error {
	deadline := time.Now().Add(d)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if onTick != nil {
			onTick(remaining)
		}

		wait := time.Second
		if remaining < wait {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
