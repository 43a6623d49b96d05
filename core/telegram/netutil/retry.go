package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ShouldRetry reports whether a network error is worth retrying.
// Only transient dial and timeout failures qualify; context cancellation never does.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// NotSent reports whether err happened before the request reached the
// server: a failed dial or name lookup.
func NotSent(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// RetryTransport retries requests that failed with a retryable network error.
// GET and HEAD retry on any error ShouldRetry accepts. Other methods retry
// only when NotSent holds, so a delivered sendMessage is never repeated.
// Requests whose body cannot be replayed are attempted once.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
	// OnRetry is called before each retry with the upcoming attempt number.
	OnRetry func(req *http.Request, attempt int, err error)
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := max(t.MaxRetries+1, 1)

	retryable := ShouldRetry
	if m := req.Method; m != "" && m != http.MethodGet && m != http.MethodHead {
		retryable = func(err error) bool { return ShouldRetry(err) && NotSent(err) }
	}

	resp, err := base.RoundTrip(req)
	for attempt := 2; err != nil && attempt <= attempts && retryable(err); attempt++ {
		next, rerr := replay(req)
		if rerr != nil || next == nil {
			return nil, err
		}
		if t.OnRetry != nil {
			t.OnRetry(req, attempt, err)
		}
		if werr := sleep(req.Context(), t.Backoff*time.Duration(attempt-1)); werr != nil {
			return nil, werr
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

// replay clones req with a fresh body. It returns nil when the body cannot
// be read again.
func replay(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
