package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"read timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, true},
		{"url timeout", &url.Error{Op: "Post", URL: "https://x", Err: timeoutErr{}}, true},
		{"dns temporary", &net.DNSError{Err: "no such host", IsTemporary: true}, true},
		{"dns permanent", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	calls := 0
	var bodies []string
	rt := &RetryTransport{
		MaxRetries: 2,
		Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			buf := new(strings.Builder)
			_, _ = io.Copy(buf, r.Body)
			bodies = append(bodies, buf.String())
			if calls < 3 {
				return nil, &net.OpError{Op: "dial", Err: errors.New("refused")}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.example/send", strings.NewReader("payload"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"payload", "payload", "payload"}, bodies)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	calls := 0
	rt := &RetryTransport{
		MaxRetries: 3,
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("tls: bad certificate")
		}),
	}
	req, err := http.NewRequest(http.MethodGet, "https://api.example/", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryTransportSkipsUnreplayableBody(t *testing.T) {
	calls := 0
	rt := &RetryTransport{
		MaxRetries: 3,
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, &net.OpError{Op: "dial", Err: errors.New("refused")}
		}),
	}
	req, err := http.NewRequest(http.MethodPost, "https://api.example/send", strings.NewReader("x"))
	require.NoError(t, err)
	req.GetBody = nil

	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryTransportTimeoutsOnlyRetryIdempotentRequests(t *testing.T) {
	for _, tc := range []struct {
		method string
		calls  int
	}{
		{http.MethodGet, 3},
		{http.MethodPost, 1},
	} {
		t.Run(tc.method, func(t *testing.T) {
			calls := 0
			rt := &RetryTransport{
				MaxRetries: 2,
				Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
					calls++
					return nil, &net.OpError{Op: "read", Err: timeoutErr{}}
				}),
			}
			req, err := http.NewRequest(tc.method, "https://api.example/sendMessage", strings.NewReader("x"))
			require.NoError(t, err)

			_, err = rt.RoundTrip(req)
			require.Error(t, err)
			assert.Equal(t, tc.calls, calls)
		})
	}
}

func TestNotSent(t *testing.T) {
	assert.True(t, NotSent(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, NotSent(&url.Error{Op: "Post", Err: &net.DNSError{Err: "timeout", IsTimeout: true}}))
	assert.False(t, NotSent(&net.OpError{Op: "read", Err: timeoutErr{}}))
	assert.False(t, NotSent(context.Canceled))
}
