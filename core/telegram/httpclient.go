package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
	longPollSlack            = 10 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// The client timeout is stretched past longPoll so getUpdates is not cut short.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := defaultClientTimeout
	if longPoll+longPollSlack > timeout {
		timeout = longPoll + longPollSlack
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &netutil.RetryTransport{
			Base:       transport,
			MaxRetries: defaultRetryAttempts,
			Backoff:    defaultRetryBackoff,
			OnRetry: func(req *http.Request, attempt int, err error) {
				logger.TG.LogAttrs(req.Context(), slog.LevelWarn, "http.retry",
					slog.String("endpoint", endpointName(req)),
					slog.Int("attempt", attempt),
					slog.String("err", err.Error()),
				)
			},
		},
	}
}

// endpointName keeps the API method and drops the token-bearing path prefix.
func endpointName(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	p := req.URL.Path
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
