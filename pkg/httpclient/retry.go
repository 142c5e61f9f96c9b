package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"agroadvisor/pkg/observe"
)

// RetryClient wraps an http.Client with exponential backoff on transient
// upstream failures (transport errors and 5xx responses). It is shared by
// the geocoding and weather clients so both get the same retry budget.
type RetryClient struct {
	client     *http.Client
	maxRetries uint64
	l          *observe.Logger
}

func New(timeout time.Duration, maxRetries int, l *observe.Logger) *RetryClient {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &RetryClient{
		client:     &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
		l:          l,
	}
}

// Do executes the request, retrying on transport errors and retryable server
// statuses. The request must have no body (all outbound calls here are GETs).
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	operation := func() error {
		attempt++

		r, err := c.client.Do(req)
		if err != nil {
			c.l.Warning("request failed, will retry", map[string]any{
				"url":     req.URL.String(),
				"attempt": attempt,
				"err":     err.Error(),
			})
			return err
		}

		if retryableStatus(r.StatusCode) {
			// Drain so the connection can be reused on the next attempt.
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()

			c.l.Warning("server error, will retry", map[string]any{
				"url":     req.URL.String(),
				"attempt": attempt,
				"status":  r.StatusCode,
			})
			return fmt.Errorf("server error (status %d)", r.StatusCode)
		}

		resp = r
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		req.Context(),
	)

	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
	}

	return resp, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}
