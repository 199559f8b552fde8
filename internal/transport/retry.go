package transport

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig bounds how often idempotent requests (health, save) are
// repeated. Submissions are never retried.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig allows three retries between 1s and 30s.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: 30 * time.Second}
}

func retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// backoffFor doubles the initial backoff per attempt, up to the maximum.
func backoffFor(attempt int, config *RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// retryWithBackoff repeats an idempotent request on transport errors and
// retryable status codes. The response of the last attempt is returned even
// when its status is an error, so callers can read the detail body.
func (c *Client) retryWithBackoff(ctx context.Context, op string, reqFunc func() (*http.Response, error)) (*http.Response, error) {
	config := c.opts.Retry
	logger := c.logger.WithOperation(op)
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := reqFunc()
		if err == nil {
			if !retryable(resp.StatusCode) || attempt == config.MaxRetries {
				return resp, nil
			}
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		} else {
			lastErr = err
		}

		if attempt == config.MaxRetries {
			break
		}

		backoff := backoffFor(attempt, config)
		logger.Warn().Err(lastErr).Int("attempt", attempt+1).Int("max_retries", config.MaxRetries).
			Dur("backoff", backoff).Msg("Request failed, retrying")

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", config.MaxRetries, lastErr)
}
