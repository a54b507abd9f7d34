package translator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// retryableStatus lists the transient HTTP status classes worth retrying.
// Other non-2xx statuses fail immediately and degrade to empty results.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// backoff returns the wait before retry attempt n (0-indexed), exponential
// with jitter and capped at 30s.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// post sends body to the generate endpoint with bounded retry on connection
// failures and transient statuses. Each attempt gets a fresh request with its
// own timeout so one stalled call cannot starve the remaining attempts.
func (s *Service) post(ctx context.Context, body []byte, timeout time.Duration) ([]byte, error) {
	url := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/api/generate"

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt - 1)
			s.log.Debug("retrying service call", "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, status, err := s.attempt(ctx, url, body, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusOK {
			return data, nil
		}
		lastErr = fmt.Errorf("service returned status %d", status)
		if !retryableStatus[status] {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("attempts exhausted: %w", lastErr)
}

func (s *Service) attempt(ctx context.Context, url string, body []byte, timeout time.Duration) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return data, resp.StatusCode, nil
}
