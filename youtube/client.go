package youtube

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const maxAttempts = 3

// BaseClient provides the shared HTTP plumbing for API calls.
type BaseClient struct {
	HTTPClient  *http.Client
	RateLimiter *RateLimiter
	UserAgent   string
}

func NewBaseClient(userAgent string, requestsPerMinute int, timeout time.Duration) *BaseClient {
	return &BaseClient{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		RateLimiter: NewRateLimiter(requestsPerMinute),
		UserAgent:   userAgent,
	}
}

// DoWithRetry sends req, retrying on 429 and 5xx responses with a short
// backoff. The returned body has been fully read and the response closed.
func (c *BaseClient) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.RateLimiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		resp, err := c.HTTPClient.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read response: %w", readErr)
			} else if !retryable(resp.StatusCode) || attempt == maxAttempts {
				return resp, body, nil
			} else {
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
			}
		}

		if attempt == maxAttempts {
			break
		}
		log.Printf("YT: attempt %d for %s failed: %v, retrying in %v", attempt, req.URL.Path, lastErr, backoff)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, nil, lastErr
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
