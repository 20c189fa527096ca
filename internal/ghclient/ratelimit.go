package ghclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spiffcs/ghissues-agent/internal/constants"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

// rateLimitTransport wraps an http.RoundTripper to report GitHub rate limits.
// It keeps no state between requests; each response is judged on its own
// headers and every request reaches the network.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && remaining <= constants.RateLimitLowWatermark {
		log.Warn("rate limit low", "remaining", remaining, "limit", limit, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		log.Warn("rate limited by GitHub", "retry_at", retryAfter(resp, resetAt).Format(time.RFC3339))
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
// Missing values are reported as -1.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// retryAfter prefers the Retry-After header (seconds) over the quota reset.
func retryAfter(resp *http.Response, resetAt time.Time) time.Time {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return resetAt
}
