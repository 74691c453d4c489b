// Package upstream holds the HTTP plumbing shared by the adapters that call
// remote AI providers. Failures are sorted into the domain's upstream
// sentinels so the query pipeline can tell an outage from a bad request.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 512

// Transport wraps a failed round trip as an unavailable upstream.
func Transport(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstreamUnavailable, provider, err)
}

// Status classifies a non-2xx response. Throttling wraps both
// domain.ErrRateLimited and domain.ErrUpstreamUnavailable, 5xx wraps
// domain.ErrUpstreamUnavailable, anything else is a plain error.
func Status(provider string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	status := fmt.Errorf("%s error (status %d): %s", provider, code, msg)

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: %w", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, status)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, status)
	default:
		return status
	}
}

// RetryAfter parses a Retry-After header given in seconds.
func RetryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsRateLimited reports whether err came from a 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
