// Package retry centralizes the retryable-error classification and backoff
// arithmetic used both by the upstream HTTP client (pkg/upstream) and,
// coarser-grained, by the round executor's retry-with-fallback path
// (pkg/executor). Adapted from the exponential-backoff-with-jitter helpers
// in the teacher's pkg/client/openai_compat.go.
package retry

import (
	"strings"
	"time"
)

// retryablePatterns is the exact, case-insensitive substring set the round
// executor matches a failed agent's first-token error text against before
// retrying on the fallback model.
var retryablePatterns = []string{
	"rate limit",
	"limit exceeded",
	"quota",
	"429",
	"timeout",
	"timed out",
	"deadline",
	"overloaded",
	"temporarily unavailable",
	"service unavailable",
}

// IsRetryable reports whether errText matches one of the retryable
// substrings. Pure and safe to call from any goroutine.
func IsRetryable(errText string) bool {
	lower := strings.ToLower(errText)
	for _, p := range retryablePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Delay computes the exponential backoff for the given attempt (1-indexed),
// capped to avoid integer overflow, with retryAfter (if positive) taking
// precedence when it exceeds the computed backoff.
func Delay(attempt int, retryAfter time.Duration) time.Duration {
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	if shift < 0 {
		shift = 0
	}
	backoff := time.Duration(1<<uint(shift)) * time.Second

	if retryAfter > 0 && retryAfter > backoff {
		backoff = retryAfter
	}
	return addJitter(backoff)
}

// addJitter adds up to 10% random-ish jitter to avoid synchronized retries
// across concurrently retrying agents in the same round.
func addJitter(wait time.Duration) time.Duration {
	if wait <= 0 {
		return 0
	}
	maxJitter := wait / 10
	if maxJitter < 10*time.Millisecond {
		return wait
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(maxJitter))
	return wait + jitter
}

// ShouldRetryTransport reports whether a transport-level error (as opposed
// to a classified upstream error string) should be retried by the HTTP
// client layer.
func ShouldRetryTransport(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{"http 5", "connection", "timeout", "eof"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
