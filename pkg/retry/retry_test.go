package retry

import (
	"errors"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"rate limit exact", "rate limit exceeded", true},
		{"case insensitive", "RATE LIMIT EXCEEDED", true},
		{"429 status", "upstream returned 429", true},
		{"quota", "monthly quota exhausted", true},
		{"timeout", "request timed out after 30s", true},
		{"overloaded", "model is overloaded, try again", true},
		{"service unavailable", "Service Unavailable", true},
		{"unrelated error", "invalid api key", false},
		{"empty string", "", false},
		{"malformed json", "malformed json payload", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsRetryable(c.text); got != c.want {
				t.Errorf("IsRetryable(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestDelayGrowsExponentially(t *testing.T) {
	d1 := Delay(1, 0)
	d2 := Delay(2, 0)
	d3 := Delay(3, 0)

	if d1 >= d2 || d2 >= d3 {
		t.Fatalf("expected strictly increasing backoff, got %v, %v, %v", d1, d2, d3)
	}
}

func TestDelayCapsShift(t *testing.T) {
	// attempt far beyond the cap must not overflow or panic.
	d := Delay(1000, 0)
	if d <= 0 {
		t.Fatalf("expected positive capped delay, got %v", d)
	}
}

func TestDelayHonorsRetryAfter(t *testing.T) {
	retryAfter := 2 * time.Hour
	d := Delay(1, retryAfter)
	if d < retryAfter {
		t.Fatalf("expected delay >= retryAfter override, got %v < %v", d, retryAfter)
	}
}

func TestShouldRetryTransport(t *testing.T) {
	if ShouldRetryTransport(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if !ShouldRetryTransport(errors.New("dial tcp: connection refused")) {
		t.Fatal("connection errors should be retryable")
	}
	if !ShouldRetryTransport(errors.New("unexpected EOF")) {
		t.Fatal("EOF errors should be retryable")
	}
	if ShouldRetryTransport(errors.New("invalid request body")) {
		t.Fatal("unrelated errors should not be retryable")
	}
}
