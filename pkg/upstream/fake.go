package upstream

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// FakeAdapter is a deterministic, dependency-free Adapter used by cmd/bench
// (when run with --fake) and by package tests that
// need to drive the round executor without a real network call.
type FakeAdapter struct {
	// Words is split on whitespace and streamed one token per TokenDelay.
	Words string
	// TokenDelay paces emission; zero means no delay.
	TokenDelay time.Duration
	// FailFirst, if true, emits a retryable error instead of Words on the
	// very first call to Stream, then streams Words normally on every
	// later call. This mirrors the real adapter's streamWithRetry: a
	// failure ends that attempt outright, it does not also emit output.
	FailFirst bool

	calls int32
}

func (f *FakeAdapter) Stream(ctx context.Context, model, systemPrompt, userPrompt string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 8)
	errs := make(chan error, 1)

	attempt := atomic.AddInt32(&f.calls, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if f.FailFirst && attempt == 1 {
			select {
			case chunks <- Chunk{Text: "[Error: rate limit exceeded]"}:
			case <-ctx.Done():
			}
			return
		}

		words := strings.Fields(f.Words)
		for _, w := range words {
			select {
			case chunks <- Chunk{Text: w + " "}:
			case <-ctx.Done():
				return
			}
			if f.TokenDelay > 0 {
				select {
				case <-time.After(f.TokenDelay):
				case <-ctx.Done():
					return
				}
			}
		}

		completionTime := 0.25
		select {
		case chunks <- Chunk{
			Usage:          &Usage{PromptTokens: len(strings.Fields(systemPrompt + userPrompt)), CompletionTokens: len(words), TotalTokens: len(words)},
			CompletionTime: &completionTime,
		}:
		case <-ctx.Done():
		}
	}()

	return chunks, errs
}
