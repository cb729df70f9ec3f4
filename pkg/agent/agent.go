// Package agent implements C2: pairing a persona descriptor with an
// upstream.Adapter to produce a tagged record stream for one prompt.
//
// The teacher's original pkg/agent/agent.go expressed an Agent as an
// interface with a BaseAgent default implementation (composition over the
// source's BaseAgent/LLMAgent inheritance). This package keeps that shape
// but collapses it further, per spec.md §9: there is exactly one
// capability ("Stream"), so Agent is a concrete struct over a Descriptor
// plus an upstream.Adapter rather than an interface with multiple
// adapter-specific implementations.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/mindglass/debate-engine/pkg/upstream"
)

// Descriptor is the immutable persona + capability record from spec.md §3.
type Descriptor struct {
	ID           string
	Name         string
	Color        string
	Tags         []string
	Prompt       string
	DefaultModel string
}

// Record is the variant type an Agent's Stream emits: each record is a
// TokenRecord, a MetricsRecord (terminal), or a DoneRecord (terminal).
type Record interface{ isAgentRecord() }

type TokenRecord struct {
	AgentID string
	Text    string
}

func (TokenRecord) isAgentRecord() {}

type MetricsRecord struct {
	AgentID          string
	TokensPerSecond  float64
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CompletionTime   *float64
}

func (MetricsRecord) isAgentRecord() {}

type DoneRecord struct {
	AgentID string
}

func (DoneRecord) isAgentRecord() {}

// ErrorTokenPrefix marks a TokenRecord as carrying an upstream failure
// instead of generated text. Load-bearing: the round executor inspects an
// agent's first token for this prefix to decide whether to retry with a
// fallback model (spec.md §4.6).
const ErrorTokenPrefix = "[Error:"

// Agent binds a Descriptor to an upstream.Adapter.
type Agent struct {
	Descriptor Descriptor
	Adapter    upstream.Adapter
}

// New constructs an Agent for the given descriptor and adapter.
func New(d Descriptor, a upstream.Adapter) *Agent {
	return &Agent{Descriptor: d, Adapter: a}
}

// Stream produces this agent's record sequence for userPrompt, using
// modelOverride in place of the descriptor's default model when non-empty
// (the round executor supplies this on fallback retry).
func (a *Agent) Stream(ctx context.Context, userPrompt string, modelOverride string) <-chan Record {
	out := make(chan Record, 8)

	model := a.Descriptor.DefaultModel
	if modelOverride != "" {
		model = modelOverride
	}

	go func() {
		defer close(out)

		start := time.Now()
		chunks, errs := a.Adapter.Stream(ctx, model, a.Descriptor.Prompt, userPrompt)

		var (
			promptTokens     int
			completionTokens int
			totalTokens      int
			completionTime   *float64
		)

		emit := func(r Record) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

	drain:
		for chunks != nil || errs != nil {
			select {
			case c, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				if c.Text != "" {
					if !emit(TokenRecord{AgentID: a.Descriptor.ID, Text: c.Text}) {
						break drain
					}
				}
				if c.Usage != nil {
					promptTokens = c.Usage.PromptTokens
					completionTokens = c.Usage.CompletionTokens
					totalTokens = c.Usage.TotalTokens
				}
				if c.CompletionTime != nil {
					completionTime = c.CompletionTime
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					emit(TokenRecord{AgentID: a.Descriptor.ID, Text: ErrorTokenPrefix + " " + err.Error() + "]"})
				}
			case <-ctx.Done():
				break drain
			}
		}

		elapsed := time.Since(start).Seconds()
		tps := 0.0
		if completionTime != nil && *completionTime > 0 {
			tps = float64(completionTokens) / *completionTime
		} else if elapsed > 0 {
			tps = float64(completionTokens) / elapsed
		}

		emit(MetricsRecord{
			AgentID:          a.Descriptor.ID,
			TokensPerSecond:  tps,
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      totalTokens,
			CompletionTime:   completionTime,
		})
		emit(DoneRecord{AgentID: a.Descriptor.ID})
	}()

	return out
}

// IsErrorText reports whether a token's text is the engine's error-token
// sentinel, per spec.md §4.2.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorTokenPrefix)
}
