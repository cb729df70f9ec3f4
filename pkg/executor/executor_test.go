package executor

import (
	"context"
	"testing"
	"time"

	"github.com/mindglass/debate-engine/pkg/agent"
	"github.com/mindglass/debate-engine/pkg/blackboard"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/roundplan"
	"github.com/mindglass/debate-engine/pkg/upstream"
)

func testRound(agents ...string) roundplan.Round {
	return roundplan.Round{Number: 1, Name: "Opening Arguments", Agents: agents, Instruction: "go"}
}

func newTestAgent(id string, a upstream.Adapter) *agent.Agent {
	return agent.New(agent.Descriptor{ID: id, Name: id}, a)
}

func collectEmitter() (Emitter, func() []message.Record) {
	var records []message.Record
	return func(r message.Record) { records = append(records, r) }, func() []message.Record { return records }
}

func TestRunHappyPathEmitsOrderedTerminalRecords(t *testing.T) {
	agents := map[string]*agent.Agent{
		"analyst":  newTestAgent("analyst", &upstream.FakeAdapter{Words: "hello there"}),
		"optimist": newTestAgent("optimist", &upstream.FakeAdapter{Words: "great news"}),
	}

	emit, records := collectEmitter()
	bb := blackboard.New(map[string]string{"analyst": "Analyst", "optimist": "Optimist"})
	counters := NewCounters(time.Now())

	outcome, stats := Run(context.Background(), testRound("analyst", "optimist"), agents, "prompt", "model-a", "", &Latch{}, counters, nil, bb, emit, func() int64 { return 0 })

	if outcome != Completed {
		t.Fatalf("expected Completed, got %v", outcome)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 agent stats, got %d", len(stats))
	}

	doneCount := map[string]int{}
	for _, r := range records() {
		if d, ok := r.(message.AgentDoneRecord); ok {
			doneCount[d.AgentID]++
		}
	}
	if doneCount["analyst"] != 1 || doneCount["optimist"] != 1 {
		t.Fatalf("expected exactly one agent_done per participant, got %v", doneCount)
	}

	if bb.ContextFor(2, nil) == "" {
		t.Error("expected blackboard populated for round 1 after completion")
	}
}

func TestRunDoneFollowsMetricsForSameAgent(t *testing.T) {
	agents := map[string]*agent.Agent{
		"analyst": newTestAgent("analyst", &upstream.FakeAdapter{Words: "one two three"}),
	}
	emit, records := collectEmitter()
	bb := blackboard.New(nil)
	counters := NewCounters(time.Now())

	outcome, _ := Run(context.Background(), testRound("analyst"), agents, "prompt", "m", "", &Latch{}, counters, nil, bb, emit, func() int64 { return 0 })
	if outcome != Completed {
		t.Fatalf("expected Completed, got %v", outcome)
	}

	var sawMetrics, sawDoneAfterMetrics bool
	for _, r := range records() {
		switch r.(type) {
		case message.AgentMetricsRecord:
			sawMetrics = true
		case message.AgentDoneRecord:
			if sawMetrics {
				sawDoneAfterMetrics = true
			}
		}
	}
	if !sawMetrics || !sawDoneAfterMetrics {
		t.Error("expected agent_done to follow agent_metrics for the same agent")
	}
}

func TestRunRetryableFailureRetriesOnceThenSucceeds(t *testing.T) {
	agents := map[string]*agent.Agent{
		"critic":    newTestAgent("critic", &upstream.FakeAdapter{FailFirst: true, Words: "recovered output"}),
		"pessimist": newTestAgent("pessimist", &upstream.FakeAdapter{Words: "unaffected output"}),
	}
	emit, records := collectEmitter()
	bb := blackboard.New(nil)
	counters := NewCounters(time.Now())

	outcome, _ := Run(context.Background(), testRound("critic", "pessimist"), agents, "prompt", "fast-model", "fallback-model", &Latch{}, counters, nil, bb, emit, func() int64 { return 0 })
	if outcome != Completed {
		t.Fatalf("expected Completed, got %v", outcome)
	}

	var sawCriticError bool
	criticTokens := 0
	criticDone := 0
	criticMetrics := 0
	pessimistDone := 0
	for _, r := range records() {
		switch rec := r.(type) {
		case message.AgentErrorRecord:
			if rec.AgentID == "critic" {
				sawCriticError = true
			}
		case message.AgentTokenRecord:
			if rec.AgentID == "critic" {
				criticTokens++
			}
		case message.AgentMetricsRecord:
			if rec.AgentID == "critic" {
				criticMetrics++
			}
		case message.AgentDoneRecord:
			if rec.AgentID == "critic" {
				criticDone++
			}
			if rec.AgentID == "pessimist" {
				pessimistDone++
			}
		}
	}

	if sawCriticError {
		t.Error("critic recovered via fallback retry; no agent_error should be emitted")
	}
	if criticTokens == 0 {
		t.Error("expected critic's recovered tokens to be emitted after fallback retry")
	}
	if criticDone != 1 {
		t.Errorf("expected exactly one agent_done for critic despite the discarded first attempt, got %d", criticDone)
	}
	if criticMetrics > 1 {
		t.Errorf("expected at most one agent_metrics for critic despite the discarded first attempt, got %d", criticMetrics)
	}
	if pessimistDone != 1 {
		t.Errorf("expected pessimist unaffected by critic's retry, got %d done records", pessimistDone)
	}
}

func TestRunFailureWithoutFallbackProducesAgentErrorAndIsolatesOthers(t *testing.T) {
	agents := map[string]*agent.Agent{
		"critic":    newTestAgent("critic", &upstream.FakeAdapter{FailFirst: true}),
		"pessimist": newTestAgent("pessimist", &upstream.FakeAdapter{Words: "unaffected output"}),
	}
	emit, records := collectEmitter()
	bb := blackboard.New(nil)
	counters := NewCounters(time.Now())

	// no fallback configured: first failure is terminal for critic regardless of retryability.
	outcome, _ := Run(context.Background(), testRound("critic", "pessimist"), agents, "prompt", "fast-model", "", &Latch{}, counters, nil, bb, emit, func() int64 { return 0 })
	if outcome != Completed {
		t.Fatalf("expected Completed, got %v", outcome)
	}

	var criticErrored, criticDone, pessimistDone bool
	for _, r := range records() {
		switch rec := r.(type) {
		case message.AgentErrorRecord:
			if rec.AgentID == "critic" {
				criticErrored = true
			}
		case message.AgentDoneRecord:
			if rec.AgentID == "critic" {
				criticDone = true
			}
			if rec.AgentID == "pessimist" {
				pessimistDone = true
			}
		}
	}

	if !criticErrored || !criticDone {
		t.Error("expected a synthetic agent_error + agent_done pair for critic")
	}
	if !pessimistDone {
		t.Error("expected pessimist to complete normally despite critic's failure")
	}
}

func TestRunInterruptProducesRestartAndClearsRound(t *testing.T) {
	agents := map[string]*agent.Agent{
		"analyst": newTestAgent("analyst", &upstream.FakeAdapter{Words: "a b c d e f g h i j", TokenDelay: 20 * time.Millisecond}),
	}
	emit, _ := collectEmitter()
	bb := blackboard.New(nil)
	bb.PutFinal(1, "analyst", "stale content from before the restart")
	counters := NewCounters(time.Now())

	latch := &Latch{}
	go func() {
		time.Sleep(30 * time.Millisecond)
		latch.Set()
	}()

	outcome, stats := Run(context.Background(), testRound("analyst"), agents, "prompt", "m", "", latch, counters, nil, bb, emit, func() int64 { return 0 })
	if outcome != Restart {
		t.Fatalf("expected Restart, got %v", outcome)
	}
	if stats != nil {
		t.Errorf("expected no benchmark stats on restart, got %v", stats)
	}
	if bb.ContextFor(2, nil) != "" {
		t.Error("expected round 1 blackboard entries cleared after restart")
	}
}

func TestRunAbortOnContextCancellation(t *testing.T) {
	agents := map[string]*agent.Agent{
		"analyst": newTestAgent("analyst", &upstream.FakeAdapter{Words: "a b c d e f g h", TokenDelay: 20 * time.Millisecond}),
	}
	emit, records := collectEmitter()
	bb := blackboard.New(nil)
	counters := NewCounters(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	outcome, stats := Run(ctx, testRound("analyst"), agents, "prompt", "m", "", &Latch{}, counters, nil, bb, emit, func() int64 { return 0 })
	if outcome != Aborted {
		t.Fatalf("expected Aborted, got %v", outcome)
	}
	if stats != nil {
		t.Error("expected no benchmark stats on abort")
	}
	for _, r := range records() {
		if _, ok := r.(message.DebateCompleteRecord); ok {
			t.Error("abort must never emit debate_complete")
		}
	}
}
