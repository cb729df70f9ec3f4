// Package debate implements C7: the debate orchestrator. It drives the
// round loop described in spec.md §4.7, building each round's prompt from
// the query, industry, prior-session context, blackboard, and constraints,
// threading the interrupt signal into the round executor, and aggregating
// the per-debate benchmark record.
//
// Grounded in the teacher's pkg/orchestrator/orchestrator.go Start method
// (mode dispatch, deferred completion emission) for the ambient shape, and
// in original_source's orchestrator/debate.py stream_debate for the
// round-based state machine itself.
package debate

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindglass/debate-engine/internal/metrics"
	"github.com/mindglass/debate-engine/pkg/agent"
	"github.com/mindglass/debate-engine/pkg/benchmark"
	"github.com/mindglass/debate-engine/pkg/blackboard"
	"github.com/mindglass/debate-engine/pkg/executor"
	"github.com/mindglass/debate-engine/pkg/log"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/registry"
	"github.com/mindglass/debate-engine/pkg/roundplan"
	"github.com/mindglass/debate-engine/pkg/upstream"
)

// ModelTiers maps the protocol's "fast"/"pro" tiers to concrete upstream
// model ids, and names the fallback model used on a single retry after a
// retryable failure. All three are configuration, not protocol, per
// spec.md §6.
type ModelTiers struct {
	Fast     string
	Pro      string
	Fallback string
}

func (t ModelTiers) resolve(tier string) string {
	if strings.EqualFold(tier, "fast") {
		return t.Fast
	}
	return t.Pro
}

// AdapterFactory builds the upstream adapter for one debate, given the
// effective API key (per-request override or server configuration).
type AdapterFactory func(apiKey string) upstream.Adapter

// Debate drives one client conversation's single round-based debate. It is
// constructed fresh per debate (the engine is stateless across debates,
// spec.md §1) and owns the blackboard, constraint list, interrupt latch,
// and benchmark record for that debate's lifetime (spec.md §4.7).
type Debate struct {
	id          string
	registry    *registry.Registry
	tiers       ModelTiers
	newAdapter  AdapterFactory
	emit        executor.Emitter
	nowMS       func() int64
	metrics     *metrics.Metrics

	mu          sync.Mutex
	constraints []string
	latch       *executor.Latch
}

// New constructs a Debate, tagging it with a fresh correlation id used only
// in log lines (never on the wire, which carries no debate identifier per
// spec.md §6). emit is called with every outbound record, in order; nowMS
// returns the current epoch-ms timestamp (injected so tests can control it).
func New(reg *registry.Registry, tiers ModelTiers, newAdapter AdapterFactory, emit executor.Emitter, nowMS func() int64) *Debate {
	return &Debate{
		id:         uuid.NewString(),
		registry:   reg,
		tiers:      tiers,
		newAdapter: newAdapter,
		emit:       emit,
		nowMS:      nowMS,
		latch:      &executor.Latch{},
	}
}

// WithMetrics attaches a Prometheus collector set recorded into by every
// round this debate runs. Returns d for chaining at construction time; a
// Debate with no metrics attached records nothing (*metrics.Metrics is a
// valid nil receiver).
func (d *Debate) WithMetrics(m *metrics.Metrics) *Debate {
	d.metrics = m
	return d
}

// InjectConstraint appends constraint to the debate's constraint list and
// sets the interrupt latch. Safe to call concurrently with Stream from the
// session-handler context (spec.md §5's "single mutex covering both the
// list and latch-set operation").
func (d *Debate) InjectConstraint(constraint string) {
	d.mu.Lock()
	d.constraints = append(d.constraints, constraint)
	d.latch.Set()
	d.mu.Unlock()
}

func (d *Debate) snapshotConstraints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.constraints))
	copy(out, d.constraints)
	return out
}

// Stream runs the debate to completion (or abort on ctx cancellation),
// emitting records via d.emit. It implements the state machine of
// spec.md §4.7: PLANNING -> RUN(1..N) -> DONE, with RUN(k) able to repeat
// for the same k on interrupt-restart.
func (d *Debate) Stream(ctx context.Context, cmd message.StartDebateCommand, apiKey string) {
	debateStart := time.Now()
	counters := executor.NewCounters(debateStart)

	resolved, err := d.registry.Resolve(cmd.Industry, cmd.SelectedAgents)
	if err != nil {
		d.emit(message.NewError(d.nowMS(), err.Error()))
		return
	}

	names := make(map[string]string, len(resolved))
	resolvedIDs := make([]string, len(resolved))
	for i, desc := range resolved {
		names[desc.ID] = desc.Name
		resolvedIDs[i] = desc.ID
	}
	bb := blackboard.New(names)

	financeID, riskID := d.registry.IndustrySlots(cmd.Industry)
	industryLabel := d.registry.IndustryLabel(cmd.Industry)
	rounds := roundplan.Build(resolvedIDs, financeID, riskID, industryLabel)

	adapter := d.newAdapter(apiKey)
	agents := make(map[string]*agent.Agent, len(resolved))
	for _, desc := range resolved {
		agents[desc.ID] = agent.New(desc, adapter)
	}

	model := d.tiers.resolve(cmd.Model)

	log.WithFields(map[string]interface{}{
		"debate_id": d.id,
		"rounds":    len(rounds),
		"model":     model,
	}).Info("debate starting")

	var roundStats []benchmark.RoundStat
	var agentStats []benchmark.AgentStat
	var timeToFirstTokenGlobal float64
	firstTokenRecorded := false

	idx := 0
	for idx < len(rounds) {
		round := rounds[idx]

		d.emit(message.NewRoundStart(d.nowMS(), round.Number, round.Name, round.Agents))
		d.emit(message.NewPhaseStart(d.nowMS(), round.Number, round.Name))

		prompt := buildPrompt(cmd.Query, cmd.PreviousContext, industryLabel, round, bb, d.snapshotConstraints())

		roundStart := time.Now()
		outcome, stats := executor.Run(ctx, round, agents, prompt, model, d.tiers.Fallback, d.latch, counters, d.metrics, bb, wrapEmitTTFT(d.emit, &firstTokenRecorded, &timeToFirstTokenGlobal, roundStart), d.nowMS)

		switch outcome {
		case executor.Restart:
			continue
		case executor.Aborted:
			log.WithFields(map[string]interface{}{"debate_id": d.id, "round": round.Number}).Info("debate aborted")
			return
		case executor.Completed:
			roundStats = append(roundStats, benchmark.RoundStat{
				Round:        round.Number,
				WallDuration: time.Since(roundStart).Seconds(),
				Participants: round.Agents,
			})
			agentStats = append(agentStats, stats...)
			idx++
		}
	}

	total, _ := counters.Snapshot()
	totalTime := time.Since(debateStart).Seconds()
	avgTPS := 0.0
	if totalTime > 0 {
		avgTPS = float64(total) / totalTime
	}

	rec := benchmark.Record{
		TotalWallTime:          totalTime,
		TimeToFirstTokenGlobal: timeToFirstTokenGlobal,
		Rounds:                 roundStats,
		Agents:                 agentStats,
	}
	benchmarkJSON, err := json.Marshal(rec)
	if err != nil {
		benchmarkJSON = []byte("{}")
	}

	d.emit(message.NewDebateComplete(d.nowMS(), total, totalTime, avgTPS, benchmarkJSON))
	log.WithField("debate_id", d.id).Info("debate complete")
}

// wrapEmitTTFT intercepts the first agent_token record across the whole
// debate to record the global time-to-first-token for the benchmark
// record (spec.md §3), then forwards every record unchanged.
func wrapEmitTTFT(emit executor.Emitter, recorded *bool, ttft *float64, since time.Time) executor.Emitter {
	return func(r message.Record) {
		if !*recorded {
			if _, ok := r.(message.AgentTokenRecord); ok {
				*ttft = time.Since(since).Seconds()
				*recorded = true
			}
		}
		emit(r)
	}
}

// ValidateStartDebate applies spec.md §6's inbound validation for
// start_debate: non-empty trimmed query and, if present, a well-formed
// apiKey. Returns a user-facing error message, or "" if valid.
func ValidateStartDebate(cmd message.StartDebateCommand) string {
	if strings.TrimSpace(cmd.Query) == "" {
		return "Query cannot be empty"
	}
	if cmd.APIKey != "" && !apiKeyPattern.MatchString(cmd.APIKey) {
		return "Invalid API key format"
	}
	return ""
}

// ValidateInjectConstraint applies spec.md §6's inbound validation for
// inject_constraint: non-empty trimmed constraint text.
func ValidateInjectConstraint(cmd message.InjectConstraintCommand) string {
	if strings.TrimSpace(cmd.Constraint) == "" {
		return "Constraint cannot be empty"
	}
	return ""
}

var apiKeyPattern = regexp.MustCompile(`^csk-[A-Za-z0-9]{10,}$`)
