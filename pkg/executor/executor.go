// Package executor implements C6: the round executor, the hardest
// component in the engine per spec.md §4.6. It fans out one upstream call
// per participating agent, multiplexes their tagged token streams into an
// ordered output, tracks per-agent timing/usage for the benchmark record,
// applies retry-with-fallback on a retryable first-token failure, and
// supports cooperative interrupt-and-restart.
//
// Grounded in two sources: the teacher's pkg/orchestrator/orchestrator.go
// getAgentResponse (the retry-with-backoff shape, middleware-free here
// since the engine has no per-message middleware chain) and
// original_source's orchestrator/debate.py _run_round (the queue-based
// fan-out/demux loop, the exact dequeue/status/metrics cadences, and the
// interrupt-check placement). Per spec.md §9, the Python original's
// exception-based RoundRestartRequested control flow is replaced here with
// an explicit Outcome return value.
package executor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mindglass/debate-engine/internal/metrics"
	"github.com/mindglass/debate-engine/pkg/agent"
	"github.com/mindglass/debate-engine/pkg/benchmark"
	"github.com/mindglass/debate-engine/pkg/blackboard"
	"github.com/mindglass/debate-engine/pkg/log"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/retry"
	"github.com/mindglass/debate-engine/pkg/roundplan"
)

// dequeueTimeout bounds how long the merge loop can wait before it must
// re-observe the interrupt latch, per spec.md §5 ("≤ 100 ms").
const dequeueTimeout = 100 * time.Millisecond

// metricsCadence is how often a debate-wide MetricsSnapshotRecord is
// emitted, independent of token arrival (spec.md §4.6: "≤ twice per
// second").
const metricsCadence = 500 * time.Millisecond

// statusSilence is the per-agent silence duration after which the executor
// logs a pending-participant status line (spec.md §4.6).
const statusSilence = 5 * time.Second

// Outcome is the round executor's explicit control-flow result, replacing
// the Python original's exception-based restart (spec.md §9).
type Outcome int

const (
	// Completed means every participant produced a terminal done record.
	Completed Outcome = iota
	// Restart means the interrupt latch was observed mid-round; the
	// caller must rebuild the round's prompt and re-invoke Run for the
	// same round number.
	Restart
	// Aborted means the parent context was cancelled (e.g. session
	// disconnect); no further records should be emitted for this debate.
	Aborted
)

// Latch is the single-shot interrupt signal owned by the orchestrator for
// a debate's lifetime (spec.md §3). Safe for concurrent use: Set is called
// from the session-handler context, Consume from the executor's loop.
type Latch struct {
	mu  sync.Mutex
	hit bool
}

// Set trips the latch.
func (l *Latch) Set() {
	l.mu.Lock()
	l.hit = true
	l.mu.Unlock()
}

// Consume reports whether the latch was set, clearing it atomically.
func (l *Latch) Consume() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	hit := l.hit
	l.hit = false
	return hit
}

// Counters are the cumulative debate-wide token counters the orchestrator
// owns and the executor's progress snapshots read from, per spec.md §4.6.
type Counters struct {
	mu          sync.Mutex
	totalTokens int
	start       time.Time
}

// NewCounters starts a fresh counter set at the given debate start time.
func NewCounters(start time.Time) *Counters {
	return &Counters{start: start}
}

func (c *Counters) add(n int) {
	c.mu.Lock()
	c.totalTokens += n
	c.mu.Unlock()
}

// Snapshot returns the current cumulative total and an instantaneous
// tokens/sec estimate (total / elapsed wall time since debate start).
func (c *Counters) Snapshot() (totalTokens int, tokensPerSecond int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.start).Seconds()
	if elapsed <= 0 {
		return c.totalTokens, 0
	}
	return c.totalTokens, int(float64(c.totalTokens) / elapsed)
}

// Emitter is how the executor surfaces outbound records; the orchestrator
// supplies one backed by the session handler's outbound channel.
type Emitter func(message.Record)

type mergedItem struct {
	agentID    string
	rec        agent.Record
	arrival    time.Time
	generation int
}

type participant struct {
	descriptor agent.Descriptor
	model      string
	retried    bool
	firstSeen  bool
	suppressed bool
	done       bool
	buf        strings.Builder
	firstToken time.Time
	lastToken  time.Time
	itl        []float64
	prompt     int
	completion int
	total      int
	completionTime *float64

	// generation identifies the current spawn attempt for this agent.
	// Incremented by spawn; a mergedItem whose generation doesn't match
	// the participant's current generation came from an attempt that was
	// since canceled (e.g. superseded by a fallback retry) and must be
	// dropped rather than folded into the round's state.
	generation int

	cancel context.CancelFunc
}

// Run executes one round to completion, interruption, or abort. agents
// maps every id in round.Agents to a constructed *agent.Agent. fallback is
// the fallback model id substituted in on a retryable first-token failure
// (empty disables retry). latch, counters, and bb are owned by the
// orchestrator and shared across the whole debate. m may be nil, in which
// case no Prometheus metrics are recorded.
func Run(
	ctx context.Context,
	round roundplan.Round,
	agents map[string]*agent.Agent,
	prompt string,
	model string,
	fallback string,
	latch *Latch,
	counters *Counters,
	m *metrics.Metrics,
	bb *blackboard.Blackboard,
	emit Emitter,
	now func() int64,
) (Outcome, []benchmark.AgentStat) {
	roundCtx, cancelRound := context.WithCancel(ctx)
	defer cancelRound()

	mergeCh := make(chan mergedItem, 256)
	states := make(map[string]*participant, len(round.Agents))
	var wg sync.WaitGroup

	spawn := func(agentID, model string) {
		agentCtx, cancel := context.WithCancel(roundCtx)
		st := states[agentID]
		st.model = model
		st.cancel = cancel
		st.generation++
		gen := st.generation

		wg.Add(1)
		go func() {
			defer wg.Done()
			a := agents[agentID]
			for rec := range a.Stream(agentCtx, prompt, model) {
				select {
				case mergeCh <- mergedItem{agentID: agentID, rec: rec, arrival: time.Now(), generation: gen}:
				case <-agentCtx.Done():
					return
				}
			}
		}()
	}

	for _, agentID := range round.Agents {
		states[agentID] = &participant{descriptor: agents[agentID].Descriptor}
		spawn(agentID, model)
	}

	lastActivity := make(map[string]time.Time, len(round.Agents))
	startTime := time.Now()
	for _, agentID := range round.Agents {
		lastActivity[agentID] = startTime
	}

	pollTicker := time.NewTicker(dequeueTimeout)
	metricsTicker := time.NewTicker(metricsCadence)
	statusTicker := time.NewTicker(statusSilence)
	defer pollTicker.Stop()
	defer metricsTicker.Stop()
	defer statusTicker.Stop()

	doneCount := 0
	total := len(round.Agents)

	restart := func() (Outcome, []benchmark.AgentStat) {
		cancelRound()
		waitWithTimeout(&wg, time.Second)
		drain(mergeCh)
		bb.ClearRound(round.Number)
		m.ObserveRound(round.Name, "restart", time.Since(startTime))
		return Restart, nil
	}

	for doneCount < total {
		select {
		case <-ctx.Done():
			cancelRound()
			waitWithTimeout(&wg, time.Second)
			m.ObserveRound(round.Name, "aborted", time.Since(startTime))
			return Aborted, nil

		case item := <-mergeCh:
			st, ok := states[item.agentID]
			if !ok {
				continue
			}
			if item.generation != st.generation {
				// stale record from an attempt canceled by a fallback
				// retry; the retried attempt's own records carry the
				// current generation and supersede these.
				continue
			}
			lastActivity[item.agentID] = time.Now()

			switch rec := item.rec.(type) {
			case agent.TokenRecord:
				if !st.firstSeen {
					st.firstSeen = true
					if agent.IsErrorText(rec.Text) {
						errText := extractErrorText(rec.Text)
						if fallback != "" && !st.retried && retry.IsRetryable(errText) {
							st.retried = true
							st.firstSeen = false
							st.cancel()
							lastActivity[item.agentID] = time.Now()
							m.IncRetry(item.agentID)
							spawn(item.agentID, fallback)
							continue
						}
						st.suppressed = true
						st.done = true
						doneCount++
						m.IncAgentError(item.agentID)
						emit(message.NewAgentError(now(), item.agentID, errText))
						emit(message.NewAgentDone(now(), item.agentID))
						continue
					}
					st.firstToken = item.arrival
				} else if !st.suppressed {
					itl := item.arrival.Sub(st.lastToken).Seconds()
					st.itl = append(st.itl, itl)
					m.ObserveITL(item.agentID, itl)
				}
				if st.suppressed {
					continue
				}
				st.lastToken = item.arrival
				st.buf.WriteString(rec.Text)
				emit(message.NewAgentToken(now(), item.agentID, rec.Text))

			case agent.MetricsRecord:
				if st.suppressed {
					continue
				}
				st.prompt = rec.PromptTokens
				st.completion = rec.CompletionTokens
				st.total = rec.TotalTokens
				st.completionTime = rec.CompletionTime
				counters.add(rec.CompletionTokens)
				m.AddTokens(item.agentID, rec.CompletionTokens)
				emit(message.AgentMetricsRecord{
					AgentID:          item.agentID,
					TokensPerSecond:  rec.TokensPerSecond,
					PromptTokens:     rec.PromptTokens,
					CompletionTokens: rec.CompletionTokens,
					TotalTokens:      rec.TotalTokens,
					CompletionTime:   rec.CompletionTime,
				})

			case agent.DoneRecord:
				if st.suppressed {
					continue
				}
				st.done = true
				doneCount++
				bb.PutFinal(round.Number, item.agentID, st.buf.String())
				emit(message.NewAgentDone(now(), item.agentID))
			}

		case <-pollTicker.C:
			if latch.Consume() {
				return restart()
			}

		case <-metricsTicker.C:
			tot, tps := counters.Snapshot()
			emit(message.NewMetricsSnapshot(now(), tps, tot))

		case <-statusTicker.C:
			logStalled(round.Number, lastActivity, states)
		}
	}

	cancelRound()
	waitWithTimeout(&wg, time.Second)
	m.ObserveRound(round.Name, "completed", time.Since(startTime))

	stats := make([]benchmark.AgentStat, 0, len(states))
	for agentID, st := range states {
		if st.suppressed {
			continue
		}
		mean, p50, p95 := benchmark.Percentiles(st.itl)
		throughput := 0.0
		if st.completionTime != nil && *st.completionTime > 0 {
			throughput = float64(st.completion) / *st.completionTime
		}
		ttft := 0.0
		if !st.firstToken.IsZero() {
			ttft = st.firstToken.Sub(startTime).Seconds()
		}
		stats = append(stats, benchmark.AgentStat{
			Round:            round.Number,
			AgentID:          agentID,
			Model:            st.model,
			TimeToFirstToken: ttft,
			MeanITL:          mean,
			P50ITL:           p50,
			P95ITL:           p95,
			ChunkCount:       len(st.itl) + 1,
			PromptTokens:     st.prompt,
			CompletionTokens: st.completion,
			TotalTokens:      st.total,
			CompletionTime:   st.completionTime,
			Throughput:       throughput,
		})
	}

	return Completed, stats
}

// extractErrorText strips the "[Error: ...]" wrapper, leaving the
// underlying message for the agent_error record's "error" field.
func extractErrorText(text string) string {
	inner := strings.TrimPrefix(text, agent.ErrorTokenPrefix)
	inner = strings.TrimSpace(inner)
	inner = strings.TrimSuffix(inner, "]")
	return inner
}

func drain(ch chan mergedItem) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func logStalled(round int, lastActivity map[string]time.Time, states map[string]*participant) {
	now := time.Now()
	for agentID, st := range states {
		if st.done {
			continue
		}
		age := now.Sub(lastActivity[agentID])
		if age > statusSilence {
			log.WithFields(map[string]interface{}{
				"round":    round,
				"agent_id": agentID,
				"age_secs": age.Seconds(),
			}).Info("round executor: agent still pending")
		}
	}
}
