// Package session implements C9: the single-debate-at-a-time session
// handler. It decodes inbound protocol commands, starts and cancels the
// one in-flight debate task, forwards its output records, and injects
// constraints into it.
//
// Grounded in the teacher's pkg/orchestrator/orchestrator.go (the
// single-active-task-with-cancel shape around Start/Stop) for the ambient
// concurrency discipline; the protocol itself is spec.md §4.8/§6.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mindglass/debate-engine/internal/metrics"
	"github.com/mindglass/debate-engine/pkg/debate"
	"github.com/mindglass/debate-engine/pkg/log"
	"github.com/mindglass/debate-engine/pkg/message"
)

func nowMS() int64 { return time.Now().UnixMilli() }

// DebateFactory constructs a fresh Debate for one start_debate command. The
// session handler owns the new Debate's lifetime only as far as starting
// and cancelling its Stream call; everything else is the Debate's own
// state per spec.md §4.7.
type DebateFactory func() *debate.Debate

// Session owns one client conversation: at most one active debate task,
// cancelled on a new start_debate or on session close.
type Session struct {
	newDebate DebateFactory
	send      func(message.Record)
	configKey string // server-configured API key, used absent a per-request override
	metrics   *metrics.Metrics

	mu       sync.Mutex
	cancel   context.CancelFunc
	active   *debate.Debate
	done     chan struct{}
}

// New constructs a Session. send is called with every outbound record, in
// order, for the lifetime of the session. configKey is the
// server-configured upstream API key (CEREBRAS_API_KEY); a per-request
// apiKey in start_debate overrides it for that debate only.
func New(newDebate DebateFactory, send func(message.Record), configKey string) *Session {
	return &Session{newDebate: newDebate, send: send, configKey: configKey}
}

// WithMetrics attaches a Prometheus collector set; the session increments
// its active-debates gauge for the lifetime of each debate task. Returns
// s for chaining at construction time.
func (s *Session) WithMetrics(m *metrics.Metrics) *Session {
	s.metrics = m
	return s
}

// HandleMessage decodes and dispatches one inbound JSON frame. It never
// returns an error to the caller; protocol failures are surfaced to the
// client as an ErrorRecord per spec.md §7.
func (s *Session) HandleMessage(raw []byte) {
	var env message.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.send(message.NewError(nowMS(), "malformed message"))
		return
	}

	switch env.Type {
	case "start_debate":
		var cmd message.StartDebateCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.send(message.NewError(nowMS(), "malformed start_debate message"))
			return
		}
		s.startDebate(cmd)

	case "inject_constraint":
		var cmd message.InjectConstraintCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.send(message.NewError(nowMS(), "malformed inject_constraint message"))
			return
		}
		s.injectConstraint(cmd)

	default:
		s.send(message.NewError(nowMS(), fmt.Sprintf("unknown message type %q", env.Type)))
	}
}

// startDebate implements spec.md §4.8: validate the new command (an invalid
// one is rejected and leaves any in-flight debate running), cancel any prior
// in-flight debate and wait for it to finish, and launch the new debate task.
func (s *Session) startDebate(cmd message.StartDebateCommand) {
	if msg := debate.ValidateStartDebate(cmd); msg != "" {
		s.send(message.NewError(nowMS(), msg))
		return
	}

	apiKey := cmd.APIKey
	if apiKey == "" {
		apiKey = s.configKey
	}
	if apiKey == "" {
		s.send(message.NewError(nowMS(), "no upstream API key configured"))
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		prevDone := s.done
		s.mu.Unlock()
		if prevDone != nil {
			<-prevDone
		}
		s.mu.Lock()
	}

	d := s.newDebate()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.active = d
	s.done = done
	s.mu.Unlock()

	s.metrics.IncActiveDebates()
	go func() {
		defer close(done)
		defer s.metrics.DecActiveDebates()
		d.Stream(ctx, cmd, apiKey)
	}()
}

// injectConstraint implements spec.md §4.8: always acknowledge, regardless
// of whether a debate is currently running.
func (s *Session) injectConstraint(cmd message.InjectConstraintCommand) {
	if msg := debate.ValidateInjectConstraint(cmd); msg != "" {
		s.send(message.NewError(nowMS(), msg))
		return
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.InjectConstraint(cmd.Constraint)
	}
	s.send(message.NewConstraintAcknowledged(nowMS(), cmd.Constraint))
	if active == nil {
		log.Debug("constraint injected with no active debate")
	}
}

// Close cancels any in-flight debate task (spec.md §5: "on session
// disconnect, the session handler cancels the current debate task").
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
