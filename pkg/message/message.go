// Package message defines the wire-level record types the debate engine
// exchanges with a client: inbound commands decoded by the session handler,
// and outbound records emitted by the round executor and orchestrator.
//
// Outbound records all implement Record and supply their "type"
// discriminator through Type(); Encode adds it to the record's own fields,
// following the flat-envelope shape in the protocol table rather than a
// nested {type, payload} wrapper.
package message

import "encoding/json"

// Record is any outbound wire record. Timestamp returns the epoch-ms value
// every outbound record carries.
type Record interface {
	Type() string
	Timestamp() int64
}

type envelope struct {
	TS int64 `json:"timestamp"`
}

func (e envelope) Timestamp() int64 { return e.TS }

func newEnvelope(nowMS int64) envelope { return envelope{TS: nowMS} }

// RoundStartRecord announces the beginning of a round.
type RoundStartRecord struct {
	envelope
	Round  int      `json:"round"`
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
}

func NewRoundStart(nowMS int64, round int, name string, agents []string) RoundStartRecord {
	return RoundStartRecord{envelope: newEnvelope(nowMS), Round: round, Name: name, Agents: agents}
}
func (RoundStartRecord) Type() string { return "round_start" }

// PhaseStartRecord is a backward-compatible alias of RoundStartRecord kept
// only so legacy UIs that key off "phase" continue to render a line.
type PhaseStartRecord struct {
	envelope
	Phase int    `json:"phase"`
	Name  string `json:"name"`
}

func NewPhaseStart(nowMS int64, phase int, name string) PhaseStartRecord {
	return PhaseStartRecord{envelope: newEnvelope(nowMS), Phase: phase, Name: name}
}
func (PhaseStartRecord) Type() string { return "phase_start" }

// AgentTokenRecord carries one partial text chunk from one agent.
type AgentTokenRecord struct {
	envelope
	AgentID string `json:"agentId"`
	Content string `json:"content"`
}

func NewAgentToken(nowMS int64, agentID, content string) AgentTokenRecord {
	return AgentTokenRecord{envelope: newEnvelope(nowMS), AgentID: agentID, Content: content}
}
func (AgentTokenRecord) Type() string { return "agent_token" }

// AgentMetricsRecord is the terminal per-agent usage record for one round.
type AgentMetricsRecord struct {
	envelope
	AgentID          string   `json:"agentId"`
	TokensPerSecond  float64  `json:"tokensPerSecond"`
	PromptTokens     int      `json:"promptTokens"`
	CompletionTokens int      `json:"completionTokens"`
	TotalTokens      int      `json:"totalTokens"`
	CompletionTime   *float64 `json:"completionTime,omitempty"`
}

func (AgentMetricsRecord) Type() string { return "agent_metrics" }

// AgentDoneRecord marks that one agent has finished speaking for a round.
type AgentDoneRecord struct {
	envelope
	AgentID string `json:"agentId"`
}

func NewAgentDone(nowMS int64, agentID string) AgentDoneRecord {
	return AgentDoneRecord{envelope: newEnvelope(nowMS), AgentID: agentID}
}
func (AgentDoneRecord) Type() string { return "agent_done" }

// AgentErrorRecord reports that an agent failed this round after retry.
type AgentErrorRecord struct {
	envelope
	AgentID string `json:"agentId"`
	Error   string `json:"error"`
}

func NewAgentError(nowMS int64, agentID, errText string) AgentErrorRecord {
	return AgentErrorRecord{envelope: newEnvelope(nowMS), AgentID: agentID, Error: errText}
}
func (AgentErrorRecord) Type() string { return "agent_error" }

// MetricsSnapshotRecord is a debate-wide progress snapshot emitted at a
// fixed cadence independent of token arrival.
type MetricsSnapshotRecord struct {
	envelope
	TokensPerSecond int `json:"tokensPerSecond"`
	TotalTokens     int `json:"totalTokens"`
}

func NewMetricsSnapshot(nowMS int64, tokensPerSecond, totalTokens int) MetricsSnapshotRecord {
	return MetricsSnapshotRecord{envelope: newEnvelope(nowMS), TokensPerSecond: tokensPerSecond, TotalTokens: totalTokens}
}
func (MetricsSnapshotRecord) Type() string { return "metrics" }

// ConstraintAcknowledgedRecord confirms a constraint was appended.
type ConstraintAcknowledgedRecord struct {
	envelope
	Constraint string `json:"constraint"`
}

func NewConstraintAcknowledged(nowMS int64, constraint string) ConstraintAcknowledgedRecord {
	return ConstraintAcknowledgedRecord{envelope: newEnvelope(nowMS), Constraint: constraint}
}
func (ConstraintAcknowledgedRecord) Type() string { return "constraint_acknowledged" }

// DebateCompleteRecord is always the final record of a successfully
// completed debate.
type DebateCompleteRecord struct {
	envelope
	TotalTokens       int             `json:"totalTokens"`
	TotalTime         float64         `json:"totalTime"`
	AvgTokensPerSec   float64         `json:"avgTokensPerSecond"`
	Benchmark         json.RawMessage `json:"benchmark"`
}

func NewDebateComplete(nowMS int64, totalTokens int, totalTime, avgTPS float64, benchmark json.RawMessage) DebateCompleteRecord {
	return DebateCompleteRecord{
		envelope:        newEnvelope(nowMS),
		TotalTokens:     totalTokens,
		TotalTime:       totalTime,
		AvgTokensPerSec: avgTPS,
		Benchmark:       benchmark,
	}
}
func (DebateCompleteRecord) Type() string { return "debate_complete" }

// ErrorRecord is a protocol-level error, not tied to any agent.
type ErrorRecord struct {
	envelope
	Message string `json:"message"`
}

func NewError(nowMS int64, msg string) ErrorRecord {
	return ErrorRecord{envelope: newEnvelope(nowMS), Message: msg}
}
func (ErrorRecord) Type() string { return "error" }

// Encode marshals a Record together with its discriminator "type" field
// into a single flat JSON object, since Record implementations don't embed
// their own type tag in their Go struct (it's supplied by Type()).
func Encode(r Record) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	typeJSON, err := json.Marshal(r.Type())
	if err != nil {
		return nil, err
	}
	m["type"] = typeJSON
	return json.Marshal(m)
}

// --- Inbound commands ---

// StartDebateCommand is the "start_debate" inbound variant.
type StartDebateCommand struct {
	Query           string   `json:"query"`
	Model           string   `json:"model,omitempty"`
	PreviousContext string   `json:"previousContext,omitempty"`
	SelectedAgents  []string `json:"selectedAgents,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	APIKey          string   `json:"apiKey,omitempty"`
}

// InjectConstraintCommand is the "inject_constraint" inbound variant.
type InjectConstraintCommand struct {
	Constraint string `json:"constraint"`
}

// InboundEnvelope is used only to sniff the "type" discriminator before
// unmarshalling into the concrete command type.
type InboundEnvelope struct {
	Type string `json:"type"`
}
