// Package blackboard implements C5: the round-keyed store of each agent's
// final text per round, per spec.md §4.4.
//
// Grounded in original_source's orchestrator/blackboard.py, but simplified
// per spec.md §9's explicit direction: that file's token-by-token thought-
// boundary detection (add_token/flush_pending) is a superseded earlier
// draft. This implementation adopts whole-round capture only — PutFinal is
// called once per agent with its complete concatenated text, not
// incrementally.
package blackboard

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>|<think>.*`)

// stripThinkTags elides paired (and unterminated, streaming-truncated)
// <think>...</think> markup before a round's contributions are folded into
// a later prompt, per spec.md §4.4's "simple paired-tag elision."
func stripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(text, ""))
}

// Blackboard is owned exclusively by the orchestrator for one debate's
// lifetime (spec.md §3 Ownership). Mutations take the write lock and
// ContextFor takes the read lock, so readers outside the orchestrator
// goroutine (e.g. a status/debug endpoint) may call ContextFor safely.
type Blackboard struct {
	mu      sync.RWMutex
	rounds  map[int]map[string]string // round -> agentID -> final text
	names   map[string]string         // agentID -> display name, for ContextFor
	order   map[int][]string          // round -> agent insertion order
}

// New constructs an empty Blackboard. names maps agent ids to display
// names used when rendering ContextFor.
func New(names map[string]string) *Blackboard {
	return &Blackboard{
		rounds: make(map[int]map[string]string),
		names:  names,
		order:  make(map[int][]string),
	}
}

// PutFinal records agent's complete final text for round. Per spec.md §4.4
// invariant, callers must only do this after the agent's terminal done
// record has been emitted downstream.
func (b *Blackboard) PutFinal(round int, agentID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rounds[round] == nil {
		b.rounds[round] = make(map[string]string)
	}
	if _, exists := b.rounds[round][agentID]; !exists {
		b.order[round] = append(b.order[round], agentID)
	}
	b.rounds[round][agentID] = text
}

// ClearRound empties a round's entries entirely, e.g. on interrupt-restart.
func (b *Blackboard) ClearRound(round int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.rounds, round)
	delete(b.order, round)
}

// ContextFor formats every round strictly before upToRound as a
// "=== ROUND k ===" block of per-agent "[Name]:\ntext" sections, followed
// by a "=== USER CONSTRAINTS (FOLLOW THESE!) ===" block when constraints is
// non-empty. Constraints are rendered regardless of upToRound, including 1.
func (b *Blackboard) ContextFor(upToRound int, constraints []string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var parts []string

	for round := 1; round < upToRound; round++ {
		agents, ok := b.order[round]
		if !ok {
			continue
		}
		entries := b.rounds[round]
		parts = append(parts, fmt.Sprintf("=== ROUND %d ===", round))
		for _, agentID := range agents {
			name := b.names[agentID]
			if name == "" {
				name = agentID
			}
			parts = append(parts, fmt.Sprintf("\n[%s]:\n%s", name, stripThinkTags(entries[agentID])))
		}
		parts = append(parts, "")
	}

	if len(constraints) > 0 {
		parts = append(parts, "=== USER CONSTRAINTS (FOLLOW THESE!) ===")
		for i, c := range constraints {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, c))
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}
