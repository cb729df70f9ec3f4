package debate

import (
	"strings"
	"testing"

	"github.com/mindglass/debate-engine/pkg/blackboard"
	"github.com/mindglass/debate-engine/pkg/message"
	"github.com/mindglass/debate-engine/pkg/roundplan"
)

func startCmd(query string) message.StartDebateCommand {
	return message.StartDebateCommand{Query: query}
}

func constraintCmd(text string) message.InjectConstraintCommand {
	return message.InjectConstraintCommand{Constraint: text}
}

func TestBuildPromptOmitsDebateSectionOnFirstRound(t *testing.T) {
	bb := blackboard.New(map[string]string{"analyst": "Analyst"})
	round := roundplan.Round{Number: 1, Name: "Opening Arguments", Instruction: "state your position"}

	prompt := buildPrompt("Should we pivot to B2B?", "", "", round, bb, nil)

	if strings.Contains(prompt, "DEBATE SO FAR") {
		t.Errorf("round 1 prompt must not contain a debate-so-far section: %q", prompt)
	}
	if !strings.Contains(prompt, "CURRENT QUESTION: Should we pivot to B2B?") {
		t.Errorf("expected query rendered, got %q", prompt)
	}
}

func TestBuildPromptIncludesPriorRoundsAfterFirst(t *testing.T) {
	bb := blackboard.New(map[string]string{"analyst": "Analyst"})
	bb.PutFinal(1, "analyst", "the market looks strong")
	round := roundplan.Round{Number: 2, Name: "Challenge", Instruction: "attack their claims"}

	prompt := buildPrompt("q", "", "", round, bb, nil)

	if !strings.Contains(prompt, "DEBATE SO FAR") {
		t.Errorf("expected debate-so-far section once a prior round exists: %q", prompt)
	}
	if !strings.Contains(prompt, "the market looks strong") {
		t.Errorf("expected prior round's content folded in: %q", prompt)
	}
}

func TestBuildPromptIncludesConstraintsInOrder(t *testing.T) {
	bb := blackboard.New(nil)
	round := roundplan.Round{Number: 1, Name: "Opening Arguments", Instruction: "state your position"}

	prompt := buildPrompt("q", "", "", round, bb, []string{"budget under $50k", "no layoffs"})

	firstIdx := strings.Index(prompt, "budget under $50k")
	secondIdx := strings.Index(prompt, "no layoffs")
	if firstIdx == -1 || secondIdx == -1 || firstIdx > secondIdx {
		t.Errorf("expected constraints rendered in order, got %q", prompt)
	}
}

func TestBuildPromptIncludesIndustryContext(t *testing.T) {
	bb := blackboard.New(nil)
	round := roundplan.Round{Number: 1, Name: "Opening Arguments", Instruction: "state your position"}

	prompt := buildPrompt("q", "", "SaaS", round, bb, nil)
	if !strings.Contains(prompt, "INDUSTRY CONTEXT: SaaS") {
		t.Errorf("expected industry context header, got %q", prompt)
	}
}

func TestBuildPromptIncludesPreviousConsultationContext(t *testing.T) {
	bb := blackboard.New(nil)
	round := roundplan.Round{Number: 1, Name: "Opening Arguments", Instruction: "state your position"}

	prompt := buildPrompt("q", "we previously discussed pricing tiers", "", round, bb, nil)
	if !strings.Contains(prompt, "we previously discussed pricing tiers") {
		t.Errorf("expected previous context folded in, got %q", prompt)
	}
	if !strings.Contains(prompt, "PREVIOUS CONSULTATION CONTEXT") {
		t.Errorf("expected previous-context header, got %q", prompt)
	}
}

func TestValidateStartDebateRejectsEmptyQuery(t *testing.T) {
	if msg := ValidateStartDebate(startCmd("   ")); msg == "" {
		t.Fatal("expected validation error for whitespace-only query")
	}
}

func TestValidateStartDebateRejectsMalformedAPIKey(t *testing.T) {
	cmd := startCmd("valid query")
	cmd.APIKey = "not-a-valid-key"
	if msg := ValidateStartDebate(cmd); msg == "" {
		t.Fatal("expected validation error for malformed apiKey")
	}
}

func TestValidateStartDebateAcceptsWellFormedAPIKey(t *testing.T) {
	cmd := startCmd("valid query")
	cmd.APIKey = "csk-abcdefghijklmnop"
	if msg := ValidateStartDebate(cmd); msg != "" {
		t.Fatalf("expected no validation error, got %q", msg)
	}
}

func TestValidateInjectConstraintRejectsEmpty(t *testing.T) {
	if msg := ValidateInjectConstraint(constraintCmd("  ")); msg == "" {
		t.Fatal("expected validation error for whitespace-only constraint")
	}
}
