package roundplan

import "testing"

func TestBuildAllAgentsFiveRounds(t *testing.T) {
	resolved := []string{"analyst", "optimist", "pessimist", "critic", "strategist", "finance", "risk", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "")

	wantNames := []string{"Opening Arguments", "Challenge", "Defense & Rebuttal", "Expert Analysis", "Final Verdict"}
	if len(rounds) != len(wantNames) {
		t.Fatalf("got %d rounds, want %d: %+v", len(rounds), len(wantNames), rounds)
	}
	for i, r := range rounds {
		if r.Name != wantNames[i] {
			t.Errorf("round %d name = %q, want %q", i, r.Name, wantNames[i])
		}
		if r.Number != i+1 {
			t.Errorf("round %d number = %d, want %d", i, r.Number, i+1)
		}
	}
}

func TestBuildSynthesizerOnlySingleRound(t *testing.T) {
	rounds := Build([]string{"synthesizer"}, "finance", "risk", "")
	if len(rounds) != 1 {
		t.Fatalf("got %d rounds, want 1: %+v", len(rounds), rounds)
	}
	if rounds[0].Name != "Final Verdict" || rounds[0].Number != 1 {
		t.Errorf("unexpected sole round: %+v", rounds[0])
	}
	if len(rounds[0].Agents) != 1 || rounds[0].Agents[0] != "synthesizer" {
		t.Errorf("expected synthesizer as sole participant, got %v", rounds[0].Agents)
	}
}

func TestBuildDefenseRequiresChallenge(t *testing.T) {
	// critic/pessimist absent: no challenge round, so defense must also be
	// absent even though analyst/optimist (defense's participants) are present.
	resolved := []string{"analyst", "optimist", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "")

	for _, r := range rounds {
		if r.Name == "Defense & Rebuttal" {
			t.Fatalf("defense round must not appear without a preceding challenge round: %+v", rounds)
		}
	}
}

func TestBuildChallengeRequiresOpening(t *testing.T) {
	// analyst/optimist absent: opening never appears, so challenge must not
	// appear even though critic/pessimist are present.
	resolved := []string{"critic", "pessimist", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "")

	for _, r := range rounds {
		if r.Name == "Challenge" {
			t.Fatalf("challenge round must not appear without a preceding opening round: %+v", rounds)
		}
	}
}

func TestBuildRoundsRenumberedContiguously(t *testing.T) {
	resolved := []string{"strategist", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "")

	for i, r := range rounds {
		if r.Number != i+1 {
			t.Errorf("expected contiguous numbering, round %d has Number=%d", i, r.Number)
		}
	}
}

func TestBuildIndustryLabelSuffixesExpertInstruction(t *testing.T) {
	resolved := []string{"strategist", "finance", "risk", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "SaaS")

	var expert *Round
	for i := range rounds {
		if rounds[i].Name == "Expert Analysis" {
			expert = &rounds[i]
		}
	}
	if expert == nil {
		t.Fatal("expected an Expert Analysis round")
	}
	if !contains(expert.Instruction, "SaaS") {
		t.Errorf("expected industry label in expert instruction, got %q", expert.Instruction)
	}
}

func TestBuildSynthesizerAlwaysLastRound(t *testing.T) {
	resolved := []string{"analyst", "optimist", "pessimist", "critic", "synthesizer"}
	rounds := Build(resolved, "finance", "risk", "")

	last := rounds[len(rounds)-1]
	if last.Name != "Final Verdict" {
		t.Errorf("expected synthesizer's verdict round last, got %q", last.Name)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
