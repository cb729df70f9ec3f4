package registry

import (
	"testing"

	"github.com/mindglass/debate-engine/pkg/agent"
)

const testDoc = `
agents:
  - id: analyst
    name: Analyst
  - id: optimist
    name: Optimist
  - id: pessimist
    name: Pessimist
  - id: critic
    name: Critic
  - id: strategist
    name: Strategist
  - id: finance
    name: Finance Expert
  - id: risk
    name: Risk Expert
  - id: synthesizer
    name: Synthesizer
  - id: saas_metrics
    name: SaaS Metrics Analyst
  - id: saas_growth
    name: SaaS Growth Strategist
industries:
  - key: saas
    label: SaaS
    firstAgent: saas_metrics
    secondAgent: saas_growth
`

func mustParse(t *testing.T) *Registry {
	t.Helper()
	r, err := Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return r
}

func TestResolveBaseOrderNoFilter(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"analyst", "optimist", "pessimist", "critic", "strategist", "finance", "risk", "synthesizer"}
	assertIDs(t, resolved, want)
}

func TestResolveIndustrySubstitutesSpecialistPair(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("saas", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"analyst", "optimist", "pessimist", "critic", "strategist", "saas_metrics", "saas_growth", "synthesizer"}
	assertIDs(t, resolved, want)
}

// TestResolveSelectionMatchesBySlotNotSubstitutedID mirrors spec.md
// scenario S6: selecting "finance" under an industry overlay must still
// include that industry's specialist, since "finance" names the slot, not
// the post-substitution agent id.
func TestResolveSelectionMatchesBySlotNotSubstitutedID(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("saas", []string{"analyst", "finance", "synthesizer"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"analyst", "saas_metrics", "synthesizer"}
	assertIDs(t, resolved, want)
}

func TestResolveSynthesizerAlwaysForced(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("", []string{"analyst"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"analyst", "synthesizer"}
	assertIDs(t, resolved, want)
}

func TestResolveSynthesizerOnlySelection(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("", []string{"synthesizer"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertIDs(t, resolved, []string{"synthesizer"})
}

func TestResolveUnknownIndustryTreatedAsAbsent(t *testing.T) {
	r := mustParse(t)
	resolved, err := r.Resolve("does-not-exist", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"analyst", "optimist", "pessimist", "critic", "strategist", "finance", "risk", "synthesizer"}
	assertIDs(t, resolved, want)
}

func TestParseRejectsMissingSynthesizer(t *testing.T) {
	doc := `
agents:
  - id: analyst
    name: Analyst
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for registry missing synthesizer")
	}
}

func TestParseRejectsIndustryReferencingUnknownAgent(t *testing.T) {
	doc := `
agents:
  - id: synthesizer
    name: Synthesizer
industries:
  - key: saas
    label: SaaS
    firstAgent: nonexistent
    secondAgent: also_nonexistent
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for industry referencing an unconfigured agent")
	}
}

func assertIDs(t *testing.T, resolved []agent.Descriptor, want []string) {
	t.Helper()
	if len(resolved) != len(want) {
		t.Fatalf("got %d agents %v, want %d %v", len(resolved), idsOf(resolved), len(want), want)
	}
	for i, d := range resolved {
		if d.ID != want[i] {
			t.Fatalf("position %d: got %q, want %q (full: %v vs %v)", i, d.ID, want[i], idsOf(resolved), want)
		}
	}
}

func idsOf(resolved []agent.Descriptor) []string {
	ids := make([]string, len(resolved))
	for i, d := range resolved {
		ids[i] = d.ID
	}
	return ids
}

func TestIndustryLabelAndSlots(t *testing.T) {
	r := mustParse(t)
	if got := r.IndustryLabel("saas"); got != "SaaS" {
		t.Errorf("IndustryLabel(saas) = %q, want SaaS", got)
	}
	if got := r.IndustryLabel("unknown"); got != "" {
		t.Errorf("IndustryLabel(unknown) = %q, want empty", got)
	}

	finance, risk := r.IndustrySlots("saas")
	if finance != "saas_metrics" || risk != "saas_growth" {
		t.Errorf("IndustrySlots(saas) = (%q, %q), want (saas_metrics, saas_growth)", finance, risk)
	}

	finance, risk = r.IndustrySlots("unknown")
	if finance != "finance" || risk != "risk" {
		t.Errorf("IndustrySlots(unknown) = (%q, %q), want generic fallback", finance, risk)
	}
}
