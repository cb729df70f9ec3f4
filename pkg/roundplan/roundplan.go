// Package roundplan implements C4: materializing an ordered round plan
// from a resolved agent set, per spec.md §4.3 step 4.
//
// Grounded in original_source's debate.py _build_debate_rounds: the
// five-round template (opening / challenge / defense / expert / verdict),
// pruned to the rounds whose participants survive resolution, preserving
// the "defense requires a prior challenge" and "challenge requires opening
// agents" gating, then renumbered contiguously.
package roundplan

// Round is one entry in a debate's plan (spec.md §3's "round plan entry").
type Round struct {
	Number       int
	Name         string
	Agents       []string
	Instruction  string
}

const (
	openingInstruction = "You are presenting your OPENING POSITION on this topic. Be clear and take a stance."
	challengeInstruction = "You are CHALLENGING the opening arguments. Directly address the previous speakers' specific claims. Quote them and explain why they're wrong or incomplete."
	defenseInstruction = "You are DEFENDING your position against the challengers' attacks. Address their specific objections. Acknowledge valid points but explain why your core argument still holds."
	expertInstructionBase = "You've watched the debate unfold. Now provide your EXPERT PERSPECTIVE. Reference the back-and-forth between the other agents. Who had the stronger arguments? What did they miss?"
	verdictInstruction = "The debate is complete. Synthesize ALL rounds into a final verdict. Note who 'won' each exchange, what was resolved, and what remains contested. Provide a clear recommendation."
)

var (
	openingAgents   = []string{"analyst", "optimist"}
	challengeAgents = []string{"critic", "pessimist"}
	defenseAgents   = []string{"analyst", "optimist"}
)

// Build returns the round plan for a resolved agent set (agent ids as
// returned by registry.Registry.Resolve — already substituted with
// industry specialists), an industry label for the expert-round prompt
// suffix (may be ""), and the expert-round's (possibly substituted)
// finance/risk agent ids.
func Build(resolvedIDs []string, financeID, riskID, industryLabel string) []Round {
	present := make(map[string]bool, len(resolvedIDs))
	for _, id := range resolvedIDs {
		present[id] = true
	}

	var rounds []Round
	num := 1

	opening := intersect(openingAgents, present)
	hadOpening := len(opening) > 0
	if hadOpening {
		rounds = append(rounds, Round{Number: num, Name: "Opening Arguments", Agents: opening, Instruction: openingInstruction})
		num++
	}

	challenge := intersect(challengeAgents, present)
	if len(challenge) > 0 && hadOpening {
		rounds = append(rounds, Round{Number: num, Name: "Challenge", Agents: challenge, Instruction: challengeInstruction})
		num++

		defense := intersect(defenseAgents, present)
		if len(defense) > 0 {
			rounds = append(rounds, Round{Number: num, Name: "Defense & Rebuttal", Agents: defense, Instruction: defenseInstruction})
			num++
		}
	}

	expertBase := []string{"strategist", financeID, riskID}
	expert := intersect(expertBase, present)
	if len(expert) > 0 {
		instruction := expertInstructionBase
		if industryLabel != "" {
			instruction += " Apply your " + industryLabel + " expertise specifically."
		}
		rounds = append(rounds, Round{Number: num, Name: "Expert Analysis", Agents: expert, Instruction: instruction})
		num++
	}

	if present["synthesizer"] {
		rounds = append(rounds, Round{Number: num, Name: "Final Verdict", Agents: []string{"synthesizer"}, Instruction: verdictInstruction})
	}

	return rounds
}

func intersect(template []string, present map[string]bool) []string {
	out := make([]string, 0, len(template))
	for _, id := range template {
		if present[id] {
			out = append(out, id)
		}
	}
	return out
}
