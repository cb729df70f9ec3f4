package debate

import (
	"fmt"
	"strings"

	"github.com/mindglass/debate-engine/pkg/blackboard"
	"github.com/mindglass/debate-engine/pkg/roundplan"
)

// buildPrompt assembles a round's prompt per spec.md §4.5, in the exact
// section order the original's _create_round_prompt uses.
func buildPrompt(query, previousContext, industryLabel string, round roundplan.Round, bb *blackboard.Blackboard, constraints []string) string {
	var parts []string

	if industryLabel != "" {
		parts = append(parts,
			fmt.Sprintf("INDUSTRY CONTEXT: %s", industryLabel),
			"Tailor all advice specifically to this industry's norms, challenges, and best practices.",
			"",
		)
	}

	if previousContext != "" {
		parts = append(parts,
			"=== PREVIOUS CONSULTATION CONTEXT ===",
			"The user is continuing a consultation session. Here is what was previously discussed:",
			previousContext,
			"=== END OF PREVIOUS CONTEXT ===",
			"",
			"Now the user has a FOLLOW-UP QUESTION. Consider the above context when responding.",
			"",
		)
	}

	parts = append(parts, fmt.Sprintf("CURRENT QUESTION: %s", query), "")

	if len(constraints) > 0 {
		parts = append(parts, "CRITICAL USER CONSTRAINTS (FOLLOW EXACTLY):")
		for i, c := range constraints {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, c))
		}
		parts = append(parts, "")
	}

	parts = append(parts,
		fmt.Sprintf("CURRENT ROUND: %s", round.Name),
		fmt.Sprintf("YOUR TASK: %s", round.Instruction),
	)

	debateContext := bb.ContextFor(round.Number, constraints)
	if strings.TrimSpace(debateContext) != "" {
		parts = append(parts,
			"",
			"=== DEBATE SO FAR ===",
			debateContext,
			"=== END OF PRIOR DEBATE ===",
			"",
			"Now respond to the above. Reference other agents BY NAME when you agree or disagree with them.",
		)
	}

	return strings.Join(parts, "\n")
}
