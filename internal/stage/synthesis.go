package stage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/creativity-controller/internal/memory"
)

// #region synthesis
// Synthesize renders the final report over the accepted ideas. The
// rendering is a pure function of its inputs: the same accepted set
// always produces the same report.
func Synthesize(originalRequest string, accepted []memory.IdeaRecord, failures []string) string {
	var b strings.Builder

	b.WriteString("# Final Synthesis\n\n")
	fmt.Fprintf(&b, "Request: %s\n\n", originalRequest)

	if len(accepted) == 0 {
		b.WriteString("No concepts met the acceptance threshold.\n")
	} else {
		fmt.Fprintf(&b, "## Accepted Concepts (%d)\n\n", len(accepted))
		for i, idea := range accepted {
			fmt.Fprintf(&b, "%d. %s (score %.1f, iteration %d)\n", i+1, idea.Concept, idea.QualityScore, idea.Iteration)
			for _, p := range idea.KeyPoints {
				fmt.Fprintf(&b, "   - %s\n", p)
			}
		}

		b.WriteString("\n## Recommendations\n\n")
		for i, idea := range topByScore(accepted, 3) {
			fmt.Fprintf(&b, "%d. Pursue %q first (score %.1f).\n", i+1, idea.Concept, idea.QualityScore)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintf(&b, "\n## Diagnostics (%d recoverable failures)\n\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	return b.String()
}

// topByScore returns the n highest-scored ideas, ties broken by
// chronological position for determinism.
func topByScore(accepted []memory.IdeaRecord, n int) []memory.IdeaRecord {
	ranked := make([]memory.IdeaRecord, len(accepted))
	copy(ranked, accepted)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore > ranked[j].QualityScore
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
// #endregion synthesis
