package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// adviceThreshold is the sub-score below which a signal earns its own
// guidance line in the rationale.
const adviceThreshold = 90.0

// recommend maps the cascade outcome and sub-results to an ordered list of
// human-readable guidance strings, highest priority issue first. Pure: no
// side effects, no I/O.
func recommend(finding Finding, subs []signal.SubScore, ranges map[signal.Name]signal.Range, missing []signal.Name) []string {
	rationale := []string{finding.Reason}

	// Per-signal guidance, worst first. Input is in canonical signal order,
	// so a stable sort keeps ties deterministic.
	ordered := make([]signal.SubScore, len(subs))
	copy(ordered, subs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score < ordered[j].Score })

	for _, s := range ordered {
		if s.Score >= adviceThreshold {
			continue
		}
		r, ok := ranges[s.Signal]
		if !ok {
			continue
		}
		verb := "raise"
		if s.Raw > r.Optimal {
			verb = "lower"
		}
		rationale = append(rationale,
			fmt.Sprintf("%s %s from %.1f toward %.1f (sub-score %.0f)", verb, s.Signal, s.Raw, r.Optimal, s.Score))
	}

	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		rationale = append(rationale,
			fmt.Sprintf("no reading for %s; confidence reduced", strings.Join(names, ", ")))
	}

	if finding.Action == ActionMaintain && len(rationale) == 1 {
		rationale = append(rationale, "conditions are healthy; keep the current regimen")
	}

	return rationale
}
