package scoring

import (
	"fmt"

	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// Finding is the outcome selected by the rule cascade for one scoring call.
type Finding struct {
	Rule     string        `json:"rule"`
	Action   Action        `json:"action"`
	Priority Priority      `json:"priority"`
	Reason   string        `json:"reason"`
	Signals  []signal.Name `json:"signals,omitempty"` // triggering signals
}

// Rule pairs a predicate with the outcome it produces. Evaluate returns nil
// when the rule does not match. Rules must be deterministic: the same
// sub-scores always produce the same outcome.
type Rule struct {
	Name     string
	Evaluate func(subs []signal.SubScore) *Finding
}

// Cascade evaluates an ordered list of rules, stopping at the first match.
// When nothing matches it falls through to a maintain/no-action outcome.
type Cascade struct {
	rules []Rule
}

// NewCascade creates a cascade over the given rules, evaluated in order.
func NewCascade(rules ...Rule) *Cascade {
	return &Cascade{rules: rules}
}

// Evaluate runs the cascade. Sub-scores must be in canonical signal order
// so that tie-breaking is stable across calls.
func (c *Cascade) Evaluate(subs []signal.SubScore) Finding {
	for _, r := range c.rules {
		if f := r.Evaluate(subs); f != nil {
			f.Rule = r.Name
			return *f
		}
	}
	return Finding{
		Rule:     "default",
		Action:   ActionMaintain,
		Priority: PriorityLow,
		Reason:   "all signals within acceptable ranges",
	}
}

// worstSub returns the lowest-scoring sub-score. Ties resolve to the
// earliest signal in canonical order.
func worstSub(subs []signal.SubScore) (signal.SubScore, bool) {
	if len(subs) == 0 {
		return signal.SubScore{}, false
	}
	worst := subs[0]
	for _, s := range subs[1:] {
		if s.Score < worst.Score {
			worst = s
		}
	}
	return worst, true
}

// DefaultRules returns the standard advisory cascade, ordered from most to
// least severe.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "sensor_clamped",
			Evaluate: func(subs []signal.SubScore) *Finding {
				var hit []signal.Name
				var first *signal.SubScore
				for i := range subs {
					if subs[i].Clamped {
						if first == nil {
							first = &subs[i]
						}
						hit = append(hit, subs[i].Signal)
					}
				}
				if first == nil {
					return nil
				}
				return &Finding{
					Action:   ActionEmergency,
					Priority: PriorityCritical,
					Reason: fmt.Sprintf("%s reading %.1f is pinned at a sensor limit; verify the sensor before acting",
						first.Signal, first.Raw),
					Signals: hit,
				}
			},
		},
		{
			Name: "severe_deviation",
			Evaluate: func(subs []signal.SubScore) *Finding {
				worst, ok := worstSub(subs)
				if !ok || worst.Score >= 40 {
					return nil
				}
				return &Finding{
					Action:   ActionIntervene,
					Priority: PriorityHigh,
					Reason: fmt.Sprintf("%s reading %.1f is critically out of range (sub-score %.0f)",
						worst.Signal, worst.Raw, worst.Score),
					Signals: []signal.Name{worst.Signal},
				}
			},
		},
		{
			Name: "moderate_deviation",
			Evaluate: func(subs []signal.SubScore) *Finding {
				worst, ok := worstSub(subs)
				if !ok || worst.Score >= 70 {
					return nil
				}
				return &Finding{
					Action:   ActionAdjust,
					Priority: PriorityMedium,
					Reason: fmt.Sprintf("%s reading %.1f has drifted outside the target band (sub-score %.0f)",
						worst.Signal, worst.Raw, worst.Score),
					Signals: []signal.Name{worst.Signal},
				}
			},
		},
		{
			Name: "multi_signal_drift",
			Evaluate: func(subs []signal.SubScore) *Finding {
				var drifting []signal.Name
				for _, s := range subs {
					if s.Score < 90 {
						drifting = append(drifting, s.Signal)
					}
				}
				if len(drifting) < 2 {
					return nil
				}
				return &Finding{
					Action:   ActionAdjust,
					Priority: PriorityLow,
					Reason:   fmt.Sprintf("%d signals drifting from optimal: %v", len(drifting), drifting),
					Signals:  drifting,
				}
			},
		},
	}
}
