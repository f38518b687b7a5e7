// Package scoring implements the berry-farm crop advisory scoring engine.
// It normalizes raw greenhouse signals into sub-scores, runs a deterministic
// rule cascade, and aggregates everything into an explainable result.
package scoring

import (
	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// Request is a single scoring invocation: one plant, one set of readings.
type Request struct {
	PlantID string                  `json:"plant_id"`
	Stage   string                  `json:"stage,omitempty"`
	Signals map[signal.Name]float64 `json:"signals"`
	// Weights optionally overrides the stage weight table for this call.
	Weights map[signal.Name]float64 `json:"weights,omitempty"`
}

// Result is the complete output of one scoring call.
// Immutable once computed, and a pure function of the Request: identical
// requests produce identical Results.
type Result struct {
	PlantID      string         `json:"plant_id"`
	Stage        string         `json:"stage"`
	OverallScore float64        `json:"overall_score"` // 0-100
	Confidence   float64        `json:"confidence"`    // within the configured band
	Grade        string         `json:"grade"`         // A, B, C, D, F
	Action       Action         `json:"action"`
	Priority     Priority       `json:"priority"`
	Rationale    []string       `json:"rationale"` // highest priority first
	SubScores    []SubScoreView `json:"sub_scores"`
	Missing      []signal.Name  `json:"missing_signals,omitempty"`
}

// SubScoreView is one signal's contribution as reported in a Result.
type SubScoreView struct {
	Signal  signal.Name `json:"signal"`
	Raw     float64     `json:"raw"`
	Score   float64     `json:"score"`
	Weight  float64     `json:"weight"`
	Clamped bool        `json:"clamped,omitempty"`
	InBand  bool        `json:"in_band"`
}

// Action is the recommended operator response.
type Action string

const (
	ActionMaintain  Action = "maintain"
	ActionAdjust    Action = "adjust"
	ActionIntervene Action = "intervene"
	ActionEmergency Action = "emergency"
)

// Priority ranks how urgently a finding should be addressed.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText makes Priority serialize as its name rather than an integer.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a priority name.
func (p *Priority) UnmarshalText(b []byte) error {
	switch string(b) {
	case "critical":
		*p = PriorityCritical
	case "high":
		*p = PriorityHigh
	case "medium":
		*p = PriorityMedium
	default:
		*p = PriorityLow
	}
	return nil
}

// GradeFromScore maps an overall score to a letter grade.
func GradeFromScore(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
