// Package stage models the strawberry growth cycle as a fixed ordered
// sequence of named stages with configured durations.
package stage

import (
	"fmt"
	"time"
)

// Stage is one step of the growth cycle.
type Stage struct {
	Name     string        `yaml:"name" json:"name"`
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// Position locates a plant within its schedule at a point in time.
type Position struct {
	Stage    string  `json:"stage"`
	Index    int     `json:"index"`
	Progress float64 `json:"progress"` // 0-100 within the current stage
	Cycle    int     `json:"cycle"`    // 0 for the first pass; >0 only for cyclical schedules
}

// Schedule is an ordered cycle of growth stages. When cyclical, the
// terminal stage wraps back to the first; everbearing cultivars flower and
// fruit repeatedly, June-bearing ones do not.
type Schedule struct {
	stages   []Stage
	total    time.Duration
	cyclical bool
}

// NewSchedule validates and builds a schedule.
func NewSchedule(stages []Stage, cyclical bool) (*Schedule, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("schedule requires at least one stage")
	}
	var total time.Duration
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if s.Duration <= 0 {
			return nil, fmt.Errorf("stage %q has non-positive duration", s.Name)
		}
		total += s.Duration
	}
	out := make([]Stage, len(stages))
	copy(out, stages)
	return &Schedule{stages: out, total: total, cyclical: cyclical}, nil
}

// Default returns the built-in strawberry schedule. Cyclical schedules are
// for everbearing cultivars.
func Default(cyclical bool) *Schedule {
	s, err := NewSchedule([]Stage{
		{Name: "establishment", Duration: 14 * 24 * time.Hour},
		{Name: "vegetative", Duration: 21 * 24 * time.Hour},
		{Name: "flowering", Duration: 14 * 24 * time.Hour},
		{Name: "fruiting", Duration: 28 * 24 * time.Hour},
		{Name: "harvest", Duration: 14 * 24 * time.Hour},
	}, cyclical)
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return s
}

// Stages returns a copy of the schedule's stages in order.
func (s *Schedule) Stages() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}

// At returns the position for the given elapsed time since planting.
// Negative elapsed is treated as zero. For non-cyclical schedules, elapsed
// beyond the final stage pins at the terminal stage with progress 100.
func (s *Schedule) At(elapsed time.Duration) Position {
	if elapsed < 0 {
		elapsed = 0
	}

	cycle := 0
	if s.cyclical {
		cycle = int(elapsed / s.total)
		elapsed = elapsed % s.total
	} else if elapsed >= s.total {
		last := s.stages[len(s.stages)-1]
		return Position{Stage: last.Name, Index: len(s.stages) - 1, Progress: 100}
	}

	var start time.Duration
	for i, st := range s.stages {
		end := start + st.Duration
		if elapsed < end || i == len(s.stages)-1 {
			progress := 100 * float64(elapsed-start) / float64(st.Duration)
			if progress < 0 {
				progress = 0
			}
			if progress > 100 {
				progress = 100
			}
			return Position{Stage: st.Name, Index: i, Progress: progress, Cycle: cycle}
		}
		start = end
	}

	// Unreachable: the loop always returns on the last stage.
	last := s.stages[len(s.stages)-1]
	return Position{Stage: last.Name, Index: len(s.stages) - 1, Progress: 100, Cycle: cycle}
}

// AtTime is a convenience wrapper over At for a planting timestamp.
func (s *Schedule) AtTime(plantedAt, now time.Time) Position {
	return s.At(now.Sub(plantedAt))
}
