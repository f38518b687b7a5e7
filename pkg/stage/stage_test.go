package stage_test

import (
	"testing"
	"time"

	"github.com/LH-eliza/berry-farm/pkg/stage"
)

const day = 24 * time.Hour

func TestScheduleProgressLinear(t *testing.T) {
	s := stage.Default(false)

	// Midway through establishment (14 days).
	pos := s.At(7 * day)
	if pos.Stage != "establishment" {
		t.Errorf("Stage = %q, want establishment", pos.Stage)
	}
	if pos.Progress != 50 {
		t.Errorf("Progress = %v, want 50", pos.Progress)
	}
	if pos.Cycle != 0 {
		t.Errorf("Cycle = %d, want 0", pos.Cycle)
	}
}

func TestScheduleStageBoundaries(t *testing.T) {
	s := stage.Default(false)

	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "establishment"},
		{13 * day, "establishment"},
		{14 * day, "vegetative"},
		{34 * day, "vegetative"},
		{35 * day, "flowering"},
		{49 * day, "fruiting"},
		{77 * day, "harvest"},
	}

	for _, tc := range tests {
		pos := s.At(tc.elapsed)
		if pos.Stage != tc.want {
			t.Errorf("At(%v) = %q, want %q", tc.elapsed, pos.Stage, tc.want)
		}
	}
}

func TestScheduleTerminalClamp(t *testing.T) {
	s := stage.Default(false)

	// Total is 91 days; beyond that a June-bearing plant stays in harvest.
	pos := s.At(200 * day)
	if pos.Stage != "harvest" {
		t.Errorf("Stage = %q, want harvest", pos.Stage)
	}
	if pos.Progress != 100 {
		t.Errorf("Progress = %v, want 100", pos.Progress)
	}
}

func TestScheduleCyclicalWrap(t *testing.T) {
	s := stage.Default(true)

	// 91 days is one full cycle; 98 days is 7 days into the second pass.
	pos := s.At(98 * day)
	if pos.Stage != "establishment" {
		t.Errorf("Stage = %q, want establishment after wrap", pos.Stage)
	}
	if pos.Cycle != 1 {
		t.Errorf("Cycle = %d, want 1", pos.Cycle)
	}
	if pos.Progress != 50 {
		t.Errorf("Progress = %v, want 50", pos.Progress)
	}
}

func TestScheduleNegativeElapsed(t *testing.T) {
	s := stage.Default(false)
	pos := s.At(-3 * day)
	if pos.Stage != "establishment" || pos.Progress != 0 {
		t.Errorf("At(negative) = %+v, want establishment at 0", pos)
	}
}

func TestNewScheduleValidation(t *testing.T) {
	if _, err := stage.NewSchedule(nil, false); err == nil {
		t.Error("expected error for empty schedule")
	}
	if _, err := stage.NewSchedule([]stage.Stage{{Name: "", Duration: day}}, false); err == nil {
		t.Error("expected error for empty stage name")
	}
	if _, err := stage.NewSchedule([]stage.Stage{{Name: "veg", Duration: 0}}, false); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestAtTime(t *testing.T) {
	s := stage.Default(false)
	planted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := planted.Add(21 * day)

	pos := s.AtTime(planted, now)
	if pos.Stage != "vegetative" {
		t.Errorf("Stage = %q, want vegetative", pos.Stage)
	}
}
