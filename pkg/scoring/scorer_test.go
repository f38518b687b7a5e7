package scoring_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
	"github.com/LH-eliza/berry-farm/pkg/signal"
)

func newTestScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(scoring.DefaultOptions())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func healthyRequest() scoring.Request {
	return scoring.Request{
		PlantID: "plant-001",
		Stage:   scoring.StageVegetative,
		Signals: map[signal.Name]float64{
			signal.Temperature:  21,
			signal.Humidity:     70,
			signal.SoilMoisture: 78,
			signal.PH:           6.0,
		},
	}
}

func TestScoreHealthyPlant(t *testing.T) {
	s := newTestScorer(t)

	result, err := s.Score(healthyRequest())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if result.OverallScore < 95 {
		t.Errorf("OverallScore = %.1f, want >= 95", result.OverallScore)
	}
	if result.Grade != "A" {
		t.Errorf("Grade = %q, want A", result.Grade)
	}
	if result.Action != scoring.ActionMaintain {
		t.Errorf("Action = %q, want maintain", result.Action)
	}
	if len(result.Rationale) == 0 {
		t.Error("expected non-empty rationale")
	}
	if len(result.SubScores) != 4 {
		t.Errorf("SubScores count = %d, want 4", len(result.SubScores))
	}
}

func TestScoreExtremeTemperature(t *testing.T) {
	s := newTestScorer(t)

	baseline, err := s.Score(healthyRequest())
	if err != nil {
		t.Fatalf("baseline Score: %v", err)
	}

	result, err := s.Score(scoring.Request{
		PlantID: "plant-002",
		Signals: map[signal.Name]float64{signal.Temperature: 35},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if len(result.SubScores) != 1 {
		t.Fatalf("SubScores count = %d, want 1", len(result.SubScores))
	}
	sub := result.SubScores[0]
	if !sub.Clamped {
		t.Error("expected temperature sub-score flagged as clamped")
	}
	if sub.Score != 0 {
		t.Errorf("clamped sub-score = %.1f, want floor 0", sub.Score)
	}
	if baseline.Confidence-result.Confidence < 0.2 {
		t.Errorf("confidence %.2f not reduced by >= 0.2 from baseline %.2f",
			result.Confidence, baseline.Confidence)
	}
	if result.Priority != scoring.PriorityCritical {
		t.Errorf("Priority = %v, want critical", result.Priority)
	}
}

func TestScoreMissingPlantID(t *testing.T) {
	s := newTestScorer(t)

	_, err := s.Score(scoring.Request{
		Signals: map[signal.Name]float64{signal.Temperature: 21},
	})
	if err == nil {
		t.Fatal("expected error for missing plant ID")
	}

	var invalid *scoring.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidInputError", err)
	}
	if invalid.Field != "plant_id" {
		t.Errorf("Field = %q, want plant_id", invalid.Field)
	}

	// Validation happens before any scoring executes: nothing recorded.
	if s.History().Len() != 0 {
		t.Errorf("history length = %d, want 0", s.History().Len())
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer(t)
	req := scoring.Request{
		PlantID: "plant-003",
		Stage:   scoring.StageFruiting,
		Signals: map[signal.Name]float64{
			signal.Temperature:  26.4,
			signal.Humidity:     55,
			signal.SoilMoisture: 62,
			signal.PH:           5.1,
			signal.Light:        180,
			signal.EC:           2.3,
		},
	}

	first, err := s.Score(req)
	if err != nil {
		t.Fatalf("first Score: %v", err)
	}
	second, err := s.Score(req)
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical requests produced different results:\n%+v\n%+v", first, second)
	}
}

func TestScoreWeightScaleInvariance(t *testing.T) {
	s := newTestScorer(t)

	weights := map[signal.Name]float64{
		signal.Temperature: 2,
		signal.Humidity:    1,
		signal.PH:          3,
	}
	scaled := map[signal.Name]float64{}
	for k, v := range weights {
		scaled[k] = v * 7.5
	}

	req := scoring.Request{
		PlantID: "plant-004",
		Signals: map[signal.Name]float64{
			signal.Temperature: 23,
			signal.Humidity:    58,
			signal.PH:          6.4,
		},
	}

	req.Weights = weights
	a, err := s.Score(req)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	req.Weights = scaled
	b, err := s.Score(req)
	if err != nil {
		t.Fatalf("Score with scaled weights: %v", err)
	}

	if math.Abs(a.OverallScore-b.OverallScore) > 1e-9 {
		t.Errorf("overall score changed under uniform weight scaling: %.12f vs %.12f",
			a.OverallScore, b.OverallScore)
	}
	if a.Grade != b.Grade {
		t.Errorf("grade changed under uniform weight scaling: %q vs %q", a.Grade, b.Grade)
	}
}

func TestScoreConfidenceBounds(t *testing.T) {
	s := newTestScorer(t)
	band := scoring.DefaultOptions().Confidence

	requests := []scoring.Request{
		healthyRequest(),
		{PlantID: "p", Signals: map[signal.Name]float64{signal.Temperature: 35}},
		{PlantID: "p", Signals: map[signal.Name]float64{}},
		{PlantID: "p", Signals: map[signal.Name]float64{
			signal.Temperature:  -100,
			signal.Humidity:     200,
			signal.SoilMoisture: -5,
			signal.PH:           20,
			signal.Light:        9000,
			signal.EC:           40,
		}},
	}

	for i, req := range requests {
		result, err := s.Score(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if result.Confidence < band.Min || result.Confidence > band.Max {
			t.Errorf("request %d: confidence %.3f outside [%.2f, %.2f]",
				i, result.Confidence, band.Min, band.Max)
		}
	}
}

func TestScoreNegativeWeightOverride(t *testing.T) {
	s := newTestScorer(t)

	_, err := s.Score(scoring.Request{
		PlantID: "plant-005",
		Signals: map[signal.Name]float64{signal.Temperature: 21},
		Weights: map[signal.Name]float64{signal.Temperature: -1},
	})

	var cfgErr *scoring.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestScoreUnknownStageFallsBack(t *testing.T) {
	s := newTestScorer(t)

	result, err := s.Score(scoring.Request{
		PlantID: "plant-006",
		Stage:   "dormant",
		Signals: map[signal.Name]float64{signal.Temperature: 21},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if result.Stage != scoring.StageVegetative {
		t.Errorf("Stage = %q, want fallback to %q", result.Stage, scoring.StageVegetative)
	}

	found := false
	for _, line := range result.Rationale {
		if strings.Contains(line, "unknown growth stage") {
			found = true
		}
	}
	if !found {
		t.Errorf("rationale %v should mention the unknown stage", result.Rationale)
	}
}

func TestScoreMissingSignalsLowerConfidence(t *testing.T) {
	s := newTestScorer(t)

	full, err := s.Score(scoring.Request{
		PlantID: "plant-007",
		Signals: map[signal.Name]float64{
			signal.Temperature:  21,
			signal.Humidity:     70,
			signal.SoilMoisture: 78,
			signal.PH:           6.0,
			signal.Light:        350,
			signal.EC:           1.4,
		},
	})
	if err != nil {
		t.Fatalf("Score full: %v", err)
	}

	partial, err := s.Score(healthyRequest())
	if err != nil {
		t.Fatalf("Score partial: %v", err)
	}

	if partial.Confidence >= full.Confidence {
		t.Errorf("partial data confidence %.3f should be below full data %.3f",
			partial.Confidence, full.Confidence)
	}
	if len(partial.Missing) != 2 {
		t.Errorf("Missing = %v, want light and ec", partial.Missing)
	}
}

func TestNewScorerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*scoring.Options)
	}{
		{"no stages", func(o *scoring.Options) { o.Stages = nil }},
		{"missing default stage", func(o *scoring.Options) { o.DefaultStage = "nonexistent" }},
		{"bad confidence band", func(o *scoring.Options) { o.Confidence = scoring.ConfidenceBand{Min: 0.9, Max: 0.2} }},
		{"zero history size", func(o *scoring.Options) { o.HistorySize = 0 }},
		{"negative weight", func(o *scoring.Options) {
			p := o.Stages[scoring.StageVegetative]
			p.Weights[signal.PH] = -0.5
		}},
		{"zero weight sum", func(o *scoring.Options) {
			p := o.Stages[scoring.StageVegetative]
			for k := range p.Weights {
				p.Weights[k] = 0
			}
		}},
		{"unknown signal in weights", func(o *scoring.Options) {
			p := o.Stages[scoring.StageVegetative]
			p.Weights[signal.Name("co2")] = 1
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := scoring.DefaultOptions()
			tc.mutate(&opts)
			_, err := scoring.NewScorer(opts)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var cfgErr *scoring.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %v, want ConfigurationError", err)
			}
		})
	}
}
