package scoring

import (
	"fmt"

	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// Scorer evaluates scoring requests against per-stage profiles.
// Construction validates all configuration up front; after that a Scorer
// is safe for concurrent use, the only mutable state being the bounded
// history buffer.
type Scorer struct {
	stages       map[string]Profile
	defaultStage string
	band         ConfidenceBand
	cascade      *Cascade
	history      *History
}

// NewScorer builds a Scorer from options, rejecting bad configuration
// (unknown signal names, negative weights, malformed ranges) here rather
// than at scoring time.
func NewScorer(opts Options) (*Scorer, error) {
	if len(opts.Stages) == 0 {
		return nil, &ConfigurationError{Reason: "no stage profiles configured"}
	}
	if _, ok := opts.Stages[opts.DefaultStage]; !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("default stage %q has no profile", opts.DefaultStage)}
	}
	if err := opts.Confidence.Validate(); err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	if opts.HistorySize <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("history size must be positive, got %d", opts.HistorySize)}
	}

	for stage, p := range opts.Stages {
		if err := validateProfile(p); err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("stage %q: %v", stage, err)}
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	return &Scorer{
		stages:       opts.Stages,
		defaultStage: opts.DefaultStage,
		band:         opts.Confidence,
		cascade:      NewCascade(rules...),
		history:      NewHistory(opts.HistorySize),
	}, nil
}

func validateProfile(p Profile) error {
	var weightSum float64
	for name, w := range p.Weights {
		if _, err := signal.ParseName(string(name)); err != nil {
			return err
		}
		if w < 0 {
			return fmt.Errorf("negative weight %.3f for signal %s", w, name)
		}
		weightSum += w
	}
	if weightSum == 0 {
		return fmt.Errorf("weight table sums to zero")
	}
	for name, r := range p.Ranges {
		if _, err := signal.ParseName(string(name)); err != nil {
			return err
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("signal %s: %w", name, err)
		}
	}
	return nil
}

// History exposes the scorer's bounded sample buffer.
func (s *Scorer) History() *History {
	return s.history
}

// Score evaluates one request. A missing plant identifier raises
// InvalidInputError before any scoring executes; all other input anomalies
// (out-of-range readings, absent signals, unknown stage) degrade confidence
// instead of failing.
func (s *Scorer) Score(req Request) (*Result, error) {
	if req.PlantID == "" {
		return nil, &InvalidInputError{Field: "plant_id"}
	}

	stage := req.Stage
	profile, ok := s.stages[stage]
	unknownStage := false
	if !ok {
		unknownStage = stage != ""
		stage = s.defaultStage
		profile = s.stages[stage]
	}

	weights := profile.Weights
	if req.Weights != nil {
		for name, w := range req.Weights {
			if _, err := signal.ParseName(string(name)); err != nil {
				return nil, &ConfigurationError{Reason: err.Error()}
			}
			if w < 0 {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("negative weight %.3f for signal %s", w, name)}
			}
		}
		weights = req.Weights
	}

	// Walk signals in canonical order so results are bit-identical for
	// identical inputs regardless of map iteration order.
	var subs []signal.SubScore
	var missing []signal.Name
	expected := 0
	for _, name := range signal.KnownNames() {
		r, hasRange := profile.Ranges[name]
		if !hasRange || weights[name] <= 0 {
			continue
		}
		expected++
		raw, present := req.Signals[name]
		if !present {
			missing = append(missing, name)
			continue
		}
		subs = append(subs, signal.Normalize(name, raw, r))
	}

	overall, err := aggregate(subs, weights)
	if err != nil {
		return nil, err
	}

	finding := s.cascade.Evaluate(subs)
	conf := computeConfidence(subs, expected, len(subs), s.band)
	rationale := recommend(finding, subs, profile.Ranges, missing)
	if unknownStage {
		rationale = append(rationale,
			fmt.Sprintf("unknown growth stage %q; scored with the %s profile", req.Stage, stage))
	}

	views := make([]SubScoreView, len(subs))
	for i, sub := range subs {
		views[i] = SubScoreView{
			Signal:  sub.Signal,
			Raw:     sub.Raw,
			Score:   sub.Score,
			Weight:  weights[sub.Signal],
			Clamped: sub.Clamped,
			InBand:  sub.InBand,
		}
	}

	result := &Result{
		PlantID:      req.PlantID,
		Stage:        stage,
		OverallScore: overall,
		Confidence:   conf,
		Grade:        GradeFromScore(overall),
		Action:       finding.Action,
		Priority:     finding.Priority,
		Rationale:    rationale,
		SubScores:    views,
		Missing:      missing,
	}

	s.history.Append(Sample{Request: req, Result: *result})

	return result, nil
}
