package scoring

import (
	"fmt"

	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// ConfidenceBand clamps computed confidence away from 0 and 1, reflecting
// irreducible model uncertainty in either direction.
type ConfidenceBand struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Validate checks the band is ordered and inside (0, 1).
func (b ConfidenceBand) Validate() error {
	if b.Min <= 0 || b.Max >= 1 || b.Min > b.Max {
		return fmt.Errorf("confidence band must satisfy 0 < min <= max < 1, got [%.2f, %.2f]", b.Min, b.Max)
	}
	return nil
}

const (
	// Penalty per out-of-band signal, scaled by how far below the in-band
	// floor its sub-score fell. Total out-of-band penalty is capped.
	outOfBandPenalty    = 0.25
	outOfBandPenaltyCap = 0.5
	inBandFloor         = 70.0

	// Penalty applied in proportion to the fraction of expected signals
	// missing from the request.
	completenessPenalty = 0.3
)

// aggregate combines sub-scores with a non-negative weight table into one
// overall score on the 0-100 scale. Weights need not sum to 1; the result
// is normalized by the weight sum, so scaling every weight by the same
// positive constant leaves the overall score unchanged.
func aggregate(subs []signal.SubScore, weights map[signal.Name]float64) (float64, error) {
	var weightSum, scoreSum float64
	for _, s := range subs {
		w := weights[s.Signal]
		if w < 0 {
			return 0, &ConfigurationError{
				Reason: fmt.Sprintf("negative weight %.3f for signal %s", w, s.Signal),
			}
		}
		weightSum += w
		scoreSum += w * s.Score
	}
	if len(subs) > 0 && weightSum == 0 {
		return 0, &ConfigurationError{Reason: "weight table sums to zero for the active signal set"}
	}
	if weightSum == 0 {
		return 0, nil
	}
	return scoreSum / weightSum, nil
}

// computeConfidence derives confidence from (a) how far readings fell
// outside their acceptable band and (b) the fraction of expected signals
// actually present. The result is clamped to the configured band.
func computeConfidence(subs []signal.SubScore, expected, present int, band ConfidenceBand) float64 {
	conf := band.Max

	var outPenalty float64
	for _, s := range subs {
		if s.InBand && !s.Clamped {
			continue
		}
		severity := (inBandFloor - s.Score) / inBandFloor
		if severity < 0 {
			severity = 0
		} else if severity > 1 {
			severity = 1
		}
		outPenalty += outOfBandPenalty * severity
	}
	if outPenalty > outOfBandPenaltyCap {
		outPenalty = outOfBandPenaltyCap
	}
	conf -= outPenalty

	if expected > 0 && present < expected {
		conf -= completenessPenalty * float64(expected-present) / float64(expected)
	}

	if conf < band.Min {
		conf = band.Min
	}
	if conf > band.Max {
		conf = band.Max
	}
	return conf
}
