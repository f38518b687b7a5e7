// Package signal defines the measured greenhouse signals and the
// normalizer that converts raw readings into bounded sub-scores.
package signal

import "fmt"

// Name identifies a measured signal. The set of names is closed:
// configuration referencing an unknown name is rejected at construction.
type Name string

const (
	Temperature  Name = "temperature"  // degrees Celsius
	Humidity     Name = "humidity"     // relative humidity percent
	SoilMoisture Name = "soilMoisture" // volumetric percent
	PH           Name = "ph"
	Light        Name = "light" // PPFD, umol/m2/s
	EC           Name = "ec"    // electrical conductivity, mS/cm
)

// KnownNames returns all recognized signal names in canonical order.
// The order is fixed so that evaluation over signals is deterministic.
func KnownNames() []Name {
	return []Name{Temperature, Humidity, SoilMoisture, PH, Light, EC}
}

// ParseName validates a raw signal name against the closed set.
func ParseName(s string) (Name, error) {
	for _, n := range KnownNames() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown signal name %q", s)
}

// Range describes the acceptable band for one signal.
// Values inside [Min, Max] are acceptable; values within Tolerance of
// Optimal score full marks. PhysicalMin and PhysicalMax bound what the
// sensor can plausibly report; readings outside are clamped, not rejected.
type Range struct {
	Min         float64 `yaml:"min" json:"min"`
	Optimal     float64 `yaml:"optimal" json:"optimal"`
	Max         float64 `yaml:"max" json:"max"`
	Tolerance   float64 `yaml:"tolerance" json:"tolerance"`
	PhysicalMin float64 `yaml:"physical_min" json:"physical_min"`
	PhysicalMax float64 `yaml:"physical_max" json:"physical_max"`
}

// Validate checks internal consistency of the range.
func (r Range) Validate() error {
	if !(r.Min <= r.Optimal && r.Optimal <= r.Max) {
		return fmt.Errorf("range requires min <= optimal <= max, got %.2f/%.2f/%.2f", r.Min, r.Optimal, r.Max)
	}
	if r.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %.2f", r.Tolerance)
	}
	if !(r.PhysicalMin <= r.Min && r.Max <= r.PhysicalMax) {
		return fmt.Errorf("physical bounds [%.2f, %.2f] must contain [%.2f, %.2f]",
			r.PhysicalMin, r.PhysicalMax, r.Min, r.Max)
	}
	return nil
}

// SubScore is the normalized contribution of one signal.
// It is a pure function of (Raw, Range); no hidden state.
type SubScore struct {
	Signal  Name    `json:"signal"`
	Raw     float64 `json:"raw"`
	Score   float64 `json:"score"` // 0-100
	Clamped bool    `json:"clamped,omitempty"`
	InBand  bool    `json:"in_band"` // inside [Min, Max]
}

// boundScore is the sub-score assigned exactly at Min or Max. Between the
// tolerance band and the bound the score decays linearly from 100 to this
// value; beyond the bound it decays linearly to 0 at the physical limit.
const boundScore = 70.0

// Normalize converts a raw reading into a SubScore against the given range.
// Monotonic by construction: moving farther from Optimal never increases
// the score. Out-of-physical-range readings are clamped and flagged rather
// than rejected.
func Normalize(name Name, raw float64, r Range) SubScore {
	s := SubScore{Signal: name, Raw: raw}

	// A reading pinned at or beyond the sensor's physical limit is suspect;
	// clamp it and flag it instead of rejecting the call.
	v := raw
	if v <= r.PhysicalMin {
		v = r.PhysicalMin
		s.Clamped = true
	} else if v >= r.PhysicalMax {
		v = r.PhysicalMax
		s.Clamped = true
	}

	s.InBand = v >= r.Min && v <= r.Max

	dist := v - r.Optimal
	if dist < 0 {
		dist = -dist
	}
	if dist <= r.Tolerance {
		s.Score = 100
		return s
	}

	// Distances measured from the edge of the tolerance band on the side
	// the value falls, so each segment is a decreasing linear ramp.
	var bound, phys float64
	if v < r.Optimal {
		bound = r.Optimal - r.Min
		phys = r.Optimal - r.PhysicalMin
	} else {
		bound = r.Max - r.Optimal
		phys = r.PhysicalMax - r.Optimal
	}

	if s.InBand {
		span := bound - r.Tolerance
		if span <= 0 {
			s.Score = boundScore
			return s
		}
		s.Score = 100 - (100-boundScore)*(dist-r.Tolerance)/span
		return s
	}

	span := phys - bound
	if span <= 0 {
		s.Score = 0
		return s
	}
	s.Score = boundScore * (1 - (dist-bound)/span)
	if s.Score < 0 {
		s.Score = 0
	}
	return s
}
