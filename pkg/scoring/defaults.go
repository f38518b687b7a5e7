package scoring

import "github.com/LH-eliza/berry-farm/pkg/signal"

// Profile is the scoring context for one growth stage: the target range
// and relative weight of each signal. Profiles are fixed at construction
// and never mutated during a scoring call.
type Profile struct {
	Ranges  map[signal.Name]signal.Range `yaml:"ranges" json:"ranges"`
	Weights map[signal.Name]float64      `yaml:"weights" json:"weights"`
}

// Growth stage names recognized by the default profiles.
const (
	StageEstablishment = "establishment"
	StageVegetative    = "vegetative"
	StageFlowering     = "flowering"
	StageFruiting      = "fruiting"
	StageHarvest       = "harvest"
)

// baseRanges are the day-greenhouse targets shared by all stages.
// Thresholds are placeholder configuration pending agronomist review,
// not calibrated values.
func baseRanges() map[signal.Name]signal.Range {
	return map[signal.Name]signal.Range{
		signal.Temperature:  {Min: 18, Optimal: 21, Max: 24, Tolerance: 1.5, PhysicalMin: 10, PhysicalMax: 35},
		signal.Humidity:     {Min: 60, Optimal: 70, Max: 80, Tolerance: 5, PhysicalMin: 0, PhysicalMax: 100},
		signal.SoilMoisture: {Min: 70, Optimal: 77.5, Max: 85, Tolerance: 4, PhysicalMin: 0, PhysicalMax: 100},
		signal.PH:           {Min: 5.5, Optimal: 6.0, Max: 6.5, Tolerance: 0.2, PhysicalMin: 0, PhysicalMax: 14},
		signal.Light:        {Min: 200, Optimal: 350, Max: 500, Tolerance: 50, PhysicalMin: 0, PhysicalMax: 2000},
		signal.EC:           {Min: 1.0, Optimal: 1.4, Max: 1.8, Tolerance: 0.2, PhysicalMin: 0, PhysicalMax: 10},
	}
}

func baseWeights() map[signal.Name]float64 {
	return map[signal.Name]float64{
		signal.Temperature:  1.5,
		signal.Humidity:     1.0,
		signal.SoilMoisture: 1.5,
		signal.PH:           1.0,
		signal.Light:        1.0,
		signal.EC:           0.5,
	}
}

// DefaultProfiles returns the built-in per-stage profiles. Later stages
// shift emphasis: establishment favors soil moisture, flowering and
// fruiting favor light and nutrient concentration.
func DefaultProfiles() map[string]Profile {
	profiles := make(map[string]Profile)

	for _, stage := range []string{StageEstablishment, StageVegetative, StageFlowering, StageFruiting, StageHarvest} {
		p := Profile{Ranges: baseRanges(), Weights: baseWeights()}
		switch stage {
		case StageEstablishment:
			p.Weights[signal.SoilMoisture] = 2.0
			p.Weights[signal.Light] = 0.5
		case StageFlowering:
			p.Weights[signal.Light] = 1.5
			p.Weights[signal.Temperature] = 2.0
			r := p.Ranges[signal.Temperature]
			r.Min, r.Optimal, r.Max = 16, 19, 22
			p.Ranges[signal.Temperature] = r
		case StageFruiting:
			p.Weights[signal.Light] = 1.5
			p.Weights[signal.EC] = 1.0
			r := p.Ranges[signal.EC]
			r.Min, r.Optimal, r.Max = 1.2, 1.6, 2.0
			p.Ranges[signal.EC] = r
		case StageHarvest:
			p.Weights[signal.Humidity] = 1.5 // fruit rot risk
		}
		profiles[stage] = p
	}

	return profiles
}

// Options configures a Scorer.
type Options struct {
	Stages       map[string]Profile
	DefaultStage string
	Confidence   ConfidenceBand
	Rules        []Rule // nil means DefaultRules
	HistorySize  int
}

// DefaultOptions returns the standard scorer configuration.
func DefaultOptions() Options {
	return Options{
		Stages:       DefaultProfiles(),
		DefaultStage: StageVegetative,
		Confidence:   ConfidenceBand{Min: 0.3, Max: 0.97},
		HistorySize:  500,
	}
}
