// Package config handles loading and managing berry-farm configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
	"github.com/LH-eliza/berry-farm/pkg/stage"
)

// Config is the top-level configuration for berry-farm tooling.
type Config struct {
	Scoring  ScoringConfig  `yaml:"scoring"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// ScoringConfig overrides pieces of the built-in scoring options. Anything
// left unset falls back to the defaults; stage profiles given here replace
// the built-in profile for that stage wholesale.
type ScoringConfig struct {
	DefaultStage string                     `yaml:"default_stage"`
	HistorySize  int                        `yaml:"history_size"`
	Confidence   *scoring.ConfidenceBand    `yaml:"confidence"`
	Stages       map[string]scoring.Profile `yaml:"stages"`
}

// ScheduleConfig describes the growth-stage schedule.
type ScheduleConfig struct {
	Cyclical bool          `yaml:"cyclical"`
	Stages   []StageConfig `yaml:"stages"`
}

// StageConfig is one growth stage with its duration in days.
type StageConfig struct {
	Name string  `yaml:"name"`
	Days float64 `yaml:"days"`
}

// DefaultConfig returns a Config that resolves to the built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// FindConfigFile looks for .berryfarm/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".berryfarm", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ScoringOptions resolves the config into complete scorer options,
// layering overrides onto the built-in defaults.
func (c *Config) ScoringOptions() scoring.Options {
	opts := scoring.DefaultOptions()

	if c.Scoring.DefaultStage != "" {
		opts.DefaultStage = c.Scoring.DefaultStage
	}
	if c.Scoring.HistorySize > 0 {
		opts.HistorySize = c.Scoring.HistorySize
	}
	if c.Scoring.Confidence != nil {
		opts.Confidence = *c.Scoring.Confidence
	}
	for name, p := range c.Scoring.Stages {
		opts.Stages[name] = p
	}

	return opts
}

// GrowthSchedule resolves the configured schedule, or the built-in
// strawberry schedule when none is given.
func (c *Config) GrowthSchedule() (*stage.Schedule, error) {
	if len(c.Schedule.Stages) == 0 {
		return stage.Default(c.Schedule.Cyclical), nil
	}

	stages := make([]stage.Stage, 0, len(c.Schedule.Stages))
	for _, sc := range c.Schedule.Stages {
		stages = append(stages, stage.Stage{
			Name:     sc.Name,
			Duration: time.Duration(sc.Days * float64(24*time.Hour)),
		})
	}
	return stage.NewSchedule(stages, c.Schedule.Cyclical)
}
