package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LH-eliza/berry-farm/pkg/config"
	"github.com/LH-eliza/berry-farm/pkg/scoring"
	"github.com/LH-eliza/berry-farm/pkg/signal"
	"github.com/LH-eliza/berry-farm/pkg/surface"
)

func newScoreCmd() *cobra.Command {
	var (
		plantID    string
		stageName  string
		signals    []string
		weights    []string
		inputPath  string
		outputFmt  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a set of sensor readings for one plant",
		Long: `Normalizes raw sensor readings against the stage profile, aggregates
them into an overall score, and prints the graded result with guidance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(scoreOpts{
				plantID:    plantID,
				stageName:  stageName,
				signals:    signals,
				weights:    weights,
				inputPath:  inputPath,
				outputFmt:  outputFmt,
				configPath: configPath,
			})
		},
	}

	cmd.Flags().StringVar(&plantID, "plant", "", "Plant identifier (required unless --input provides one)")
	cmd.Flags().StringVar(&stageName, "stage", "", "Growth stage (default: configured default stage)")
	cmd.Flags().StringArrayVar(&signals, "signal", nil, "Sensor reading as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&weights, "weight", nil, "Weight override as name=value (repeatable)")
	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON request file (use - for stdin)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: discover .berryfarm/config.yaml)")

	return cmd
}

type scoreOpts struct {
	plantID    string
	stageName  string
	signals    []string
	weights    []string
	inputPath  string
	outputFmt  string
	configPath string
}

func runScore(opts scoreOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	scorer, err := scoring.NewScorer(cfg.ScoringOptions())
	if err != nil {
		return err
	}

	req := scoring.Request{}
	if opts.inputPath != "" {
		if err := readRequestFile(opts.inputPath, &req); err != nil {
			return err
		}
	}

	// Flags layer over the input file.
	if opts.plantID != "" {
		req.PlantID = opts.plantID
	}
	if opts.stageName != "" {
		req.Stage = opts.stageName
	}
	if len(opts.signals) > 0 {
		parsed, err := parseSignalValues(opts.signals)
		if err != nil {
			return err
		}
		if req.Signals == nil {
			req.Signals = map[signal.Name]float64{}
		}
		for name, v := range parsed {
			req.Signals[name] = v
		}
	}
	if len(opts.weights) > 0 {
		parsed, err := parseSignalValues(opts.weights)
		if err != nil {
			return err
		}
		if req.Weights == nil {
			req.Weights = map[signal.Name]float64{}
		}
		for name, v := range parsed {
			req.Weights[name] = v
		}
	}

	result, err := scorer.Score(req)
	if err != nil {
		return err
	}

	var renderer surface.Renderer
	switch opts.outputFmt {
	case "json":
		renderer = &surface.JSONRenderer{}
	default:
		renderer = &surface.TerminalRenderer{}
	}
	return renderer.Render(os.Stdout, result)
}

func readRequestFile(path string, req *scoring.Request) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}
	return nil
}

// parseSignalValues parses repeated name=value flags into a signal map.
func parseSignalValues(pairs []string) (map[signal.Name]float64, error) {
	out := make(map[signal.Name]float64, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid signal %q: expected name=value", pair)
		}
		n, err := signal.ParseName(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q", n, value)
		}
		out[n] = v
	}
	return out, nil
}

// loadConfig resolves and loads the config file, falling back to discovery
// from the working directory when no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		path = config.FindConfigFile(cwd)
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}
