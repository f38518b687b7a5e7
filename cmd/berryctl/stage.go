package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	var (
		plantedStr string
		cyclical   bool
		outputFmt  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Report the growth stage for a planting date",
		Long: `Maps elapsed time since planting onto the growth schedule and reports
the current stage, progress within it, and the cycle count for everbearing
cultivars.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(plantedStr, cyclical, outputFmt, configPath)
		},
	}

	cmd.Flags().StringVar(&plantedStr, "planted", "", "Planting date as YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&cyclical, "cyclical", false, "Wrap the schedule for everbearing cultivars")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: discover .berryfarm/config.yaml)")
	_ = cmd.MarkFlagRequired("planted")

	return cmd
}

func runStage(plantedStr string, cyclical bool, outputFmt, configPath string) error {
	plantedAt, err := time.Parse("2006-01-02", plantedStr)
	if err != nil {
		return fmt.Errorf("parsing planted date: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cyclical {
		cfg.Schedule.Cyclical = true
	}
	schedule, err := cfg.GrowthSchedule()
	if err != nil {
		return err
	}

	pos := schedule.AtTime(plantedAt, time.Now())

	if outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pos)
	}

	fmt.Printf("Stage: %s (%.0f%% complete)\n", pos.Stage, pos.Progress)
	if pos.Cycle > 0 {
		fmt.Printf("Cycle: %d\n", pos.Cycle)
	}
	fmt.Printf("Planted: %s (%d days ago)\n",
		plantedAt.Format("2006-01-02"), int(time.Since(plantedAt).Hours()/24))
	return nil
}
