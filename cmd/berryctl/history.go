package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		serverURL string
		plantID   string
		window    int
		apiKey    string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Fetch a plant's score history from a berryfarmd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), historyOpts{
				serverURL: serverURL,
				plantID:   plantID,
				window:    window,
				apiKey:    apiKey,
				outputFmt: outputFmt,
			})
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the berryfarmd server")
	cmd.Flags().StringVar(&plantID, "plant-id", "", "Plant ID (required)")
	cmd.Flags().IntVar(&window, "window", 20, "Number of recent scores to include")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default: BERRYFARM_API_KEY)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("plant-id")

	return cmd
}

type historyOpts struct {
	serverURL string
	plantID   string
	window    int
	apiKey    string
	outputFmt string
}

// historyView mirrors the server's history response.
type historyView struct {
	PlantID      string  `json:"plant_id"`
	Window       int     `json:"window"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
	Scores       []struct {
		ScoreID      string    `json:"score_id"`
		Stage        string    `json:"stage"`
		OverallScore float64   `json:"overall_score"`
		Grade        string    `json:"grade"`
		Action       string    `json:"action"`
		CreatedAt    time.Time `json:"created_at"`
	} `json:"scores"`
}

func runHistory(ctx context.Context, opts historyOpts) error {
	url := fmt.Sprintf("%s/api/v1/plants/%s/history?window=%d",
		opts.serverURL, opts.plantID, opts.window)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	key := firstNonEmpty(opts.apiKey, os.Getenv("BERRYFARM_API_KEY"))
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	if opts.outputFmt == "json" {
		_, err := os.Stdout.Write(body)
		return err
	}

	var view historyView
	if err := json.Unmarshal(body, &view); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	fmt.Printf("Plant %s: %d scores, average %.1f\n", view.PlantID, view.Count, view.AverageScore)
	for _, s := range view.Scores {
		fmt.Printf("  %s  %5.1f  %s  %-10s  %s\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.OverallScore, s.Grade, s.Action, s.ScoreID)
	}
	return nil
}
