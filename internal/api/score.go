package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
	"github.com/LH-eliza/berry-farm/pkg/signal"
)

// scoreRequest is the JSON body for POST /api/v1/score.
type scoreRequest struct {
	Farm     string             `json:"farm"`
	PlantTag string             `json:"plant_tag"`
	Stage    string             `json:"stage"`
	Signals  map[string]float64 `json:"signals"`
	Weights  map[string]float64 `json:"weights,omitempty"`
}

type scoreResponse struct {
	ScoreID   string          `json:"score_id"`
	PlantID   string          `json:"plant_id"`
	CreatedAt time.Time       `json:"created_at"`
	Result    *scoring.Result `json:"result"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.PlantTag == "" {
		writeError(w, http.StatusBadRequest, "plant_tag is required")
		return
	}
	if req.Farm == "" {
		req.Farm = "default"
	}

	// Signal and weight names come off the wire as free strings; validate
	// them against the closed enum before any scoring executes.
	signals := make(map[signal.Name]float64, len(req.Signals))
	for name, v := range req.Signals {
		n, err := signal.ParseName(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		signals[n] = v
	}
	var weights map[signal.Name]float64
	if req.Weights != nil {
		weights = make(map[signal.Name]float64, len(req.Weights))
		for name, v := range req.Weights {
			n, err := signal.ParseName(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			weights[n] = v
		}
	}

	farmID, plantID, err := h.store.EnsureFarmAndPlant(r.Context(), req.Farm, req.PlantTag)
	if err != nil {
		log.Printf("ensure farm/plant: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve plant")
		return
	}

	result, err := h.scorer.Score(scoring.Request{
		PlantID: plantID,
		Stage:   req.Stage,
		Signals: signals,
		Weights: weights,
	})
	if err != nil {
		var invalid *scoring.InvalidInputError
		var cfgErr *scoring.ConfigurationError
		if errors.As(err, &invalid) || errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("score: %v", err)
		writeError(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	row, err := h.store.InsertScore(r.Context(), plantID, result)
	if err != nil {
		log.Printf("insert score: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to persist score")
		return
	}

	h.archiveReport(r.Context(), farmID, row.ID, req, result)

	writeJSON(w, http.StatusOK, scoreResponse{
		ScoreID:   row.ID,
		PlantID:   plantID,
		CreatedAt: row.CreatedAt,
		Result:    result,
	})
}

// archiveReport writes the full request/result pair to blob storage.
// Archiving is best-effort: failures are logged, never surfaced to the caller.
func (h *Handler) archiveReport(ctx context.Context, farmID, reportID string, req scoreRequest, result *scoring.Result) {
	if h.archive == nil {
		return
	}
	report := struct {
		Request scoreRequest    `json:"request"`
		Result  *scoring.Result `json:"result"`
	}{Request: req, Result: result}
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("marshal report %s: %v", reportID, err)
		return
	}
	if err := h.archive.PutReport(ctx, farmID, reportID, data); err != nil {
		log.Printf("archive report %s: %v", reportID, err)
	}
}
