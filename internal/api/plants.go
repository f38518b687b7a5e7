package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LH-eliza/berry-farm/internal/farm"
)

const (
	defaultScoreLimit  = 50
	defaultHistorySize = 20
)

func (h *Handler) handleListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.store.ListAllPlants(r.Context())
	if err != nil {
		log.Printf("list plants: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list plants")
		return
	}
	if plants == nil {
		plants = []farm.Plant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plants": plants})
}

func (h *Handler) handleListScores(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	if _, err := h.store.GetPlantByID(r.Context(), plantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		log.Printf("get plant %s: %v", plantID, err)
		writeError(w, http.StatusInternalServerError, "failed to load plant")
		return
	}

	limit := defaultScoreLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := h.store.ListScoresByPlant(r.Context(), plantID, limit)
	if err != nil {
		log.Printf("list scores for %s: %v", plantID, err)
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}
	if rows == nil {
		rows = []farm.ScoreRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plant_id": plantID, "scores": rows})
}

func (h *Handler) handleGetScore(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	scoreID := r.PathValue("scoreID")

	row, err := h.store.GetScoreByID(r.Context(), scoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "score not found")
			return
		}
		log.Printf("get score %s: %v", scoreID, err)
		writeError(w, http.StatusInternalServerError, "failed to load score")
		return
	}
	if row.PlantID != plantID {
		writeError(w, http.StatusNotFound, "score not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// historyResponse summarizes a plant's recent score trajectory.
type historyResponse struct {
	PlantID      string         `json:"plant_id"`
	Window       int            `json:"window"`
	Count        int            `json:"count"`
	AverageScore float64        `json:"average_score"`
	Scores       []historyEntry `json:"scores"`
}

type historyEntry struct {
	ScoreID      string    `json:"score_id"`
	Stage        string    `json:"stage"`
	OverallScore float64   `json:"overall_score"`
	Grade        string    `json:"grade"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	if _, err := h.store.GetPlantByID(r.Context(), plantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		log.Printf("get plant %s: %v", plantID, err)
		writeError(w, http.StatusInternalServerError, "failed to load plant")
		return
	}

	window := defaultHistorySize
	if s := r.URL.Query().Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = n
	}

	avg, count, err := h.store.AverageScore(r.Context(), plantID, window)
	if err != nil {
		log.Printf("average score for %s: %v", plantID, err)
		writeError(w, http.StatusInternalServerError, "failed to compute history")
		return
	}

	rows, err := h.store.ListScoresByPlant(r.Context(), plantID, window)
	if err != nil {
		log.Printf("list scores for %s: %v", plantID, err)
		writeError(w, http.StatusInternalServerError, "failed to compute history")
		return
	}

	entries := make([]historyEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, historyEntry{
			ScoreID:      row.ID,
			Stage:        row.Stage,
			OverallScore: row.OverallScore,
			Grade:        row.Grade,
			Action:       row.Action,
			CreatedAt:    row.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, historyResponse{
		PlantID:      plantID,
		Window:       window,
		Count:        count,
		AverageScore: avg,
		Scores:       entries,
	})
}
