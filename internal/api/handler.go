// Package api implements the hosted berry-farm REST API.
// It provides scoring and read endpoints backed by Postgres and blob storage.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LH-eliza/berry-farm/internal/archive"
	"github.com/LH-eliza/berry-farm/internal/farm"
	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

// Store is the subset of the farm service the API depends on.
type Store interface {
	EnsureFarmAndPlant(ctx context.Context, farmName, plantTag string) (string, string, error)
	GetPlantByID(ctx context.Context, plantID string) (*farm.Plant, error)
	ListAllPlants(ctx context.Context) ([]farm.Plant, error)
	InsertScore(ctx context.Context, plantID string, result *scoring.Result) (*farm.ScoreRow, error)
	ListScoresByPlant(ctx context.Context, plantID string, limit int) ([]farm.ScoreRow, error)
	GetScoreByID(ctx context.Context, scoreID string) (*farm.ScoreRow, error)
	AverageScore(ctx context.Context, plantID string, n int) (float64, int, error)
}

// Handler is the top-level API handler for the hosted berry-farm service.
type Handler struct {
	store   Store
	scorer  *scoring.Scorer
	archive archive.StorageClient // optional; nil disables report archiving
}

// NewHandler creates a new API handler.
func NewHandler(store Store, scorer *scoring.Scorer, archiveClient archive.StorageClient) *Handler {
	return &Handler{
		store:   store,
		scorer:  scorer,
		archive: archiveClient,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Write endpoints
	mux.HandleFunc("POST /api/v1/score", h.handleScore)

	// Read endpoints
	mux.HandleFunc("GET /api/v1/plants", h.handleListPlants)
	mux.HandleFunc("GET /api/v1/plants/{plantID}/scores", h.handleListScores)
	mux.HandleFunc("GET /api/v1/plants/{plantID}/scores/{scoreID}", h.handleGetScore)
	mux.HandleFunc("GET /api/v1/plants/{plantID}/history", h.handleHistory)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
