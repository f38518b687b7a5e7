package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LH-eliza/berry-farm/internal/farm"
	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	plants   map[string]*farm.Plant
	scores   map[string]*farm.ScoreRow
	inserted int
}

func newStubStore() *stubStore {
	return &stubStore{
		plants: map[string]*farm.Plant{},
		scores: map[string]*farm.ScoreRow{},
	}
}

func (s *stubStore) EnsureFarmAndPlant(_ context.Context, farmName, plantTag string) (string, string, error) {
	plantID := farmName + "/" + plantTag
	if _, ok := s.plants[plantID]; !ok {
		s.plants[plantID] = &farm.Plant{ID: plantID, FarmID: farmName, Tag: plantTag}
	}
	return farmName, plantID, nil
}

func (s *stubStore) GetPlantByID(_ context.Context, plantID string) (*farm.Plant, error) {
	p, ok := s.plants[plantID]
	if !ok {
		return nil, fmt.Errorf("get plant %s: %w", plantID, sql.ErrNoRows)
	}
	return p, nil
}

func (s *stubStore) ListAllPlants(_ context.Context) ([]farm.Plant, error) {
	var out []farm.Plant
	for _, p := range s.plants {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) InsertScore(_ context.Context, plantID string, result *scoring.Result) (*farm.ScoreRow, error) {
	s.inserted++
	row := &farm.ScoreRow{
		ID:           fmt.Sprintf("score-%d", s.inserted),
		PlantID:      plantID,
		Stage:        result.Stage,
		OverallScore: result.OverallScore,
		Confidence:   result.Confidence,
		Grade:        result.Grade,
		Action:       string(result.Action),
		Priority:     result.Priority.String(),
		CreatedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	s.scores[row.ID] = row
	return row, nil
}

func (s *stubStore) ListScoresByPlant(_ context.Context, plantID string, limit int) ([]farm.ScoreRow, error) {
	var out []farm.ScoreRow
	for _, row := range s.scores {
		if row.PlantID == plantID && len(out) < limit {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubStore) GetScoreByID(_ context.Context, scoreID string) (*farm.ScoreRow, error) {
	row, ok := s.scores[scoreID]
	if !ok {
		return nil, fmt.Errorf("get score %s: %w", scoreID, sql.ErrNoRows)
	}
	return row, nil
}

func (s *stubStore) AverageScore(_ context.Context, plantID string, n int) (float64, int, error) {
	var sum float64
	count := 0
	for _, row := range s.scores {
		if row.PlantID == plantID && count < n {
			sum += row.OverallScore
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func newTestHandler(t *testing.T) (*Handler, *stubStore) {
	t.Helper()
	scorer, err := scoring.NewScorer(scoring.DefaultOptions())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	store := newStubStore()
	return NewHandler(store, scorer, nil), store
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleScoreHappyPath(t *testing.T) {
	h, store := newTestHandler(t)

	body := `{
		"farm": "north",
		"plant_tag": "row3-17",
		"stage": "vegetative",
		"signals": {"temperature": 21, "humidity": 70, "soilMoisture": 78, "ph": 6.0}
	}`
	rec := serve(h, http.MethodPost, "/api/v1/score", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp scoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ScoreID == "" {
		t.Error("expected non-empty score_id")
	}
	if resp.Result.Grade != "A" {
		t.Errorf("grade = %s, want A", resp.Result.Grade)
	}
	if resp.Result.Action != scoring.ActionMaintain {
		t.Errorf("action = %s, want maintain", resp.Result.Action)
	}
	if store.inserted != 1 {
		t.Errorf("inserted = %d, want 1", store.inserted)
	}
}

func TestHandleScoreMissingPlantTag(t *testing.T) {
	h, store := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/v1/score", `{"signals": {"temperature": 21}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.inserted != 0 {
		t.Errorf("inserted = %d, want 0", store.inserted)
	}
}

func TestHandleScoreUnknownSignal(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"plant_tag": "row3-17", "signals": {"wind_speed": 5}}`
	rec := serve(h, http.MethodPost, "/api/v1/score", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleScoreNegativeWeight(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{
		"plant_tag": "row3-17",
		"signals": {"temperature": 21},
		"weights": {"temperature": -1}
	}`
	rec := serve(h, http.MethodPost, "/api/v1/score", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleScoreInvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/v1/score", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListPlants(t *testing.T) {
	h, store := newTestHandler(t)
	store.plants["p1"] = &farm.Plant{ID: "p1", FarmID: "north", Tag: "row1-1"}

	rec := serve(h, http.MethodGet, "/api/v1/plants", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Plants []farm.Plant `json:"plants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Plants) != 1 {
		t.Errorf("plants = %d, want 1", len(resp.Plants))
	}
}

func TestHandleListScoresUnknownPlant(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/api/v1/plants/nope/scores", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListScoresBadLimit(t *testing.T) {
	h, store := newTestHandler(t)
	store.plants["p1"] = &farm.Plant{ID: "p1"}

	rec := serve(h, http.MethodGet, "/api/v1/plants/p1/scores?limit=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGetScoreWrongPlant(t *testing.T) {
	h, store := newTestHandler(t)
	store.plants["p1"] = &farm.Plant{ID: "p1"}
	store.scores["s1"] = &farm.ScoreRow{ID: "s1", PlantID: "other"}

	rec := serve(h, http.MethodGet, "/api/v1/plants/p1/scores/s1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	h, store := newTestHandler(t)
	store.plants["p1"] = &farm.Plant{ID: "p1"}
	store.scores["s1"] = &farm.ScoreRow{ID: "s1", PlantID: "p1", OverallScore: 80, Grade: "B"}
	store.scores["s2"] = &farm.ScoreRow{ID: "s2", PlantID: "p1", OverallScore: 90, Grade: "A"}

	rec := serve(h, http.MethodGet, "/api/v1/plants/p1/history?window=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	if resp.AverageScore != 85 {
		t.Errorf("average = %v, want 85", resp.AverageScore)
	}
	if len(resp.Scores) != 2 {
		t.Errorf("scores = %d, want 2", len(resp.Scores))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := APIKeyAuth("secret", inner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plants", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/plants", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}

	// Empty expected key disables auth.
	open := APIKeyAuth("", inner)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/plants", nil)
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("open: status = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/score", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}
