// Package farm manages persistent farm state: farms, their plants, and the
// scoring history recorded for each plant.
package farm

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

// Service provides farm and plant management backed by Postgres.
type Service struct {
	db *sql.DB
}

// Farm represents one growing site.
type Farm struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Plant represents a tracked plant within a farm.
type Plant struct {
	ID        string
	FarmID    string
	Tag       string // operator-facing label, unique within a farm
	Cultivar  *string
	PlantedAt *time.Time
	CreatedAt time.Time
}

// ScoreRow is a persisted scoring result.
type ScoreRow struct {
	ID           string
	PlantID      string
	Stage        string
	OverallScore float64
	Confidence   float64
	Grade        string
	Action       string
	Priority     string
	Rationale    json.RawMessage
	SubScores    json.RawMessage
	CreatedAt    time.Time
}

// NewService creates a new farm Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateFarm creates a new farm.
func (s *Service) CreateFarm(ctx context.Context, name string) (*Farm, error) {
	f := &Farm{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO farms (name)
		 VALUES ($1)
		 RETURNING id, name, created_at`,
		name,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create farm: %w", err)
	}
	return f, nil
}

// GetFarmByName looks up a farm by name.
func (s *Service) GetFarmByName(ctx context.Context, name string) (*Farm, error) {
	f := &Farm{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM farms WHERE name = $1`,
		name,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get farm by name %s: %w", name, err)
	}
	return f, nil
}

// UpsertPlant creates or updates a plant record within a farm.
func (s *Service) UpsertPlant(ctx context.Context, farmID, tag string, cultivar *string, plantedAt *time.Time) (*Plant, error) {
	p := &Plant{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO plants (farm_id, tag, cultivar, planted_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (farm_id, tag) DO UPDATE
		   SET cultivar   = COALESCE(EXCLUDED.cultivar, plants.cultivar),
		       planted_at = COALESCE(EXCLUDED.planted_at, plants.planted_at)
		 RETURNING id, farm_id, tag, cultivar, planted_at, created_at`,
		farmID, tag, cultivar, plantedAt,
	).Scan(&p.ID, &p.FarmID, &p.Tag, &p.Cultivar, &p.PlantedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert plant %s: %w", tag, err)
	}
	return p, nil
}

// GetPlant retrieves a plant by farm ID and tag.
func (s *Service) GetPlant(ctx context.Context, farmID, tag string) (*Plant, error) {
	p := &Plant{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, farm_id, tag, cultivar, planted_at, created_at
		 FROM plants WHERE farm_id = $1 AND tag = $2`,
		farmID, tag,
	).Scan(&p.ID, &p.FarmID, &p.Tag, &p.Cultivar, &p.PlantedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get plant %s: %w", tag, err)
	}
	return p, nil
}

// GetPlantByID retrieves a plant by its ID.
func (s *Service) GetPlantByID(ctx context.Context, plantID string) (*Plant, error) {
	p := &Plant{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, farm_id, tag, cultivar, planted_at, created_at
		 FROM plants WHERE id = $1`,
		plantID,
	).Scan(&p.ID, &p.FarmID, &p.Tag, &p.Cultivar, &p.PlantedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get plant %s: %w", plantID, err)
	}
	return p, nil
}

// ListPlants returns all plants for a farm.
func (s *Service) ListPlants(ctx context.Context, farmID string) ([]Plant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, farm_id, tag, cultivar, planted_at, created_at
		 FROM plants WHERE farm_id = $1 ORDER BY tag`,
		farmID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		var p Plant
		if err := rows.Scan(&p.ID, &p.FarmID, &p.Tag, &p.Cultivar, &p.PlantedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

// ListAllPlants returns all plants across all farms.
func (s *Service) ListAllPlants(ctx context.Context) ([]Plant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, farm_id, tag, cultivar, planted_at, created_at
		 FROM plants ORDER BY tag`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all plants: %w", err)
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		var p Plant
		if err := rows.Scan(&p.ID, &p.FarmID, &p.Tag, &p.Cultivar, &p.PlantedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

// EnsureFarmAndPlant gets or creates a farm (by name) and plant.
// Returns farmID, plantID, and any error.
func (s *Service) EnsureFarmAndPlant(ctx context.Context, farmName, plantTag string) (string, string, error) {
	f, err := s.GetFarmByName(ctx, farmName)
	if err != nil {
		f, err = s.CreateFarm(ctx, farmName)
		if err != nil {
			// Could be a race condition; try getting again
			if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
				f, err = s.GetFarmByName(ctx, farmName)
				if err != nil {
					return "", "", fmt.Errorf("ensure farm: %w", err)
				}
			} else {
				return "", "", fmt.Errorf("ensure farm: %w", err)
			}
		}
	}

	p, err := s.UpsertPlant(ctx, f.ID, plantTag, nil, nil)
	if err != nil {
		return "", "", fmt.Errorf("ensure plant: %w", err)
	}

	return f.ID, p.ID, nil
}

// InsertScore persists a scoring result for a plant.
func (s *Service) InsertScore(ctx context.Context, plantID string, result *scoring.Result) (*ScoreRow, error) {
	rationale, err := json.Marshal(result.Rationale)
	if err != nil {
		return nil, fmt.Errorf("marshal rationale: %w", err)
	}
	subScores, err := json.Marshal(result.SubScores)
	if err != nil {
		return nil, fmt.Errorf("marshal sub-scores: %w", err)
	}

	row := &ScoreRow{}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO scores (id, plant_id, stage, overall_score, confidence, grade, action, priority, rationale, sub_scores)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, plant_id, stage, overall_score, confidence, grade, action, priority, rationale, sub_scores, created_at`,
		uuid.New().String(), plantID, result.Stage, result.OverallScore, result.Confidence,
		result.Grade, string(result.Action), result.Priority.String(), rationale, subScores,
	).Scan(
		&row.ID, &row.PlantID, &row.Stage, &row.OverallScore, &row.Confidence,
		&row.Grade, &row.Action, &row.Priority, &row.Rationale, &row.SubScores, &row.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert score: %w", err)
	}
	return row, nil
}

// ListScoresByPlant returns scores for a plant, newest first.
func (s *Service) ListScoresByPlant(ctx context.Context, plantID string, limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plant_id, stage, overall_score, confidence, grade, action, priority, rationale, sub_scores, created_at
		 FROM scores WHERE plant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		plantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []ScoreRow
	for rows.Next() {
		var sc ScoreRow
		if err := rows.Scan(
			&sc.ID, &sc.PlantID, &sc.Stage, &sc.OverallScore, &sc.Confidence,
			&sc.Grade, &sc.Action, &sc.Priority, &sc.Rationale, &sc.SubScores, &sc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// GetScoreByID returns a single score by ID.
func (s *Service) GetScoreByID(ctx context.Context, scoreID string) (*ScoreRow, error) {
	sc := &ScoreRow{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, plant_id, stage, overall_score, confidence, grade, action, priority, rationale, sub_scores, created_at
		 FROM scores WHERE id = $1`,
		scoreID,
	).Scan(
		&sc.ID, &sc.PlantID, &sc.Stage, &sc.OverallScore, &sc.Confidence,
		&sc.Grade, &sc.Action, &sc.Priority, &sc.Rationale, &sc.SubScores, &sc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", scoreID, err)
	}
	return sc, nil
}

// AverageScore returns the mean overall score of the newest n scores for a
// plant, mirroring the in-process history moving average across restarts.
func (s *Service) AverageScore(ctx context.Context, plantID string, n int) (float64, int, error) {
	if n <= 0 {
		n = 10
	}
	var avg sql.NullFloat64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(overall_score), COUNT(*) FROM (
		   SELECT overall_score FROM scores
		   WHERE plant_id = $1 ORDER BY created_at DESC LIMIT $2
		 ) recent`,
		plantID, n,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average score for plant %s: %w", plantID, err)
	}
	if !avg.Valid {
		return 0, 0, nil
	}
	return avg.Float64, count, nil
}
