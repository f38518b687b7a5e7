// Command berryfarmd is the hosted berry-farm scoring service.
// It serves the scoring API, read endpoints for plants and score history,
// and a health check.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/LH-eliza/berry-farm/internal/api"
	"github.com/LH-eliza/berry-farm/internal/archive"
	"github.com/LH-eliza/berry-farm/internal/farm"
	"github.com/LH-eliza/berry-farm/internal/platform"
	"github.com/LH-eliza/berry-farm/pkg/config"
	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

type daemonConfig struct {
	Port        string
	DatabaseURL string
	APIKey      string
	ConfigPath  string

	// Archive backend selection: GCS wins over S3 wins over local.
	GCSBucket   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	LocalPath   string
}

func loadDaemonConfig() daemonConfig {
	return daemonConfig{
		Port:        envOrDefault("PORT", "8080"),
		DatabaseURL: envOrDefault("DATABASE_URL", "postgres://localhost:5432/berryfarm?sslmode=disable"),
		APIKey:      os.Getenv("API_KEY"),
		ConfigPath:  os.Getenv("CONFIG_PATH"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		LocalPath:   envOrDefault("LOCAL_STORAGE_PATH", "/tmp/berryfarm-data"),
	}
}

func main() {
	cfg := loadDaemonConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := platform.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := platform.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	scorer, err := scoring.NewScorer(fileCfg.ScoringOptions())
	if err != nil {
		log.Fatalf("build scorer: %v", err)
	}

	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("init archive storage: %v", err)
	}

	handler := api.NewHandler(farm.NewService(db), scorer, storage)

	apiMux := http.NewServeMux()
	handler.RegisterRoutes(apiMux)

	// Health stays outside auth so load balancers can probe it.
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", api.APIKeyAuth(cfg.APIKey, apiMux))
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.CORS(mux),
	}

	go func() {
		log.Printf("starting berryfarmd on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildStorage(ctx context.Context, cfg daemonConfig) (archive.StorageClient, error) {
	switch {
	case cfg.GCSBucket != "":
		return archive.NewGCSStorage(ctx, cfg.GCSBucket)
	case cfg.S3Bucket != "":
		return archive.NewS3Storage(ctx, archive.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return archive.NewLocalStorage(cfg.LocalPath), nil
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
