// Package archive stores full scoring reports as blobs, keyed by farm.
// Reports are the serialized Result plus request context, written after
// each scoring call for later audit.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StorageClient abstracts blob storage for scoring reports.
type StorageClient interface {
	PutReport(ctx context.Context, farmID, reportID string, data []byte) error
	GetReport(ctx context.Context, farmID, reportID string) ([]byte, error)
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(farmID, reportID string) string {
	return filepath.Join(s.BaseDir, farmID, "reports", reportID+".json")
}

// PutReport stores a report blob.
func (s *LocalStorage) PutReport(ctx context.Context, farmID, reportID string, data []byte) error {
	path := s.path(farmID, reportID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetReport retrieves a report blob.
func (s *LocalStorage) GetReport(ctx context.Context, farmID, reportID string) ([]byte, error) {
	return os.ReadFile(s.path(farmID, reportID))
}
