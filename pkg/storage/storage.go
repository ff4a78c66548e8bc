// Package storage keeps uploaded installation sheets, grouped by report.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when no file is stored under an ID.
var ErrFileNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	ReportID    uuid.UUID `json:"report_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Upload stores a file under a report and returns its metadata
	Upload(ctx context.Context, reportID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, reportID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, reportID uuid.UUID, fileID uuid.UUID) error

	// DeleteAll removes every file of a report
	DeleteAll(ctx context.Context, reportID uuid.UUID) error

	// List returns all files of a report
	List(ctx context.Context, reportID uuid.UUID) ([]*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"
	StorageTypeMemory StorageType = "memory"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeMemory:
		return NewMemoryStorage(), nil
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}
