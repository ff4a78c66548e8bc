package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem. Files live
// under <base>/<report id>/ with JSON metadata next to them.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalStorage) Upload(ctx context.Context, reportID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	dir := s.reportDir(reportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	path := filepath.Join(dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		ReportID:    reportID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        stored,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.saveMetadata(info); err != nil {
		os.Remove(path)
		return nil, err
	}
	return info, nil
}

// Download retrieves a file by its ID
func (s *LocalStorage) Download(ctx context.Context, reportID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.info(reportID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.reportDir(reportID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalStorage) Delete(ctx context.Context, reportID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.info(reportID, fileID)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.reportDir(reportID), info.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	os.Remove(s.metaPath(reportID, fileID))
	return nil
}

// DeleteAll removes the report directory.
func (s *LocalStorage) DeleteAll(ctx context.Context, reportID uuid.UUID) error {
	if err := os.RemoveAll(s.reportDir(reportID)); err != nil {
		return fmt.Errorf("failed to delete report files: %w", err)
	}
	return nil
}

// List returns all files of a report
func (s *LocalStorage) List(ctx context.Context, reportID uuid.UUID) ([]*FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.reportDir(reportID), metaDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.info(reportID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

func (s *LocalStorage) reportDir(reportID uuid.UUID) string {
	return filepath.Join(s.basePath, reportID.String())
}

func (s *LocalStorage) metaPath(reportID, fileID uuid.UUID) string {
	return filepath.Join(s.reportDir(reportID), metaDirName, fileID.String()+".json")
}

func (s *LocalStorage) info(reportID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(reportID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	path := s.metaPath(info.ReportID, info.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"..", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// sanitizeFilename removes path separators and shell-unsafe characters.
func sanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}
