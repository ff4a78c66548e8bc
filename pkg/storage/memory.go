package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryFile struct {
	info FileInfo
	data []byte
}

// MemoryStorage keeps files in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[uuid.UUID]map[uuid.UUID]memoryFile
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[uuid.UUID]map[uuid.UUID]memoryFile)}
}

func (m *MemoryStorage) Upload(_ context.Context, reportID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	info := FileInfo{
		ID:          uuid.New(),
		ReportID:    reportID,
		Name:        filename,
		Size:        int64(len(data)),
		ContentType: contentType,
		Path:        sanitizeFilename(filename),
		CreatedAt:   time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[reportID] == nil {
		m.files[reportID] = make(map[uuid.UUID]memoryFile)
	}
	m.files[reportID][info.ID] = memoryFile{info: info, data: data}

	out := info
	return &out, nil
}

func (m *MemoryStorage) Download(_ context.Context, reportID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[reportID][fileID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	info := f.info
	return io.NopCloser(bytes.NewReader(f.data)), &info, nil
}

func (m *MemoryStorage) Delete(_ context.Context, reportID uuid.UUID, fileID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[reportID][fileID]; !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	delete(m.files[reportID], fileID)
	return nil
}

func (m *MemoryStorage) DeleteAll(_ context.Context, reportID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, reportID)
	return nil
}

func (m *MemoryStorage) List(_ context.Context, reportID uuid.UUID) ([]*FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*FileInfo, 0, len(m.files[reportID]))
	for _, f := range m.files[reportID] {
		info := f.info
		out = append(out, &info)
	}
	return out, nil
}
