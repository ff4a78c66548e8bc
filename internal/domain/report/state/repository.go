package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no state is stored for a report.
var ErrNotFound = errors.New("report state not found")

// Record is a persisted report together with its state.
type Record struct {
	ReportID  uuid.UUID
	FileID    uuid.UUID
	Filename  string
	Snapshot  Snapshot
	UpdatedAt time.Time
}

// Repository persists report state between sessions.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, reportID uuid.UUID) (*Record, error)
	Delete(ctx context.Context, reportID uuid.UUID) error
	ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores snapshots as JSONB.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a repository over a pool or transaction.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts a report's state.
func (r *PostgresRepository) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal report state: %w", err)
	}

	query := `
		INSERT INTO report_states (report_id, file_id, filename, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (report_id) DO UPDATE SET
			file_id = EXCLUDED.file_id,
			filename = EXCLUDED.filename,
			state = EXCLUDED.state,
			updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, rec.ReportID, rec.FileID, rec.Filename, payload); err != nil {
		return fmt.Errorf("failed to save report state: %w", err)
	}
	return nil
}

// Load returns the stored state of a report.
func (r *PostgresRepository) Load(ctx context.Context, reportID uuid.UUID) (*Record, error) {
	query := `
		SELECT report_id, file_id, filename, state, updated_at
		FROM report_states
		WHERE report_id = $1
	`

	var rec Record
	var payload []byte
	err := r.db.QueryRow(ctx, query, reportID).Scan(
		&rec.ReportID, &rec.FileID, &rec.Filename, &payload, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report state: %w", err)
	}

	if err := json.Unmarshal(payload, &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode report state: %w", err)
	}
	rec.Snapshot = rec.Snapshot.normalized()
	return &rec, nil
}

// Delete removes a report's state.
func (r *PostgresRepository) Delete(ctx context.Context, reportID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM report_states WHERE report_id = $1`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStale returns reports not touched since before.
func (r *PostgresRepository) ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT report_id FROM report_states WHERE updated_at < $1`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale reports: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan report id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MemoryRepository keeps state in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]Record), now: time.Now}
}

// Save implements Repository.
func (m *MemoryRepository) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Snapshot = rec.Snapshot.clone()
	rec.UpdatedAt = m.now()
	m.records[rec.ReportID] = rec
	return nil
}

// Load implements Repository.
func (m *MemoryRepository) Load(_ context.Context, reportID uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Snapshot = rec.Snapshot.clone()
	return &rec, nil
}

// Delete implements Repository.
func (m *MemoryRepository) Delete(_ context.Context, reportID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[reportID]; !ok {
		return ErrNotFound
	}
	delete(m.records, reportID)
	return nil
}

// ListStale implements Repository.
func (m *MemoryRepository) ListStale(_ context.Context, before time.Time) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uuid.UUID
	for id, rec := range m.records {
		if rec.UpdatedAt.Before(before) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
