// Package service manages report sessions: an uploaded sheet, its override
// store and the report derived from both.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/export"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/parser"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/search"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/pkg/mailer"
	"github.com/FACorreiaa/fixture-report/pkg/storage"
)

const tracerName = "github.com/FACorreiaa/fixture-report/internal/domain/report/service"

var uploadContentTypes = map[parser.Format]string{
	parser.FormatCSV:  "text/csv",
	parser.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	parser.FormatXLS:  "application/vnd.ms-excel",
}

var (
	ErrReportNotFound = errors.New("report not found")
	ErrEmptyUpload    = errors.New("upload is empty")
	ErrNoRecipients   = errors.New("at least one recipient is required")
	ErrInvalidRow     = errors.New("manual row needs a unit")
)

// Mailer delivers exported reports.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// UploadResult describes a freshly created report.
type UploadResult struct {
	ReportID    uuid.UUID
	Filename    string
	Format      parser.Format
	Fingerprint string
	ParseErrors []parser.ParseError
	Report      engine.Report
}

// ExportResult is a rendered report file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// session is one open report.
type session struct {
	id       uuid.UUID
	fileID   uuid.UUID
	filename string
	sheet    *sheet.Sheet
	store    *state.Store
	index    *search.Index
	stop     func()

	// write serializes mutate-and-persist so a rollback never undoes a
	// concurrent edit.
	write sync.Mutex

	mu     sync.RWMutex
	report engine.Report
}

func (s *session) current() engine.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// ReportService orchestrates parsing, recomputation, persistence and output.
type ReportService struct {
	engine *engine.Engine
	repo   state.Repository
	files  storage.Storage
	mailer Mailer
	logger *slog.Logger
	tracer trace.Tracer

	parseOpts parser.Options

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewReportService creates a report service.
func NewReportService(eng *engine.Engine, repo state.Repository, files storage.Storage, logger *slog.Logger) *ReportService {
	return &ReportService{
		engine:    eng,
		repo:      repo,
		files:     files,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		parseOpts: parser.DefaultOptions(),
		sessions:  make(map[uuid.UUID]*session),
	}
}

// WithMailer enables report delivery.
func (s *ReportService) WithMailer(m Mailer) *ReportService {
	s.mailer = m
	return s
}

// Upload parses a spreadsheet, stores it and opens a new report for it.
func (s *ReportService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("filename", filename), attribute.Int("bytes", len(data)))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyUpload
	}

	parsed, err := parser.Parse(bytes.NewReader(data), filename, s.parseOpts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse upload: %w", err)
	}

	reportID := uuid.New()
	info, err := s.files.Upload(ctx, reportID, filename, uploadContentTypes[parsed.Format], bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	sess, err := s.open(reportID, info.ID, filename, parsed.Sheet, state.NewStore())
	if err != nil {
		s.discardFiles(ctx, reportID)
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		span.RecordError(err)
		s.close(reportID)
		s.discardFiles(ctx, reportID)
		return nil, err
	}

	rep := sess.current()
	s.logger.Info("report created",
		slog.String("report_id", reportID.String()),
		slog.String("filename", filename),
		slog.String("format", string(parsed.Format)),
		slog.Int("rows", parsed.TotalRows),
		slog.Int("units", len(rep.Units)),
		slog.Int("parse_errors", len(parsed.Errors)),
	)

	return &UploadResult{
		ReportID:    reportID,
		Filename:    filename,
		Format:      parsed.Format,
		Fingerprint: parsed.Fingerprint,
		ParseErrors: parsed.Errors,
		Report:      rep,
	}, nil
}

// Get returns the current report, reopening it from storage when needed.
func (s *ReportService) Get(ctx context.Context, reportID uuid.UUID) (engine.Report, error) {
	sess, err := s.session(ctx, reportID)
	if err != nil {
		return engine.Report{}, err
	}
	return sess.current(), nil
}

// Snapshot returns the override state of a report.
func (s *ReportService) Snapshot(ctx context.Context, reportID uuid.UUID) (state.Snapshot, error) {
	sess, err := s.session(ctx, reportID)
	if err != nil {
		return state.Snapshot{}, err
	}
	return sess.store.Snapshot(), nil
}

// Update applies a mutation to the report's override store and persists the
// result. The store observer has already recomputed the report when fn
// returns. When the state cannot be saved the store is rolled back, so memory
// never runs ahead of the repository.
func (s *ReportService) Update(ctx context.Context, reportID uuid.UUID, fn func(*state.Store) error) (engine.Report, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID.String()))

	sess, err := s.session(ctx, reportID)
	if err != nil {
		return engine.Report{}, err
	}

	sess.write.Lock()
	defer sess.write.Unlock()

	before := sess.store.Snapshot()
	if err := fn(sess.store); err != nil {
		return engine.Report{}, err
	}
	if err := s.persist(ctx, sess); err != nil {
		span.RecordError(err)
		sess.store.Reset(before)
		s.logger.Warn("rolled back unsaved report change",
			slog.String("report_id", reportID.String()),
			slog.Any("error", err),
		)
		return engine.Report{}, err
	}
	return sess.current(), nil
}

// SetOverride records a user edit.
func (s *ReportService) SetOverride(ctx context.Context, reportID uuid.UUID, unit string, field state.Field, value string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		return st.SetOverride(unit, field, value)
	})
}

// ClearOverride drops a user edit.
func (s *ReportService) ClearOverride(ctx context.Context, reportID uuid.UUID, unit string, field state.Field) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		return st.ClearOverride(unit, field)
	})
}

// DeleteNote hides a unit's note.
func (s *ReportService) DeleteNote(ctx context.Context, reportID uuid.UUID, unit string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.DeleteNote(unit)
		return nil
	})
}

// DeleteDetail hides a unit's detail.
func (s *ReportService) DeleteDetail(ctx context.Context, reportID uuid.UUID, unit string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.DeleteDetail(unit)
		return nil
	})
}

// RemoveUnit hides a unit from every view; RestoreUnit brings it back.
func (s *ReportService) RemoveUnit(ctx context.Context, reportID uuid.UUID, unit string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.RemoveUnit(unit)
		return nil
	})
}

func (s *ReportService) RestoreUnit(ctx context.Context, reportID uuid.UUID, unit string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.RestoreUnit(unit)
		return nil
	})
}

// AddRow appends a manually entered unit row.
func (s *ReportService) AddRow(ctx context.Context, reportID uuid.UUID, row state.ManualRow) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		if row.Unit == "" {
			return ErrInvalidRow
		}
		st.AddRow(row)
		return nil
	})
}

// SetSync toggles note/detail mirroring.
func (s *ReportService) SetSync(ctx context.Context, reportID uuid.UUID, on bool) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.SetSync(on)
		return nil
	})
}

// SetSelections picks extra note sources.
func (s *ReportService) SetSelections(ctx context.Context, reportID uuid.UUID, columns []string, cells map[string][]string) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.SetSelections(columns, cells)
		return nil
	})
}

// SetLayout replaces the report text.
func (s *ReportService) SetLayout(ctx context.Context, reportID uuid.UUID, l state.Layout) (engine.Report, error) {
	return s.Update(ctx, reportID, func(st *state.Store) error {
		st.SetLayout(l)
		return nil
	})
}

// Search looks up notes and details of a report.
func (s *ReportService) Search(ctx context.Context, reportID uuid.UUID, query string, kind search.Kind, limit int) ([]search.Hit, error) {
	sess, err := s.session(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return sess.index.Search(query, kind, limit)
}

// Export renders the report in the requested format.
func (s *ReportService) Export(ctx context.Context, reportID uuid.UUID, format export.Format) (*ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "ReportService.Export")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID.String()), attribute.String("format", string(format)))

	sess, err := s.session(ctx, reportID)
	if err != nil {
		return nil, err
	}

	doc := export.Document{Report: sess.current(), Layout: sess.store.Snapshot().Layout}
	var buf bytes.Buffer
	if err := export.Render(&buf, doc, format); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to export report: %w", err)
	}
	exportsTotal.WithLabelValues(string(format)).Inc()

	return &ExportResult{
		Filename:    export.Filename(doc.Layout.Customer.PropertyName, format),
		ContentType: export.ContentType(format),
		Data:        buf.Bytes(),
	}, nil
}

// Deliver emails the exported report to recipients.
func (s *ReportService) Deliver(ctx context.Context, reportID uuid.UUID, format export.Format, to []string) (string, error) {
	if len(to) == 0 {
		return "", ErrNoRecipients
	}
	if s.mailer == nil {
		return "", mailer.ErrNotConfigured
	}

	out, err := s.Export(ctx, reportID, format)
	if err != nil {
		return "", err
	}

	sess, err := s.session(ctx, reportID)
	if err != nil {
		return "", err
	}
	doc := export.Document{Report: sess.current(), Layout: sess.store.Snapshot().Layout}
	var body bytes.Buffer
	if err := export.WriteHTML(&body, doc); err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, mailer.Message{
		To:      to,
		Subject: doc.Layout.ReportTitle + " - " + doc.Layout.Customer.PropertyName,
		HTML:    body.String(),
		Attachments: []mailer.Attachment{{
			Filename:    out.Filename,
			ContentType: out.ContentType,
			Content:     out.Data,
		}},
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("report delivered",
		slog.String("report_id", reportID.String()),
		slog.String("format", string(format)),
		slog.Int("recipients", len(to)),
	)
	return id, nil
}

// PurgeStale deletes reports not edited since before, with their files.
func (s *ReportService) PurgeStale(ctx context.Context, before time.Time) (int, error) {
	ids, err := s.repo.ListStale(ctx, before)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, id := range ids {
		s.close(id)
		if err := s.files.DeleteAll(ctx, id); err != nil {
			s.logger.Warn("failed to delete report files", slog.String("report_id", id.String()), slog.Any("error", err))
			continue
		}
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, state.ErrNotFound) {
			s.logger.Warn("failed to delete report state", slog.String("report_id", id.String()), slog.Any("error", err))
			continue
		}
		purged++
	}
	return purged, nil
}

// Close releases every open session.
func (s *ReportService) Close() {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.close(id)
	}
}

// session returns an open session, reopening it from the repository and
// file storage after a restart.
func (s *ReportService) session(ctx context.Context, reportID uuid.UUID) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[reportID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	rec, err := s.repo.Load(ctx, reportID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	rc, _, err := s.files.Download(ctx, reportID, rec.FileID)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	defer rc.Close()

	parsed, err := parser.Parse(rc, rec.Filename, s.parseOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored upload: %w", err)
	}

	s.logger.Debug("report reopened", slog.String("report_id", reportID.String()))
	return s.open(reportID, rec.FileID, rec.Filename, parsed.Sheet, state.Restore(rec.Snapshot))
}

// open registers a session whose report is recomputed on every store change.
func (s *ReportService) open(id, fileID uuid.UUID, filename string, sh *sheet.Sheet, store *state.Store) (*session, error) {
	idx, err := search.NewIndex()
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:       id,
		fileID:   fileID,
		filename: filename,
		sheet:    sh,
		store:    store,
		index:    idx,
	}
	s.recompute(sess)
	sess.stop = store.Subscribe(func(state.Change) {
		s.recompute(sess)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		sess.stop()
		_ = idx.Close()
		return existing, nil
	}
	s.sessions[id] = sess
	openSessions.Inc()
	return sess, nil
}

func (s *ReportService) close(id uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.stop()
	if err := sess.index.Close(); err != nil {
		s.logger.Warn("failed to close search index", slog.Any("error", err))
	}
	openSessions.Dec()
}

// recompute replaces the derived report wholesale.
func (s *ReportService) recompute(sess *session) {
	_, span := s.tracer.Start(context.Background(), "ReportService.recompute")
	defer span.End()

	start := time.Now()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	snap := sess.store.Snapshot()

	rep := s.engine.Compute(engine.Input{
		Sheet:           sess.sheet,
		SelectedColumns: snap.SelectedNotesColumns,
		SelectedCells:   snap.SelectedCells,
		ManualRows:      snap.ManualRows,
	}, sess.store)
	sess.report = rep

	if err := sess.index.Reindex(rep); err != nil {
		s.logger.Warn("failed to reindex notes", slog.String("report_id", sess.id.String()), slog.Any("error", err))
	}

	span.SetAttributes(attribute.Int("units", len(rep.Units)))
	recomputeDuration.Observe(time.Since(start).Seconds())
}

// discardFiles removes the stored upload of a report that failed to open.
func (s *ReportService) discardFiles(ctx context.Context, reportID uuid.UUID) {
	if err := s.files.DeleteAll(context.WithoutCancel(ctx), reportID); err != nil {
		s.logger.Warn("failed to delete orphaned upload",
			slog.String("report_id", reportID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *ReportService) persist(ctx context.Context, sess *session) error {
	err := s.repo.Save(ctx, state.Record{
		ReportID:  sess.id,
		FileID:    sess.fileID,
		Filename:  sess.filename,
		Snapshot:  sess.store.Snapshot(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to persist report state: %w", err)
	}
	return nil
}
