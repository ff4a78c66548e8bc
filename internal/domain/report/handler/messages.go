package handler

import (
	"encoding/json"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/notes"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/search"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/validator"
)

// jsonCodec lets the Connect handlers exchange plain Go structs as JSON.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// ReportView is the report as returned to clients.
type ReportView struct {
	ReportID    string               `json:"report_id"`
	Units       []consolidator.Unit  `json:"units"`
	Notes       []notes.Entry        `json:"notes"`
	Details     []notes.Entry        `json:"details"`
	Headers     map[string]string    `json:"headers"`
	ToiletTotal int                  `json:"toilet_total"`
	Columns     []string             `json:"columns"`
	UnitColumn  string               `json:"unit_column"`
	Ambiguities []resolver.Ambiguity `json:"ambiguities,omitempty"`
	Skipped     []validator.Skip     `json:"skipped,omitempty"`
	StoppedAt   int                  `json:"stopped_at"`
	Layout      state.Layout         `json:"layout"`
	Sync        bool                 `json:"sync"`
}

func newReportView(id string, rep engine.Report, snap state.Snapshot) *ReportView {
	return &ReportView{
		ReportID:    id,
		Units:       rep.Units,
		Notes:       rep.Notes,
		Details:     rep.Details,
		Headers:     rep.Headers,
		ToiletTotal: rep.ToiletTotal,
		Columns:     rep.Columns,
		UnitColumn:  rep.Resolution.UnitColumn,
		Ambiguities: rep.Resolution.Ambiguities,
		Skipped:     rep.Filter.Skipped,
		StoppedAt:   rep.Filter.StoppedAt,
		Layout:      snap.Layout,
		Sync:        snap.Sync,
	}
}

type UploadSpreadsheetRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

type UploadSpreadsheetResponse struct {
	Format      string      `json:"format"`
	Fingerprint string      `json:"fingerprint"`
	ParseErrors []string    `json:"parse_errors,omitempty"`
	Report      *ReportView `json:"report"`
}

type GetReportRequest struct {
	ReportID string `json:"report_id"`
}

type SetOverrideRequest struct {
	ReportID string `json:"report_id"`
	Unit     string `json:"unit"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

type ClearOverrideRequest struct {
	ReportID string `json:"report_id"`
	Unit     string `json:"unit"`
	Field    string `json:"field"`
}

// UnitRequest addresses one unit of a report.
type UnitRequest struct {
	ReportID string `json:"report_id"`
	Unit     string `json:"unit"`
}

type AddRowRequest struct {
	ReportID string            `json:"report_id"`
	Unit     string            `json:"unit"`
	Cells    map[string]string `json:"cells,omitempty"`
}

type SetSyncRequest struct {
	ReportID string `json:"report_id"`
	Enabled  bool   `json:"enabled"`
}

type SetSelectionsRequest struct {
	ReportID string              `json:"report_id"`
	Columns  []string            `json:"columns"`
	Cells    map[string][]string `json:"cells"`
}

type SetLayoutRequest struct {
	ReportID string       `json:"report_id"`
	Layout   state.Layout `json:"layout"`
}

type SearchNotesRequest struct {
	ReportID string `json:"report_id"`
	Query    string `json:"query"`
	Kind     string `json:"kind,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type SearchNotesResponse struct {
	Hits []search.Hit `json:"hits"`
}

type ExportReportRequest struct {
	ReportID string `json:"report_id"`
	Format   string `json:"format"`
}

type ExportReportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

type DeliverReportRequest struct {
	ReportID string   `json:"report_id"`
	Format   string   `json:"format"`
	To       []string `json:"to"`
}

type DeliverReportResponse struct {
	MessageID string `json:"message_id"`
}
