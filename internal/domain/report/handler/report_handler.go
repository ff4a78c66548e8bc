// Package handler exposes the report service over Connect RPC.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/export"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/parser"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/search"
	reportservice "github.com/FACorreiaa/fixture-report/internal/domain/report/service"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sniffer"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/pkg/mailer"
)

// ServiceName is the fully-qualified RPC service name.
const ServiceName = "report.v1.ReportService"

// Procedure paths.
const (
	UploadSpreadsheetProcedure = "/" + ServiceName + "/UploadSpreadsheet"
	GetReportProcedure         = "/" + ServiceName + "/GetReport"
	SetOverrideProcedure       = "/" + ServiceName + "/SetOverride"
	ClearOverrideProcedure     = "/" + ServiceName + "/ClearOverride"
	DeleteNoteProcedure        = "/" + ServiceName + "/DeleteNote"
	DeleteDetailProcedure      = "/" + ServiceName + "/DeleteDetail"
	RemoveUnitProcedure        = "/" + ServiceName + "/RemoveUnit"
	RestoreUnitProcedure       = "/" + ServiceName + "/RestoreUnit"
	AddRowProcedure            = "/" + ServiceName + "/AddRow"
	SetSyncProcedure           = "/" + ServiceName + "/SetSync"
	SetSelectionsProcedure     = "/" + ServiceName + "/SetSelections"
	SetLayoutProcedure         = "/" + ServiceName + "/SetLayout"
	SearchNotesProcedure       = "/" + ServiceName + "/SearchNotes"
	ExportReportProcedure      = "/" + ServiceName + "/ExportReport"
	DeliverReportProcedure     = "/" + ServiceName + "/DeliverReport"
)

var errInvalidReportID = errors.New("invalid report id")

// ReportHandler handles Report service RPCs
type ReportHandler struct {
	reportSvc *reportservice.ReportService
	logger    *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc *reportservice.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reportSvc: reportSvc,
		logger:    logger,
	}
}

// Routes returns the mount path and handler for every procedure.
func (h *ReportHandler) Routes(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(UploadSpreadsheetProcedure, connect.NewUnaryHandler(UploadSpreadsheetProcedure, h.UploadSpreadsheet, opts...))
	mux.Handle(GetReportProcedure, connect.NewUnaryHandler(GetReportProcedure, h.GetReport, opts...))
	mux.Handle(SetOverrideProcedure, connect.NewUnaryHandler(SetOverrideProcedure, h.SetOverride, opts...))
	mux.Handle(ClearOverrideProcedure, connect.NewUnaryHandler(ClearOverrideProcedure, h.ClearOverride, opts...))
	mux.Handle(DeleteNoteProcedure, connect.NewUnaryHandler(DeleteNoteProcedure, h.DeleteNote, opts...))
	mux.Handle(DeleteDetailProcedure, connect.NewUnaryHandler(DeleteDetailProcedure, h.DeleteDetail, opts...))
	mux.Handle(RemoveUnitProcedure, connect.NewUnaryHandler(RemoveUnitProcedure, h.RemoveUnit, opts...))
	mux.Handle(RestoreUnitProcedure, connect.NewUnaryHandler(RestoreUnitProcedure, h.RestoreUnit, opts...))
	mux.Handle(AddRowProcedure, connect.NewUnaryHandler(AddRowProcedure, h.AddRow, opts...))
	mux.Handle(SetSyncProcedure, connect.NewUnaryHandler(SetSyncProcedure, h.SetSync, opts...))
	mux.Handle(SetSelectionsProcedure, connect.NewUnaryHandler(SetSelectionsProcedure, h.SetSelections, opts...))
	mux.Handle(SetLayoutProcedure, connect.NewUnaryHandler(SetLayoutProcedure, h.SetLayout, opts...))
	mux.Handle(SearchNotesProcedure, connect.NewUnaryHandler(SearchNotesProcedure, h.SearchNotes, opts...))
	mux.Handle(ExportReportProcedure, connect.NewUnaryHandler(ExportReportProcedure, h.ExportReport, opts...))
	mux.Handle(DeliverReportProcedure, connect.NewUnaryHandler(DeliverReportProcedure, h.DeliverReport, opts...))

	return "/" + ServiceName + "/", mux
}

// UploadSpreadsheet parses an upload and opens a report for it
func (h *ReportHandler) UploadSpreadsheet(ctx context.Context, req *connect.Request[UploadSpreadsheetRequest]) (*connect.Response[UploadSpreadsheetResponse], error) {
	res, err := h.reportSvc.Upload(ctx, req.Msg.Filename, req.Msg.Content)
	if err != nil {
		return nil, h.toConnectError("failed to upload spreadsheet", err)
	}

	view, err := h.view(ctx, res.ReportID, res.Report)
	if err != nil {
		return nil, err
	}

	parseErrors := make([]string, 0, len(res.ParseErrors))
	for _, pe := range res.ParseErrors {
		parseErrors = append(parseErrors, pe.Error())
	}

	return connect.NewResponse(&UploadSpreadsheetResponse{
		Format:      string(res.Format),
		Fingerprint: res.Fingerprint,
		ParseErrors: parseErrors,
		Report:      view,
	}), nil
}

// GetReport returns the current report
func (h *ReportHandler) GetReport(ctx context.Context, req *connect.Request[GetReportRequest]) (*connect.Response[ReportView], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.Get(ctx, id)
	if err != nil {
		return nil, h.toConnectError("failed to get report", err)
	}
	return h.respond(ctx, id, rep)
}

// SetOverride records a user edit of a unit field
func (h *ReportHandler) SetOverride(ctx context.Context, req *connect.Request[SetOverrideRequest]) (*connect.Response[ReportView], error) {
	id, field, err := parseTarget(req.Msg.ReportID, req.Msg.Field)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.SetOverride(ctx, id, req.Msg.Unit, field, req.Msg.Value)
	if err != nil {
		return nil, h.toConnectError("failed to set override", err)
	}
	return h.respond(ctx, id, rep)
}

// ClearOverride drops a user edit
func (h *ReportHandler) ClearOverride(ctx context.Context, req *connect.Request[ClearOverrideRequest]) (*connect.Response[ReportView], error) {
	id, field, err := parseTarget(req.Msg.ReportID, req.Msg.Field)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.ClearOverride(ctx, id, req.Msg.Unit, field)
	if err != nil {
		return nil, h.toConnectError("failed to clear override", err)
	}
	return h.respond(ctx, id, rep)
}

// DeleteNote hides a unit's note
func (h *ReportHandler) DeleteNote(ctx context.Context, req *connect.Request[UnitRequest]) (*connect.Response[ReportView], error) {
	return h.unitCall(ctx, req.Msg, h.reportSvc.DeleteNote, "failed to delete note")
}

// DeleteDetail hides a unit's detail
func (h *ReportHandler) DeleteDetail(ctx context.Context, req *connect.Request[UnitRequest]) (*connect.Response[ReportView], error) {
	return h.unitCall(ctx, req.Msg, h.reportSvc.DeleteDetail, "failed to delete detail")
}

// RemoveUnit hides a unit everywhere
func (h *ReportHandler) RemoveUnit(ctx context.Context, req *connect.Request[UnitRequest]) (*connect.Response[ReportView], error) {
	return h.unitCall(ctx, req.Msg, h.reportSvc.RemoveUnit, "failed to remove unit")
}

// RestoreUnit undoes removals and deletions of a unit
func (h *ReportHandler) RestoreUnit(ctx context.Context, req *connect.Request[UnitRequest]) (*connect.Response[ReportView], error) {
	return h.unitCall(ctx, req.Msg, h.reportSvc.RestoreUnit, "failed to restore unit")
}

// AddRow appends a manual unit row
func (h *ReportHandler) AddRow(ctx context.Context, req *connect.Request[AddRowRequest]) (*connect.Response[ReportView], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.AddRow(ctx, id, state.ManualRow{Unit: req.Msg.Unit, Cells: req.Msg.Cells})
	if err != nil {
		return nil, h.toConnectError("failed to add row", err)
	}
	return h.respond(ctx, id, rep)
}

// SetSync toggles note/detail mirroring
func (h *ReportHandler) SetSync(ctx context.Context, req *connect.Request[SetSyncRequest]) (*connect.Response[ReportView], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.SetSync(ctx, id, req.Msg.Enabled)
	if err != nil {
		return nil, h.toConnectError("failed to set sync", err)
	}
	return h.respond(ctx, id, rep)
}

// SetSelections picks the columns and cells copied into notes
func (h *ReportHandler) SetSelections(ctx context.Context, req *connect.Request[SetSelectionsRequest]) (*connect.Response[ReportView], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.SetSelections(ctx, id, req.Msg.Columns, req.Msg.Cells)
	if err != nil {
		return nil, h.toConnectError("failed to set selections", err)
	}
	return h.respond(ctx, id, rep)
}

// SetLayout replaces the report text
func (h *ReportHandler) SetLayout(ctx context.Context, req *connect.Request[SetLayoutRequest]) (*connect.Response[ReportView], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := h.reportSvc.SetLayout(ctx, id, req.Msg.Layout)
	if err != nil {
		return nil, h.toConnectError("failed to set layout", err)
	}
	return h.respond(ctx, id, rep)
}

// SearchNotes searches notes and details
func (h *ReportHandler) SearchNotes(ctx context.Context, req *connect.Request[SearchNotesRequest]) (*connect.Response[SearchNotesResponse], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	hits, err := h.reportSvc.Search(ctx, id, req.Msg.Query, search.Kind(req.Msg.Kind), req.Msg.Limit)
	if err != nil {
		return nil, h.toConnectError("failed to search notes", err)
	}
	return connect.NewResponse(&SearchNotesResponse{Hits: hits}), nil
}

// ExportReport renders the report file
func (h *ReportHandler) ExportReport(ctx context.Context, req *connect.Request[ExportReportRequest]) (*connect.Response[ExportReportResponse], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(req.Msg.Format)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	out, err := h.reportSvc.Export(ctx, id, format)
	if err != nil {
		return nil, h.toConnectError("failed to export report", err)
	}
	return connect.NewResponse(&ExportReportResponse{
		Filename:    out.Filename,
		ContentType: out.ContentType,
		Content:     out.Data,
	}), nil
}

// DeliverReport emails the exported report
func (h *ReportHandler) DeliverReport(ctx context.Context, req *connect.Request[DeliverReportRequest]) (*connect.Response[DeliverReportResponse], error) {
	id, err := parseReportID(req.Msg.ReportID)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(req.Msg.Format)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	msgID, err := h.reportSvc.Deliver(ctx, id, format, req.Msg.To)
	if err != nil {
		return nil, h.toConnectError("failed to deliver report", err)
	}
	return connect.NewResponse(&DeliverReportResponse{MessageID: msgID}), nil
}

type unitFunc func(ctx context.Context, reportID uuid.UUID, unit string) (engine.Report, error)

func (h *ReportHandler) unitCall(ctx context.Context, msg *UnitRequest, fn unitFunc, action string) (*connect.Response[ReportView], error) {
	id, err := parseReportID(msg.ReportID)
	if err != nil {
		return nil, err
	}
	rep, err := fn(ctx, id, msg.Unit)
	if err != nil {
		return nil, h.toConnectError(action, err)
	}
	return h.respond(ctx, id, rep)
}

func (h *ReportHandler) respond(ctx context.Context, id uuid.UUID, rep engine.Report) (*connect.Response[ReportView], error) {
	view, err := h.view(ctx, id, rep)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(view), nil
}

func (h *ReportHandler) view(ctx context.Context, id uuid.UUID, rep engine.Report) (*ReportView, error) {
	snap, err := h.reportSvc.Snapshot(ctx, id)
	if err != nil {
		return nil, h.toConnectError("failed to load report state", err)
	}
	return newReportView(id.String(), rep, snap), nil
}

// toConnectError maps domain errors to RPC codes.
func (h *ReportHandler) toConnectError(msg string, err error) error {
	switch {
	case errors.Is(err, reportservice.ErrReportNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, state.ErrUnknownField),
		errors.Is(err, reportservice.ErrInvalidRow),
		errors.Is(err, reportservice.ErrEmptyUpload),
		errors.Is(err, reportservice.ErrNoRecipients),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrNoSheet),
		errors.Is(err, sniffer.ErrEmptyFile),
		errors.Is(err, sniffer.ErrNoHeadersFound),
		errors.Is(err, sniffer.ErrInvalidDelimiter):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, mailer.ErrNotConfigured):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	}

	h.logger.Error(msg, slog.Any("error", err))
	return connect.NewError(connect.CodeInternal, err)
}

func parseReportID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, errInvalidReportID)
	}
	return id, nil
}

func parseTarget(reportID, field string) (uuid.UUID, state.Field, error) {
	id, err := parseReportID(reportID)
	if err != nil {
		return uuid.Nil, "", err
	}
	f, err := state.ParseField(field)
	if err != nil {
		return uuid.Nil, "", connect.NewError(connect.CodeInvalidArgument, err)
	}
	return id, f, nil
}
