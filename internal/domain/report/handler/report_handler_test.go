package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	reportservice "github.com/FACorreiaa/fixture-report/internal/domain/report/service"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/pkg/storage"
)

const installationCSV = "Unit,Kitchen Aerator,Bathroom Aerator,Shower Head,Toilet,Tub Leak\n" +
	"101,1,1,1,1,light\n" +
	"102,1,,1,1,\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := reportservice.NewReportService(
		engine.New(engine.Options{Logger: logger}),
		state.NewMemoryRepository(),
		storage.NewMemoryStorage(),
		logger,
	)
	t.Cleanup(svc.Close)

	path, h := NewReportHandler(svc, logger).Routes()
	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call[Req, Res any](t *testing.T, srv *httptest.Server, procedure string, msg *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](srv.Client(), srv.URL+procedure, connect.WithCodec(jsonCodec{}))
	res, err := client.CallUnary(context.Background(), connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func uploadReport(t *testing.T, srv *httptest.Server) *UploadSpreadsheetResponse {
	t.Helper()
	res, err := call[UploadSpreadsheetRequest, UploadSpreadsheetResponse](t, srv, UploadSpreadsheetProcedure,
		&UploadSpreadsheetRequest{Filename: "oak.csv", Content: []byte(installationCSV)})
	require.NoError(t, err)
	return res
}

func TestUploadAndGet(t *testing.T) {
	srv := newTestServer(t)

	up := uploadReport(t, srv)
	assert.Equal(t, "csv", up.Format)
	require.NotNil(t, up.Report)
	assert.Len(t, up.Report.Units, 2)
	assert.Equal(t, 2, up.Report.ToiletTotal)
	assert.True(t, up.Report.Sync)

	got, err := call[GetReportRequest, ReportView](t, srv, GetReportProcedure,
		&GetReportRequest{ReportID: up.Report.ReportID})
	require.NoError(t, err)
	assert.Equal(t, up.Report.ReportID, got.ReportID)
	assert.Equal(t, "Unit", got.UnitColumn)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "101", got.Notes[0].Unit)
}

func TestSetOverride(t *testing.T) {
	srv := newTestServer(t)
	up := uploadReport(t, srv)

	view, err := call[SetOverrideRequest, ReportView](t, srv, SetOverrideProcedure, &SetOverrideRequest{
		ReportID: up.Report.ReportID,
		Unit:     "102",
		Field:    string(state.FieldToilet),
		Value:    "Unable",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unable", unitOf(t, view, "102").Toilet)

	view, err = call[ClearOverrideRequest, ReportView](t, srv, ClearOverrideProcedure, &ClearOverrideRequest{
		ReportID: up.Report.ReportID,
		Unit:     "102",
		Field:    string(state.FieldToilet),
	})
	require.NoError(t, err)
	assert.NotEqual(t, "Unable", unitOf(t, view, "102").Toilet)
}

func unitOf(t *testing.T, view *ReportView, key string) consolidator.Unit {
	t.Helper()
	for _, u := range view.Units {
		if u.Unit == key {
			return u
		}
	}
	t.Fatalf("unit %s not in report", key)
	return consolidator.Unit{}
}

func TestErrorCodes(t *testing.T) {
	srv := newTestServer(t)
	up := uploadReport(t, srv)

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "malformed id",
			call: func() error {
				_, err := call[GetReportRequest, ReportView](t, srv, GetReportProcedure, &GetReportRequest{ReportID: "nope"})
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown report",
			call: func() error {
				_, err := call[GetReportRequest, ReportView](t, srv, GetReportProcedure, &GetReportRequest{ReportID: uuid.NewString()})
				return err
			},
			want: connect.CodeNotFound,
		},
		{
			name: "unknown field",
			call: func() error {
				_, err := call[SetOverrideRequest, ReportView](t, srv, SetOverrideProcedure, &SetOverrideRequest{
					ReportID: up.Report.ReportID, Unit: "101", Field: "color", Value: "red",
				})
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "empty upload",
			call: func() error {
				_, err := call[UploadSpreadsheetRequest, UploadSpreadsheetResponse](t, srv, UploadSpreadsheetProcedure,
					&UploadSpreadsheetRequest{Filename: "empty.csv"})
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unsupported export",
			call: func() error {
				_, err := call[ExportReportRequest, ExportReportResponse](t, srv, ExportReportProcedure,
					&ExportReportRequest{ReportID: up.Report.ReportID, Format: "docx"})
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "mailer missing",
			call: func() error {
				_, err := call[DeliverReportRequest, DeliverReportResponse](t, srv, DeliverReportProcedure,
					&DeliverReportRequest{ReportID: up.Report.ReportID, Format: "pdf", To: []string{"pm@example.com"}})
				return err
			},
			want: connect.CodeFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}

func TestExportAndSearch(t *testing.T) {
	srv := newTestServer(t)
	up := uploadReport(t, srv)

	out, err := call[ExportReportRequest, ExportReportResponse](t, srv, ExportReportProcedure,
		&ExportReportRequest{ReportID: up.Report.ReportID, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Contains(t, string(out.Content), "101")

	found, err := call[SearchNotesRequest, SearchNotesResponse](t, srv, SearchNotesProcedure,
		&SearchNotesRequest{ReportID: up.Report.ReportID, Query: "leak"})
	require.NoError(t, err)
	require.NotEmpty(t, found.Hits)
	assert.Equal(t, "101", found.Hits[0].Unit)
}

func TestRemoveAndRestoreUnit(t *testing.T) {
	srv := newTestServer(t)
	up := uploadReport(t, srv)
	req := &UnitRequest{ReportID: up.Report.ReportID, Unit: "101"}

	view, err := call[UnitRequest, ReportView](t, srv, RemoveUnitProcedure, req)
	require.NoError(t, err)
	assert.Len(t, view.Units, 1)
	assert.Empty(t, view.Notes)

	view, err = call[UnitRequest, ReportView](t, srv, RestoreUnitProcedure, req)
	require.NoError(t, err)
	assert.Len(t, view.Units, 2)
}
