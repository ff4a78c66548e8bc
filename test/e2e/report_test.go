// Package e2etest provides end-to-end tests for the report flow: upload a
// workbook, edit the report, export it and reopen it after a restart.
package e2etest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/export"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/service"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/pkg/storage"
)

// installationWorkbook mirrors a typical field sheet: a title row above the
// headers, a unit spanning merged rows, and a totals block below a blank row.
func installationWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const name = "Installations"
	require.NoError(t, f.SetSheetName("Sheet1", name))

	rows := [][]any{
		{"Oak Towers Water Conservation"},
		{"Unit", "Kitchen Aerator", "Bathroom Aerator", "Shower Head", "Toilet", "Notes"},
		{"5B", 1, 1, nil, nil, "Tenant asked for a follow-up visit"},
		{nil, nil, 1, 1, nil, nil},
		{nil, nil, nil, nil, 1, nil},
		{"6A", 1, 2, 1, 1, nil},
		{nil},
		{"Total", 2, 4, 2, 2, nil},
	}
	for i, r := range rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(name, cell, v))
		}
	}
	require.NoError(t, f.MergeCell(name, "A3", "A5"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func newService(repo state.Repository, files storage.Storage) *service.ReportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewReportService(engine.New(engine.Options{Logger: logger}), repo, files, logger)
}

func TestReportFlow_Workbook(t *testing.T) {
	ctx := context.Background()
	repo := state.NewMemoryRepository()
	files := storage.NewMemoryStorage()

	svc := newService(repo, files)
	t.Cleanup(svc.Close)

	up, err := svc.Upload(ctx, "oak-towers.xlsx", installationWorkbook(t))
	require.NoError(t, err)
	id := up.ReportID

	t.Run("Upload", func(t *testing.T) {
		rep := up.Report
		assert.Equal(t, "Unit", rep.Resolution.UnitColumn)
		require.Len(t, rep.Units, 4, "three merged rows plus 6A; totals block is below the blank row")
		assert.Equal(t, 2, rep.ToiletTotal)

		var keys []string
		for _, u := range rep.Units {
			keys = append(keys, u.Unit)
		}
		assert.Contains(t, keys, "6A")
	})

	t.Run("Edit", func(t *testing.T) {
		rep, err := svc.SetOverride(ctx, id, "6A", state.FieldShower, "Unable")
		require.NoError(t, err)
		u, ok := rep.Unit("6A")
		require.True(t, ok)
		assert.Equal(t, "Unable", u.Shower)

		rep, err = svc.SetOverride(ctx, id, "6A", state.FieldNote, "Shower arm corroded.")
		require.NoError(t, err)

		var found bool
		for _, e := range rep.Details {
			if e.Unit == "6A" {
				found = true
				assert.Equal(t, "Shower arm corroded.", e.Detail, "sync mirrors notes into details")
			}
		}
		assert.True(t, found)

		l := state.DefaultLayout()
		l.Customer.PropertyName = "Oak Towers"
		l.Customer.City = "Springfield"
		_, err = svc.SetLayout(ctx, id, l)
		require.NoError(t, err)
	})

	t.Run("Export", func(t *testing.T) {
		for _, format := range []export.Format{export.FormatXLSX, export.FormatCSV, export.FormatPDF, export.FormatHTML} {
			out, err := svc.Export(ctx, id, format)
			require.NoError(t, err, format)
			assert.NotEmpty(t, out.Data, format)
			assert.Equal(t, export.ContentType(format), out.ContentType)
			assert.Contains(t, out.Filename, "Oak-Towers")
		}

		out, err := svc.Export(ctx, id, export.FormatXLSX)
		require.NoError(t, err)
		wb, err := excelize.OpenReader(bytes.NewReader(out.Data))
		require.NoError(t, err)
		defer func() { _ = wb.Close() }()
		assert.Equal(t, []string{"Summary", "Details", "Notes"}, wb.GetSheetList())
	})

	t.Run("Restart", func(t *testing.T) {
		restarted := newService(repo, files)
		t.Cleanup(restarted.Close)

		rep, err := restarted.Get(ctx, id)
		require.NoError(t, err)
		require.Len(t, rep.Units, 4)

		u, ok := rep.Unit("6A")
		require.True(t, ok)
		assert.Equal(t, "Unable", u.Shower)

		snap, err := restarted.Snapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Oak Towers", snap.Layout.Customer.PropertyName)
	})
}
