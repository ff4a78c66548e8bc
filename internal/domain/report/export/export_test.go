package export_test

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/export"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/notes"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
)

func sampleDocument() export.Document {
	layout := state.DefaultLayout()
	layout.Customer = state.CustomerInfo{
		CustomerName: "Dana Reyes",
		PropertyName: "Oak Towers",
		Address:      "12 Elm St",
		City:         "Springfield",
		State:        "IL",
		Zip:          "62701",
		Date:         "2026-10-01",
	}

	headers := state.DefaultHeaderLabels()
	headers[state.HeaderKitchen] = "Kitchen"

	return export.Document{
		Layout: layout,
		Report: engine.Report{
			Headers:     headers,
			ToiletTotal: 2,
			Units: []consolidator.Unit{
				{
					Unit: "101", DisplayUnit: "101",
					KitchenAeratorQuantity: 1, BathroomAeratorQuantity: 2, ToiletQuantity: 1,
					Kitchen: "1.0", Bathroom: "2.0", Shower: consolidator.Unable, Toilet: "0.8",
				},
				{
					Unit: "102", DisplayUnit: "Office",
					ShowerHeadQuantity: 1, ToiletQuantity: 1,
					Kitchen: consolidator.Unable, Bathroom: consolidator.Unable, Shower: "1.75", Toilet: "0.8",
				},
			},
			Notes: []notes.Entry{
				{Unit: "101", DisplayUnit: "101", Note: "Light leak from tub."},
			},
			Details: []notes.Entry{
				{Unit: "101", DisplayUnit: "101", Detail: "Light leak from tub."},
				{Unit: "102", DisplayUnit: "Office"},
			},
		},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Oak-Towers_Water_Conservation_Report.xlsx", export.Filename("Oak  Towers ", export.FormatXLSX))
	assert.Equal(t, "Property_Water_Conservation_Report.pdf", export.Filename("", export.FormatPDF))
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat(" Excel ")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)

	_, err = export.ParseFormat("docx")
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, sampleDocument()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Details", "Notes"}, f.GetSheetList())

	details, err := f.GetRows("Details")
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, []string{"Unit", "Kitchen", "Bathroom Aerator Installed", "Shower Head Installed", "Toilet Installed", "Notes"}, details[0])
	assert.Equal(t, []string{"101", "1.0", "2.0", "Unable", "0.8", "Light leak from tub."}, details[1])
	assert.Equal(t, []string{"Office", "Unable", "Unable", "1.75", "0.8"}, details[2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	found := false
	for _, row := range summary {
		if len(row) == 2 && row[0] == "Toilets Installed" {
			assert.Equal(t, "2", row[1])
			found = true
		}
	}
	assert.True(t, found, "summary should carry the toilet total")

	noteRows, err := f.GetRows("Notes")
	require.NoError(t, err)
	require.Len(t, noteRows, 2)
	assert.Equal(t, []string{"101", "Light leak from tub."}, noteRows[1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, sampleDocument()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Unit,Kitchen Aerators,Bathroom Aerators"))
	assert.True(t, strings.HasPrefix(lines[1], "101,1,2,0,0,1,"))
	assert.Contains(t, lines[2], "Office")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WritePDF(&buf, sampleDocument()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteHTML(t *testing.T) {
	doc := sampleDocument()
	doc.Report.Units[1].DisplayUnit = "Suite | 5_B"

	var buf bytes.Buffer
	require.NoError(t, export.WriteHTML(&buf, doc))
	html := buf.String()

	assert.Contains(t, html, "<h1>Water Conservation Installation Report</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>101</td>")
	assert.Contains(t, html, "Suite | 5_B")
	assert.Contains(t, html, "We successfully installed 2 toilets at the property.")
	assert.Contains(t, html, "Light leak from tub.")
}

var pdfStream = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)

// pdfContent returns the inflated content streams of a PDF.
func pdfContent(t *testing.T, data []byte) string {
	t.Helper()
	var b strings.Builder
	for _, m := range pdfStream.FindAllSubmatch(data, -1) {
		r, err := zlib.NewReader(bytes.NewReader(m[1]))
		if err != nil {
			b.Write(m[1])
			continue
		}
		raw, _ := io.ReadAll(r)
		b.Write(raw)
	}
	return b.String()
}

func TestRender_DetailColumn(t *testing.T) {
	doc := sampleDocument()
	doc.Report.Headers[state.HeaderNotes] = "Remarks"
	doc.Report.Details = []notes.Entry{
		{Unit: "101", DisplayUnit: "101", Detail: "Cartridge swapped"},
	}

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.WriteXLSX(&buf, doc))
		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Details")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Remarks", rows[0][5])
		assert.Equal(t, "Cartridge swapped", rows[1][5])
		assert.Len(t, rows[2], 5, "deleted detail leaves the cell empty")
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.WriteHTML(&buf, doc))
		assert.Contains(t, buf.String(), "<th>Remarks</th>")
		assert.Contains(t, buf.String(), "<td>Cartridge swapped</td>")
	})

	t.Run("pdf", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, export.WritePDF(&buf, doc))
		content := pdfContent(t, buf.Bytes())
		assert.Contains(t, content, "(Remarks)")
		assert.Contains(t, content, "(Cartridge swapped)")
	})
}

func TestRender_Unsupported(t *testing.T) {
	err := export.Render(&bytes.Buffer{}, sampleDocument(), export.Format("docx"))
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
