package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
)

const (
	pdfMargin     = 18.0
	pdfLineHeight = 6.0
	pdfFont       = "Helvetica"
)

// pdfColumnWidths fit a Letter page with the margins above. The detail
// column takes the remaining width.
var pdfColumnWidths = []float64{22, 25, 25, 25, 25, 57.9}

// WritePDF writes the cover letter, the unit table and the notes section.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeLetter(pdf, tr, doc)
	writeUnitTable(pdf, tr, doc)
	writeNotesSection(pdf, tr, doc)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func writeLetter(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	l := doc.Layout
	c := l.Customer

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(l.ReportTitle), "", 1, "C", false, 0, "")
	pdf.Ln(pdfLineHeight)

	pdf.SetFont(pdfFont, "", 11)
	for _, line := range []string{c.Date, c.CustomerName, c.PropertyName, c.Address, c.CityLine()} {
		if line == "" {
			continue
		}
		pdf.CellFormat(0, pdfLineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfLineHeight)

	pdf.SetFont(pdfFont, "B", 11)
	pdf.CellFormat(0, pdfLineHeight, tr(l.RePrefix+" "+c.PropertyName), "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 11)
	pdf.Ln(2)
	pdf.CellFormat(0, pdfLineHeight, tr(l.DearPrefix+" "+c.CustomerName+","), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, p := range letter(doc) {
		pdf.MultiCell(0, pdfLineHeight, tr(p), "", "L", false)
		pdf.Ln(3)
	}

	pdf.Ln(pdfLineHeight)
	pdf.CellFormat(0, pdfLineHeight, "Sincerely,", "", 1, "L", false, 0, "")
	pdf.Ln(pdfLineHeight)
	pdf.CellFormat(0, pdfLineHeight, tr(l.SignatureName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, tr(l.SignatureTitle), "", 1, "L", false, 0, "")
}

func writeUnitTable(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, tr(doc.Layout.SectionTitles.DetailsTitle), "", 1, "L", false, 0, "")

	headers := tableHeaders(doc.Report.Headers)
	header := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		writeTableRow(pdf, tr, headers, true, func(int) string { return "C" })
		pdf.SetFont(pdfFont, "", 9)
	}
	header()

	details := unitDetails(doc.Report)
	_, pageHeight := pdf.GetPageSize()
	for _, u := range doc.Report.Units {
		cells := tableRow(u, details[u.Unit])
		if pdf.GetY()+tableRowHeight(pdf, tr, cells) > pageHeight-pdfMargin {
			pdf.AddPage()
			header()
		}
		writeTableRow(pdf, tr, cells, false, func(i int) string {
			if i == 0 || i == len(cells)-1 {
				return "L"
			}
			return "C"
		})
	}
}

// tableRowHeight is the height of a row whose cells wrap inside their column.
func tableRowHeight(pdf *fpdf.Fpdf, tr func(string) string, cells []string) float64 {
	lines := 1
	for i, c := range cells {
		if n := len(pdf.SplitLines([]byte(tr(c)), pdfColumnWidths[i])); n > lines {
			lines = n
		}
	}
	return float64(lines) * pdfLineHeight
}

func writeTableRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, fill bool, align func(int) string) {
	h := tableRowHeight(pdf, tr, cells)
	style := "D"
	if fill {
		style = "FD"
	}

	left, _, _, _ := pdf.GetMargins()
	x, y := left, pdf.GetY()
	for i, c := range cells {
		w := pdfColumnWidths[i]
		pdf.Rect(x, y, w, h, style)
		pdf.SetXY(x, y)
		pdf.MultiCell(w, pdfLineHeight, tr(c), "", align(i), false)
		x += w
	}
	pdf.SetXY(left, y+h)
}

func writeNotesSection(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	if len(doc.Report.Notes) == 0 {
		return
	}

	title := doc.Layout.SectionTitles.Notes
	if title == "" {
		title = state.DefaultLayout().SectionTitles.Notes
	}

	pdf.Ln(pdfLineHeight)
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	for _, e := range doc.Report.Notes {
		pdf.SetFont(pdfFont, "B", 10)
		pdf.CellFormat(0, pdfLineHeight, tr(e.DisplayUnit), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		pdf.MultiCell(0, pdfLineHeight, tr(e.Note), "", "L", false)
		pdf.Ln(1)
	}
}
