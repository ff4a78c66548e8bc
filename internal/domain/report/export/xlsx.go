package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailsSheet = "Details"
	notesSheet   = "Notes"
)

// WriteXLSX writes a workbook with Summary, Details and Notes sheets.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{detailsSheet, notesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, doc, bold); err != nil {
		return err
	}
	if err := writeDetails(f, doc, bold); err != nil {
		return err
	}
	if err := writeNotes(f, doc, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, doc Document, bold int) error {
	c := doc.Layout.Customer
	t := sumUnits(doc.Report.Units)

	rows := [][]any{
		{doc.Layout.ReportTitle},
		{},
		{"Customer", c.CustomerName},
		{"Property", c.PropertyName},
		{"Address", c.Address},
		{"City", c.CityLine()},
		{"Date", c.Date},
		{},
		{"Units", len(doc.Report.Units)},
		{"Kitchen Aerators", t.Kitchen},
		{"Bathroom Aerators", t.Bathroom},
		{"Shower Heads", t.Shower},
		{"ADA Shower Heads", t.AdaShower},
		{"Toilets Installed", doc.Report.ToiletTotal},
	}
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 22)
}

func writeDetails(f *excelize.File, doc Document, bold int) error {
	headers := tableHeaders(doc.Report.Headers)
	details := unitDetails(doc.Report)
	rows := make([][]any, 0, len(doc.Report.Units)+1)
	rows = append(rows, toAny(headers))
	for _, u := range doc.Report.Units {
		rows = append(rows, toAny(tableRow(u, details[u.Unit])))
	}
	if err := setRows(f, detailsSheet, rows); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(detailsSheet, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(detailsSheet, "B", "E", 26); err != nil {
		return err
	}
	return f.SetColWidth(detailsSheet, "F", "F", 60)
}

func writeNotes(f *excelize.File, doc Document, bold int) error {
	labels := tableHeaders(doc.Report.Headers)

	rows := [][]any{{labels[0], labels[len(labels)-1]}}
	for _, e := range doc.Report.Notes {
		rows = append(rows, []any{e.DisplayUnit, e.Note})
	}
	if err := setRows(f, notesSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(notesSheet, "A1", "B1", bold); err != nil {
		return err
	}
	return f.SetColWidth(notesSheet, "B", "B", 80)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
