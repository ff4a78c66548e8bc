package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sniffer"
)

// preferredSheets are worksheet names vendors use for the unit list.
var preferredSheets = []string{"installation", "installations", "units", "data", "sheet1"}

// ParseExcel reads an XLSX workbook including its merged-cell ranges.
func ParseExcel(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	name := opts.SheetName
	if idx, idxErr := f.GetSheetIndex(name); name == "" || idxErr != nil || idx < 0 {
		name = findUnitSheet(f)
	}
	if name == "" {
		return nil, ErrNoSheet
	}

	grid, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if len(grid) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	headerRow := opts.HeaderRow
	if headerRow < 0 || headerRow >= len(grid) {
		headerRow, err = sniffer.HeaderRow(grid)
		if err != nil {
			return nil, err
		}
	}

	merges, err := mergeRanges(f, name)
	if err != nil {
		return nil, err
	}

	s := fromGrid(name, grid, headerRow, merges)
	return &Result{
		Sheet:       s,
		Format:      FormatXLSX,
		Fingerprint: sniffer.Fingerprint(s.Columns),
		TotalRows:   len(s.Rows),
	}, nil
}

// findUnitSheet prefers well-known sheet names, then the first sheet.
func findUnitSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), preferred) {
				return s
			}
		}
	}
	return sheets[0]
}

func mergeRanges(f *excelize.File, name string) ([]sheet.MergeRange, error) {
	cells, err := f.GetMergeCells(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged cells: %w", err)
	}

	out := make([]sheet.MergeRange, 0, len(cells))
	for _, mc := range cells {
		sc, sr, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		ec, er, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		out = append(out, sheet.MergeRange{
			StartRow: sr - 1,
			EndRow:   er - 1,
			StartCol: sc - 1,
			EndCol:   ec - 1,
		})
	}
	return out, nil
}
