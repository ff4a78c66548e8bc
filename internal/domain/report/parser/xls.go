package parser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sniffer"
)

// maxXLSRows bounds how many rows are read from a legacy workbook.
const maxXLSRows = 100000

// ParseXLS reads a legacy BIFF workbook. Merge ranges are not available in
// this format, so merged unit cells read as blank.
func ParseXLS(data []byte, opts Options) (*Result, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}

	grid := wb.ReadAllCells(maxXLSRows)
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

	s := fromGrid("xls", grid, headerRow, nil)
	return &Result{
		Sheet:       s,
		Format:      FormatXLS,
		Fingerprint: sniffer.Fingerprint(s.Columns),
		TotalRows:   len(s.Rows),
	}, nil
}
