// Package parser reads uploaded installation sheets (CSV, XLSX, legacy XLS)
// into the tabular sheet model.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sniffer"
)

// Format identifies an upload's file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoSheet           = errors.New("no worksheet found")
)

var (
	zipMagic = []byte("PK\x03\x04")
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ParseError describes a row that could not be read.
type ParseError struct {
	Row     int
	Column  string
	Message string
}

func (e ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// Result is a parsed upload.
type Result struct {
	Sheet       *sheet.Sheet
	Format      Format
	Fingerprint string
	Errors      []ParseError
	TotalRows   int
}

// Options configure parsing.
type Options struct {
	// HeaderRow forces the 0-based header row; -1 detects it.
	HeaderRow int
	// SheetName selects a workbook sheet; empty picks one.
	SheetName string
}

// DefaultOptions detects everything.
func DefaultOptions() Options {
	return Options{HeaderRow: -1}
}

// DetectFormat sniffs magic bytes, falling back to the file extension.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, cfbMagic):
		return FormatXLS, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt", "":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

// Parse reads an upload of any supported format.
func Parse(r io.Reader, filename string, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return ParseExcel(bytes.NewReader(data), opts)
	case FormatXLS:
		return ParseXLS(data, opts)
	default:
		return ParseCSV(data, opts)
	}
}

// fromGrid converts a raw grid into a sheet given its header row.
func fromGrid(name string, grid [][]string, headerRow int, merges []sheet.MergeRange) *sheet.Sheet {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	raw := make([]string, width)
	copy(raw, grid[headerRow])
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			raw[i] = "Column " + strconv.Itoa(i+1)
		}
	}
	trimTrailingPlaceholders(&raw, grid[headerRow])

	s := &sheet.Sheet{
		Name:      name,
		Columns:   sheet.UniqueHeaders(raw),
		HeaderRow: headerRow,
		Merges:    merges,
	}
	for i := headerRow + 1; i < len(grid); i++ {
		cells := make(map[string]string, len(s.Columns))
		for j, col := range s.Columns {
			if j < len(grid[i]) {
				cells[col] = grid[i][j]
			} else {
				cells[col] = ""
			}
		}
		s.Rows = append(s.Rows, sheet.Row{GridRow: i, Cells: cells})
	}
	return s
}

// trimTrailingPlaceholders drops generated names for trailing columns that
// have no header.
func trimTrailingPlaceholders(raw *[]string, header []string) {
	n := len(*raw)
	for n > 0 {
		i := n - 1
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			break
		}
		n--
	}
	if n == 0 {
		return
	}
	*raw = (*raw)[:n]
}
