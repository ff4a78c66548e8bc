package parser

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sniffer"
)

// ParseCSV reads a delimited export. Blank lines are kept as empty rows
// because a blank unit cell ends the unit list.
func ParseCSV(data []byte, opts Options) (*Result, error) {
	cfg, err := sniffer.DetectConfigWithOptions(data, &sniffer.DetectOptions{HeaderRowIndex: opts.HeaderRow})
	if err != nil {
		return nil, fmt.Errorf("failed to detect csv layout: %w", err)
	}

	text, err := sniffer.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv: %w", err)
	}

	result := &Result{Format: FormatCSV, Fingerprint: cfg.Fingerprint}
	grid := make([][]string, 0, 256)
	for _, rec := range splitRecords(string(text)) {
		if strings.TrimSpace(rec.text) == "" {
			grid = append(grid, nil)
			continue
		}
		r := csv.NewReader(strings.NewReader(rec.text))
		r.Comma = cfg.Delimiter
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		fields, err := r.Read()
		if err != nil {
			result.Errors = append(result.Errors, ParseError{Row: rec.line + 1, Message: err.Error()})
			grid = append(grid, nil)
			continue
		}
		grid = append(grid, fields)
	}

	for len(grid) > 0 && len(grid[len(grid)-1]) == 0 {
		grid = grid[:len(grid)-1]
	}
	if cfg.SkipLines >= len(grid) {
		return nil, sniffer.ErrNoHeadersFound
	}

	result.Sheet = fromGrid("csv", grid, cfg.SkipLines, nil)
	result.TotalRows = len(result.Sheet.Rows)
	return result, nil
}

type record struct {
	line int
	text string
}

// splitRecords splits text on newlines, joining lines inside quoted fields.
func splitRecords(text string) []record {
	lines := strings.Split(text, "\n")
	out := make([]record, 0, len(lines))

	var buf strings.Builder
	start := 0
	open := false
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !open {
			start = i
			buf.Reset()
		} else {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
		if strings.Count(line, `"`)%2 == 1 {
			open = !open
		}
		if !open {
			out = append(out, record{line: start, text: buf.String()})
		}
	}
	if open {
		out = append(out, record{line: start, text: buf.String()})
	}
	return out
}
