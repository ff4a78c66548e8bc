// Package sniffer detects the layout of uploaded installation sheets: the
// delimiter of text exports and the row holding the column headers.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// headerKeywords appear in installation sheet header rows.
var headerKeywords = []string{
	"unit", "apt", "bldg", "room",
	"kitchen", "bathroom", "bath", "aerator",
	"shower", "toilet", "leak", "notes",
}

// maxHeaderSearch bounds how far down a sheet the header row may sit.
const maxHeaderSearch = 20

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// FileConfig is the detected layout of a delimited file.
type FileConfig struct {
	Delimiter   rune
	SkipLines   int
	Headers     []string
	Fingerprint string
	SampleRows  [][]string
}

// DetectOptions override parts of detection.
type DetectOptions struct {
	// HeaderRowIndex is 0-based; -1 auto-detects.
	HeaderRowIndex int
	Delimiter      rune
}

// Decode strips a UTF-8 or UTF-16 byte order mark and returns UTF-8 text.
func Decode(data []byte) ([]byte, error) {
	dec := xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetectConfig analyzes a delimited file.
func DetectConfig(data []byte) (*FileConfig, error) {
	return DetectConfigWithOptions(data, nil)
}

// DetectConfigWithOptions analyzes a delimited file honoring overrides.
func DetectConfigWithOptions(data []byte, opts *DetectOptions) (*FileConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(text), "\n")

	var delimiter rune
	var skip int
	if opts != nil && opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skip = opts.HeaderRowIndex
		delimiter = opts.Delimiter
		if delimiter == 0 {
			delimiter, _ = detectDelimiter(cleanLine(lines[skip]))
		}
		if delimiter == 0 {
			return nil, ErrInvalidDelimiter
		}
	} else {
		delimiter, skip, err = findHeaderLine(lines)
		if err != nil {
			return nil, err
		}
		if opts != nil && opts.Delimiter != 0 {
			delimiter = opts.Delimiter
		}
	}

	reader := csv.NewReader(strings.NewReader(cleanLine(lines[skip])))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skip,
		Headers:     headers,
		Fingerprint: Fingerprint(headers),
		SampleRows:  sampleRows(text, delimiter, skip+1, 5),
	}, nil
}

// HeaderRow picks the header row of an already split grid: the row with the
// most keyword hits, ties going to the wider row, then the earlier one.
// Without any keyword hits the widest of the first rows wins.
func HeaderRow(grid [][]string) (int, error) {
	type candidate struct {
		index, hits, width int
	}

	var cands []candidate
	for i, row := range grid {
		if i >= maxHeaderSearch {
			break
		}
		width := 0
		hits := 0
		for _, cell := range row {
			cell = strings.ToLower(strings.TrimSpace(cell))
			if cell == "" {
				continue
			}
			width++
			for _, kw := range headerKeywords {
				if strings.Contains(cell, kw) {
					hits++
					break
				}
			}
		}
		if width > 0 {
			cands = append(cands, candidate{i, hits, width})
		}
	}
	if len(cands) == 0 {
		return 0, ErrNoHeadersFound
	}

	sort.SliceStable(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.hits != cb.hits {
			return ca.hits > cb.hits
		}
		if ca.width != cb.width {
			return ca.width > cb.width
		}
		return ca.index < cb.index
	})
	return cands[0].index, nil
}

// Fingerprint hashes normalized header names so repeat vendor templates can
// be recognized.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}

func findHeaderLine(lines []string) (rune, int, error) {
	grid := make([][]string, 0, maxHeaderSearch)
	delims := make([]rune, 0, maxHeaderSearch)
	for i, line := range lines {
		if i >= maxHeaderSearch {
			break
		}
		line = cleanLine(line)
		d, count := detectDelimiter(line)
		if count < 1 {
			grid = append(grid, nil)
			delims = append(delims, 0)
			continue
		}
		grid = append(grid, strings.Split(line, string(d)))
		delims = append(delims, d)
	}

	idx, err := HeaderRow(grid)
	if err != nil {
		return 0, 0, err
	}
	if delims[idx] == 0 {
		return 0, 0, ErrInvalidDelimiter
	}
	return delims[idx], idx, nil
}

func cleanLine(line string) string {
	return strings.TrimSpace(strings.TrimRight(line, "\r"))
}

func detectDelimiter(line string) (rune, int) {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best, bestCount
}

func sampleRows(data []byte, delimiter rune, start, limit int) [][]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if line >= start {
			rows = append(rows, record)
			if len(rows) >= limit {
				break
			}
		}
		line++
	}
	return rows
}
