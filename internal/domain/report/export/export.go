// Package export renders a computed report as a spreadsheet, CSV, PDF or an
// HTML preview. Renderers read the report as is and never recompute it.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
)

// Format is an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Document is a report together with the text surrounding it.
type Document struct {
	Report engine.Report
	Layout state.Layout
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatPDF, FormatHTML:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of a format.
func ContentType(f Format) string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/html; charset=utf-8"
	}
}

// Filename names an export after the property, e.g.
// "Oak-Towers_Water_Conservation_Report.xlsx".
func Filename(property string, f Format) string {
	name := strings.Join(strings.Fields(property), "-")
	if name == "" {
		name = "Property"
	}
	return name + "_Water_Conservation_Report." + string(f)
}

// Render writes doc in the given format.
func Render(w io.Writer, doc Document, f Format) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatHTML:
		return WriteHTML(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// tableHeaders are the unit table titles in column order. The last column
// carries each unit's detail text.
func tableHeaders(labels map[string]string) []string {
	defaults := state.DefaultHeaderLabels()
	keys := []string{state.HeaderUnit, state.HeaderKitchen, state.HeaderBathroom, state.HeaderShower, state.HeaderToilet, state.HeaderNotes}

	out := make([]string, len(keys))
	for i, k := range keys {
		if v := labels[k]; v != "" {
			out[i] = v
		} else {
			out[i] = defaults[k]
		}
	}
	return out
}

func tableRow(u consolidator.Unit, detail string) []string {
	return []string{u.DisplayUnit, u.Kitchen, u.Bathroom, u.Shower, u.Toilet, detail}
}

// unitDetails maps unit keys to their detail text. Units whose detail was
// deleted are absent from the details view and get an empty cell.
func unitDetails(rep engine.Report) map[string]string {
	out := make(map[string]string, len(rep.Details))
	for _, e := range rep.Details {
		out[e.Unit] = e.Detail
	}
	return out
}

type totals struct {
	Kitchen, Bathroom, AdaShower, Shower, Toilet int
}

func sumUnits(units []consolidator.Unit) totals {
	var t totals
	for _, u := range units {
		t.Kitchen += u.KitchenAeratorQuantity
		t.Bathroom += u.BathroomAeratorQuantity
		t.AdaShower += u.AdaShowerQuantity
		t.Shower += u.ShowerHeadQuantity
		t.Toilet += u.ToiletQuantity
	}
	return t
}

func letter(doc Document) []string {
	return doc.Layout.Letter(strconv.Itoa(doc.Report.ToiletTotal))
}
