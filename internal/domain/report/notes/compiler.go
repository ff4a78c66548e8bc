// Package notes builds the narrative note for each unit from leak severities,
// user-selected columns and cells, and merges it with user edits.
package notes

import (
	"strings"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/normalizer"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

const (
	fixtureKitchen = "kitchen faucet"
	fixtureBath    = "bathroom faucet"
	fixtureTub     = "tub spout/diverter"
)

// Compiler turns a row into its note text.
type Compiler struct {
	UnitColumn string
	Leaks      resolver.LeakColumns
	// SelectedColumns are appended verbatim as sentences.
	SelectedColumns []string
	// SelectedCells holds extra sentences per unit key.
	SelectedCells map[string][]string
}

// NewCompiler creates a compiler for a resolved sheet.
func NewCompiler(res resolver.Resolution, selectedColumns []string, selectedCells map[string][]string) Compiler {
	return Compiler{
		UnitColumn:      res.UnitColumn,
		Leaks:           res.Leaks,
		SelectedColumns: selectedColumns,
		SelectedCells:   selectedCells,
	}
}

// LeakSentence renders a severity for a fixture.
func LeakSentence(severity, fixture string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "light":
		return "Light leak from " + fixture + "."
	case "moderate":
		return "Moderate leak from " + fixture + "."
	case "heavy":
		return "Heavy leak from " + fixture + "."
	case "dripping", "driping":
		return "Dripping from " + fixture + "."
	default:
		return "Leak from " + fixture + "."
	}
}

// CompileRow returns the note for one row.
func (c Compiler) CompileRow(row sheet.Row) string {
	var b strings.Builder

	for _, leak := range []struct{ column, fixture string }{
		{c.Leaks.Kitchen, fixtureKitchen},
		{c.Leaks.Bath, fixtureBath},
		{c.Leaks.Tub, fixtureTub},
	} {
		if leak.column == "" {
			continue
		}
		if v := row.Value(leak.column); sheet.IsMeaningful(v) {
			b.WriteString(LeakSentence(v, leak.fixture))
			b.WriteString(" ")
		}
	}

	for _, col := range c.SelectedColumns {
		if v := row.Value(col); v != "" {
			b.WriteString(v)
			b.WriteString(". ")
		}
	}

	if c.UnitColumn != "" {
		for _, cell := range c.SelectedCells[normalizer.Key(row.Value(c.UnitColumn))] {
			if cell = strings.TrimSpace(cell); cell != "" {
				b.WriteString(cell)
				b.WriteString(". ")
			}
		}
	}

	return Clean(b.String())
}

// Compile returns the note of every unit. Rows sharing a unit contribute
// each distinct note once, in row order.
func (c Compiler) Compile(rows []sheet.Row) map[string]string {
	out := make(map[string]string)
	parts := make(map[string][]string)
	for _, row := range rows {
		unit := normalizer.Key(row.Value(c.UnitColumn))
		if unit == "" {
			continue
		}
		if _, ok := out[unit]; !ok {
			out[unit] = ""
		}
		note := c.CompileRow(row)
		if note == "" || contains(parts[unit], note) {
			continue
		}
		parts[unit] = append(parts[unit], note)
		out[unit] = strings.Join(parts[unit], " ")
	}
	return out
}

// Clean collapses repeated periods and trims the text.
func Clean(s string) string {
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	return strings.TrimSpace(s)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
