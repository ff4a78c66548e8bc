// Package engine runs the report pipeline: resolve columns, filter rows,
// normalize unit keys, consolidate fixtures and merge notes with user edits.
package engine

import (
	"io"
	"log/slog"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/normalizer"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/notes"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/validator"
)

// fallbackUnitColumn names the unit column of reports built from manual rows
// only.
const fallbackUnitColumn = "Unit"

// Options tune the pipeline.
type Options struct {
	Ratings consolidator.Ratings
	// MergeDuplicates consolidates rows naming the same unit instead of
	// numbering them.
	MergeDuplicates bool
	// UnitColumn forces the unit column; empty means detect.
	UnitColumn string
	Strategy   resolver.Strategy
	Keywords   []string
	Logger     *slog.Logger
}

// Overrides is the read side of the state store.
type Overrides interface {
	notes.Overrides
	Fixture(unit, field string) (string, bool)
	Rename(unit string) (name string, removed bool)
	HeaderLabels() map[string]string
}

// Input is everything a report is computed from besides overrides.
type Input struct {
	Sheet           *sheet.Sheet
	SelectedColumns []string
	SelectedCells   map[string][]string
	ManualRows      []state.ManualRow
}

// Report is the single derived view every output surface renders.
type Report struct {
	Units       []consolidator.Unit `json:"units"`
	Notes       []notes.Entry       `json:"notes"`
	Details     []notes.Entry       `json:"details"`
	Headers     map[string]string   `json:"headers"`
	ToiletTotal int                 `json:"toilet_total"`
	Resolution  resolver.Resolution `json:"resolution"`
	Filter      validator.Result    `json:"filter"`
	Columns     []string            `json:"columns"`
}

// Empty reports whether no unit survived the pipeline.
func (r Report) Empty() bool {
	return len(r.Units) == 0
}

// Unit returns the consolidated unit with the given key.
func (r Report) Unit(key string) (consolidator.Unit, bool) {
	for _, u := range r.Units {
		if u.Unit == key {
			return u, true
		}
	}
	return consolidator.Unit{}, false
}

// Engine computes reports. It holds no per-report state and is safe for
// concurrent use.
type Engine struct {
	opts      Options
	resolver  *resolver.Resolver
	validator *validator.Validator
	logger    *slog.Logger
}

// New builds an engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Ratings == (consolidator.Ratings{}) {
		opts.Ratings = consolidator.DefaultRatings()
	}

	ropts := []resolver.Option{resolver.WithLogger(opts.Logger)}
	if opts.Strategy != nil {
		ropts = append(ropts, resolver.WithStrategy(opts.Strategy))
	}
	vopts := []validator.Option{validator.WithLogger(opts.Logger)}
	if len(opts.Keywords) > 0 {
		vopts = append(vopts, validator.WithKeywords(opts.Keywords))
	}

	return &Engine{
		opts:      opts,
		resolver:  resolver.New(ropts...),
		validator: validator.New(vopts...),
		logger:    opts.Logger,
	}
}

// Compute derives the report for a sheet under the given overrides. A nil
// Overrides computes the untouched report.
func (e *Engine) Compute(in Input, o Overrides) Report {
	if o == nil {
		o = state.NewStore()
	}

	rep := Report{Headers: o.HeaderLabels()}
	sh := in.Sheet
	if sh == nil {
		sh = &sheet.Sheet{}
	}
	if sh.Empty() && len(in.ManualRows) == 0 {
		e.logger.Debug("no data rows to compute")
		return rep
	}

	res := e.resolver.ResolveSheet(sh, e.opts.UnitColumn)
	if res.UnitColumn == "" {
		res.UnitColumn = fallbackUnitColumn
	}
	rep.Resolution = res
	rep.Columns = append([]string(nil), sh.Columns...)

	filtered := e.validator.Filter(sh, res)
	rep.Filter = filtered

	manual := make([]sheet.Row, len(in.ManualRows))
	for i, m := range in.ManualRows {
		manual[i] = manualRow(m, res.UnitColumn, -(i + 1))
	}

	// Manual rows are keyed after the sheet so adding one never renames a
	// unit that overrides already point at.
	var rows []sheet.Row
	if e.opts.MergeDuplicates {
		rows = normalizer.Canonicalize(append(append([]sheet.Row(nil), filtered.Rows...), manual...), res.UnitColumn)
	} else {
		rows = normalizer.Append(normalizer.Normalize(filtered.Rows, res.UnitColumn), manual, res.UnitColumn)
	}

	compiler := notes.NewCompiler(res, in.SelectedColumns, in.SelectedCells)
	units := consolidator.Consolidate(rows, res, e.opts.Ratings, compiler.CompileRow)

	kept := units[:0]
	for _, u := range units {
		name, removed := o.Rename(u.Unit)
		if removed {
			continue
		}
		u.DisplayUnit = name
		kept = append(kept, u)
	}
	units = kept

	consolidator.ApplyOverrides(units, o.Fixture)
	consolidator.SortUnits(units)
	rep.Units = units

	keys := make([]string, len(units))
	display := make(map[string]string, len(units))
	for i, u := range units {
		keys[i] = u.Unit
		display[u.Unit] = u.DisplayUnit
	}

	entries := notes.Merge(keys, compiler.Compile(rows), o)
	for i := range entries {
		entries[i].DisplayUnit = display[entries[i].Unit]
	}
	rep.Notes = notes.NotesView(entries)
	rep.Details = notes.DetailsView(entries)
	rep.ToiletTotal = consolidator.ToiletTotal(sh.Columns, units)

	e.logger.Debug("report computed",
		slog.Int("rows", len(rows)),
		slog.Int("units", len(units)),
		slog.Int("notes", len(rep.Notes)),
		slog.Int("skipped", len(filtered.Skipped)),
	)
	return rep
}

func manualRow(m state.ManualRow, unitColumn string, gridRow int) sheet.Row {
	cells := make(map[string]string, len(m.Cells)+1)
	for k, v := range m.Cells {
		cells[k] = v
	}
	cells[unitColumn] = m.Unit
	return sheet.Row{GridRow: gridRow, Cells: cells}
}
