// Package state keeps the user edits layered on top of a computed report:
// display overrides, note and detail text, renames, exclusions, review
// selections and the cover letter layout.
package state

import (
	"errors"
	"fmt"
	"sync"
)

// Field names an overridable attribute.
type Field string

const (
	FieldKitchen           Field = "kitchen"
	FieldBathroom          Field = "bathroom"
	FieldShower            Field = "shower"
	FieldToilet            Field = "toilet"
	FieldNote              Field = "note"
	FieldDetail            Field = "detail"
	FieldUnitRename        Field = "unitRename"
	FieldColumnHeaderLabel Field = "columnHeaderLabel"
)

// ErrUnknownField is returned for override fields outside the known set.
var ErrUnknownField = errors.New("unknown override field")

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldKitchen, FieldBathroom, FieldShower, FieldToilet,
		FieldNote, FieldDetail, FieldUnitRename, FieldColumnHeaderLabel:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) fixture() bool {
	return f == FieldKitchen || f == FieldBathroom || f == FieldShower || f == FieldToilet
}

// Header label keys.
const (
	HeaderUnit     = "unit"
	HeaderKitchen  = "kitchen"
	HeaderBathroom = "bathroom"
	HeaderShower   = "shower"
	HeaderToilet   = "toilet"
	HeaderNotes    = "notes"
)

// DefaultHeaderLabels are the unit table column titles.
func DefaultHeaderLabels() map[string]string {
	return map[string]string{
		HeaderUnit:     "Unit",
		HeaderKitchen:  "Kitchen Aerator Installed",
		HeaderBathroom: "Bathroom Aerator Installed",
		HeaderShower:   "Shower Head Installed",
		HeaderToilet:   "Toilet Installed",
		HeaderNotes:    "Notes",
	}
}

// ManualRow is a unit row entered by hand rather than read from the sheet.
type ManualRow struct {
	Unit  string            `json:"unit"`
	Cells map[string]string `json:"cells,omitempty"`
}

// Snapshot is the serializable content of a Store.
type Snapshot struct {
	Fixtures        map[string]map[Field]string `json:"fixtures"`
	Notes           map[string]string           `json:"notes"`
	Details         map[string]string           `json:"details"`
	Renames         map[string]string           `json:"renames"`
	HeaderLabels    map[string]string           `json:"header_labels"`
	NotesExcluded   map[string]bool             `json:"notes_excluded"`
	DetailsExcluded map[string]bool             `json:"details_excluded"`
	Sync            bool                        `json:"sync"`

	SelectedCells        map[string][]string `json:"selected_cells"`
	SelectedNotesColumns []string            `json:"selected_notes_columns"`
	ManualRows           []ManualRow         `json:"manual_rows"`
	Layout               Layout              `json:"layout"`
}

// NewSnapshot returns an empty snapshot with sync enabled.
func NewSnapshot() Snapshot {
	return Snapshot{
		Fixtures:        make(map[string]map[Field]string),
		Notes:           make(map[string]string),
		Details:         make(map[string]string),
		Renames:         make(map[string]string),
		HeaderLabels:    make(map[string]string),
		NotesExcluded:   make(map[string]bool),
		DetailsExcluded: make(map[string]bool),
		Sync:            true,
		SelectedCells:   make(map[string][]string),
		Layout:          DefaultLayout(),
	}
}

// ChangeKind classifies a store mutation.
type ChangeKind string

const (
	ChangeSet        ChangeKind = "set"
	ChangeClear      ChangeKind = "clear"
	ChangeDelete     ChangeKind = "delete"
	ChangeSync       ChangeKind = "sync"
	ChangeSelections ChangeKind = "selections"
	ChangeRows       ChangeKind = "rows"
	ChangeLayout     ChangeKind = "layout"
	ChangeReset      ChangeKind = "reset"
)

// Change describes a mutation delivered to observers.
type Change struct {
	Kind  ChangeKind
	Unit  string
	Field Field
	Value string
}

// Observer is notified after each mutation, outside the store lock.
type Observer func(Change)

type subscription struct {
	id int
	fn Observer
}

// Store holds the overrides of one report. Every write is a single
// read-modify-write under the store lock. Observers run in subscription
// order.
type Store struct {
	mu        sync.Mutex
	snap      Snapshot
	observers []subscription
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return Restore(NewSnapshot())
}

// Restore creates a store from a persisted snapshot.
func Restore(snap Snapshot) *Store {
	snap = snap.normalized()
	return &Store{snap: snap}
}

// Subscribe registers an observer and returns its cancel function.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, subscription{id: id, fn: o})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// SetOverride writes a user value for a unit field. Overrides on units the
// report does not know are kept. With sync on, note and detail writes are
// mirrored to each other.
func (s *Store) SetOverride(unit string, field Field, value string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	s.update(Change{Kind: ChangeSet, Unit: unit, Field: field, Value: value}, func(snap *Snapshot) {
		switch {
		case field.fixture():
			if snap.Fixtures[unit] == nil {
				snap.Fixtures[unit] = make(map[Field]string)
			}
			snap.Fixtures[unit][field] = value
		case field == FieldNote:
			snap.Notes[unit] = value
			if snap.Sync {
				snap.Details[unit] = value
			}
		case field == FieldDetail:
			snap.Details[unit] = value
			if snap.Sync {
				snap.Notes[unit] = value
			}
		case field == FieldUnitRename:
			snap.Renames[unit] = value
		case field == FieldColumnHeaderLabel:
			snap.HeaderLabels[unit] = value
		}
	})
	return nil
}

// ClearOverride drops a user value so the computed one shows again.
func (s *Store) ClearOverride(unit string, field Field) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	s.update(Change{Kind: ChangeClear, Unit: unit, Field: field}, func(snap *Snapshot) {
		switch {
		case field.fixture():
			delete(snap.Fixtures[unit], field)
			if len(snap.Fixtures[unit]) == 0 {
				delete(snap.Fixtures, unit)
			}
		case field == FieldNote:
			delete(snap.Notes, unit)
			if snap.Sync {
				delete(snap.Details, unit)
			}
		case field == FieldDetail:
			delete(snap.Details, unit)
			if snap.Sync {
				delete(snap.Notes, unit)
			}
		case field == FieldUnitRename:
			delete(snap.Renames, unit)
		case field == FieldColumnHeaderLabel:
			delete(snap.HeaderLabels, unit)
		}
	})
	return nil
}

// DeleteNote hides a unit from the notes view. Its detail is untouched.
func (s *Store) DeleteNote(unit string) {
	s.update(Change{Kind: ChangeDelete, Unit: unit, Field: FieldNote}, func(snap *Snapshot) {
		delete(snap.Notes, unit)
		snap.NotesExcluded[unit] = true
	})
}

// DeleteDetail hides a unit from the details view. Its note is untouched.
func (s *Store) DeleteDetail(unit string) {
	s.update(Change{Kind: ChangeDelete, Unit: unit, Field: FieldDetail}, func(snap *Snapshot) {
		delete(snap.Details, unit)
		snap.DetailsExcluded[unit] = true
	})
}

// RestoreUnit clears both exclusions of a unit.
func (s *Store) RestoreUnit(unit string) {
	s.update(Change{Kind: ChangeClear, Unit: unit}, func(snap *Snapshot) {
		delete(snap.NotesExcluded, unit)
		delete(snap.DetailsExcluded, unit)
		if name, ok := snap.Renames[unit]; ok && name == "" {
			delete(snap.Renames, unit)
		}
	})
}

// RemoveUnit drops a unit from the report by renaming it to nothing.
func (s *Store) RemoveUnit(unit string) {
	s.update(Change{Kind: ChangeDelete, Unit: unit, Field: FieldUnitRename}, func(snap *Snapshot) {
		snap.Renames[unit] = ""
	})
}

// SetSync toggles note/detail mirroring.
func (s *Store) SetSync(on bool) {
	v := "false"
	if on {
		v = "true"
	}
	s.update(Change{Kind: ChangeSync, Value: v}, func(snap *Snapshot) {
		snap.Sync = on
	})
}

// SetSelections replaces the columns and cells feeding compiled notes.
func (s *Store) SetSelections(columns []string, cells map[string][]string) {
	s.update(Change{Kind: ChangeSelections}, func(snap *Snapshot) {
		snap.SelectedNotesColumns = append([]string(nil), columns...)
		snap.SelectedCells = make(map[string][]string, len(cells))
		for unit, list := range cells {
			snap.SelectedCells[unit] = append([]string(nil), list...)
		}
	})
}

// AddRow appends a hand-entered unit row.
func (s *Store) AddRow(row ManualRow) {
	s.update(Change{Kind: ChangeRows, Unit: row.Unit}, func(snap *Snapshot) {
		cells := make(map[string]string, len(row.Cells))
		for k, v := range row.Cells {
			cells[k] = v
		}
		snap.ManualRows = append(snap.ManualRows, ManualRow{Unit: row.Unit, Cells: cells})
	})
}

// SetLayout replaces the cover letter layout. Empty fields take defaults.
func (s *Store) SetLayout(l Layout) {
	s.update(Change{Kind: ChangeLayout}, func(snap *Snapshot) {
		snap.Layout = l.WithDefaults()
	})
}

// Fixture returns the display override of a unit fixture.
func (s *Store) Fixture(unit, field string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Fixtures[unit][Field(field)]
	return v, ok
}

// Note returns the note override of a unit.
func (s *Store) Note(unit string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Notes[unit]
	return v, ok
}

// Detail returns the detail override of a unit.
func (s *Store) Detail(unit string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Details[unit]
	return v, ok
}

// NoteExcluded reports whether the unit was deleted from the notes view.
func (s *Store) NoteExcluded(unit string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.NotesExcluded[unit]
}

// DetailExcluded reports whether the unit was deleted from the details view.
func (s *Store) DetailExcluded(unit string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.DetailsExcluded[unit]
}

// Rename returns the display name for a unit key. Removed reports a unit
// renamed to nothing.
func (s *Store) Rename(unit string) (name string, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Renames[unit]
	if !ok {
		return unit, false
	}
	if v == "" {
		return "", true
	}
	return v, false
}

// HeaderLabels returns the unit table titles with overrides applied.
func (s *Store) HeaderLabels() map[string]string {
	labels := DefaultHeaderLabels()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.snap.HeaderLabels {
		labels[k] = v
	}
	return labels
}

// Sync reports whether note/detail mirroring is on.
func (s *Store) Sync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Sync
}

// Reset replaces the whole store content, typically with a snapshot taken
// before a write that could not be persisted.
func (s *Store) Reset(snap Snapshot) {
	snap = snap.normalized().clone()
	s.update(Change{Kind: ChangeReset}, func(cur *Snapshot) {
		*cur = snap
	})
}

// Snapshot returns a deep copy of the store content.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

func (s *Store) update(c Change, fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	observers := make([]Observer, len(s.observers))
	for i, sub := range s.observers {
		observers[i] = sub.fn
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(c)
	}
}

func (snap Snapshot) normalized() Snapshot {
	if snap.Fixtures == nil {
		snap.Fixtures = make(map[string]map[Field]string)
	}
	if snap.Notes == nil {
		snap.Notes = make(map[string]string)
	}
	if snap.Details == nil {
		snap.Details = make(map[string]string)
	}
	if snap.Renames == nil {
		snap.Renames = make(map[string]string)
	}
	if snap.HeaderLabels == nil {
		snap.HeaderLabels = make(map[string]string)
	}
	if snap.NotesExcluded == nil {
		snap.NotesExcluded = make(map[string]bool)
	}
	if snap.DetailsExcluded == nil {
		snap.DetailsExcluded = make(map[string]bool)
	}
	if snap.SelectedCells == nil {
		snap.SelectedCells = make(map[string][]string)
	}
	snap.Layout = snap.Layout.WithDefaults()
	return snap
}

func (snap Snapshot) clone() Snapshot {
	out := NewSnapshot()
	for unit, fields := range snap.Fixtures {
		m := make(map[Field]string, len(fields))
		for f, v := range fields {
			m[f] = v
		}
		out.Fixtures[unit] = m
	}
	copyStrings(out.Notes, snap.Notes)
	copyStrings(out.Details, snap.Details)
	copyStrings(out.Renames, snap.Renames)
	copyStrings(out.HeaderLabels, snap.HeaderLabels)
	for k, v := range snap.NotesExcluded {
		out.NotesExcluded[k] = v
	}
	for k, v := range snap.DetailsExcluded {
		out.DetailsExcluded[k] = v
	}
	out.Sync = snap.Sync
	for k, v := range snap.SelectedCells {
		out.SelectedCells[k] = append([]string(nil), v...)
	}
	out.SelectedNotesColumns = append([]string(nil), snap.SelectedNotesColumns...)
	for _, r := range snap.ManualRows {
		cells := make(map[string]string, len(r.Cells))
		copyStrings(cells, r.Cells)
		out.ManualRows = append(out.ManualRows, ManualRow{Unit: r.Unit, Cells: cells})
	}
	out.Layout = snap.Layout
	out.Layout.LetterText = append([]string(nil), snap.Layout.LetterText...)
	return out
}

func copyStrings(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
