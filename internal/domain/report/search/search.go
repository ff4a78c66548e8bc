// Package search provides full-text lookup over the notes and details of a
// computed report.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
)

// Kind tells which view a hit came from.
type Kind string

const (
	KindNote   Kind = "note"
	KindDetail Kind = "detail"
)

const defaultLimit = 20

// Document is one indexed note or detail.
type Document struct {
	ID          string `json:"id"`
	Unit        string `json:"unit"`
	DisplayUnit string `json:"display_unit"`
	Kind        string `json:"kind"`
	Text        string `json:"text"`
}

// Hit is a search match.
type Hit struct {
	Unit        string  `json:"unit"`
	DisplayUnit string  `json:"display_unit"`
	Kind        Kind    `json:"kind"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

// Index is an in-memory index rebuilt whenever the report changes.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewIndex creates an empty index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("unit", kw)
	doc.AddFieldMappingsAt("display_unit", text)
	doc.AddFieldMappingsAt("kind", kw)
	doc.AddFieldMappingsAt("text", text)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// Reindex replaces the index contents with the report's notes and details.
func (i *Index) Reindex(rep engine.Report) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	batch := fresh.NewBatch()
	add := func(kind Kind, unit, display, text string) error {
		if text == "" {
			return nil
		}
		doc := Document{
			ID:          string(kind) + ":" + unit,
			Unit:        unit,
			DisplayUnit: display,
			Kind:        string(kind),
			Text:        text,
		}
		return batch.Index(doc.ID, doc)
	}
	for _, e := range rep.Notes {
		if err := add(KindNote, e.Unit, e.DisplayUnit, e.Note); err != nil {
			return fmt.Errorf("failed to index note %s: %w", e.Unit, err)
		}
	}
	for _, e := range rep.Details {
		if err := add(KindDetail, e.Unit, e.DisplayUnit, e.Detail); err != nil {
			return fmt.Errorf("failed to index detail %s: %w", e.Unit, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}

	i.mu.Lock()
	old := i.index
	i.index = fresh
	i.mu.Unlock()

	return old.Close()
}

// Search runs a typo tolerant match over note text and unit names. An empty
// kind searches both views.
func (i *Index) Search(q string, kind Kind, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	text := bleve.NewMatchQuery(q)
	text.SetField("text")
	text.SetFuzziness(1)
	unit := bleve.NewMatchQuery(q)
	unit.SetField("display_unit")

	var req query.Query = bleve.NewDisjunctionQuery(text, unit)
	if kind != "" {
		kq := bleve.NewTermQuery(string(kind))
		kq.SetField("kind")
		req = bleve.NewConjunctionQuery(req, kq)
	}

	sr := bleve.NewSearchRequest(req)
	sr.Size = limit
	sr.Fields = []string{"*"}

	i.mu.RLock()
	defer i.mu.RUnlock()

	res, err := i.index.Search(sr)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			Unit:        field(h.Fields, "unit"),
			DisplayUnit: field(h.Fields, "display_unit"),
			Kind:        Kind(field(h.Fields, "kind")),
			Text:        field(h.Fields, "text"),
			Score:       h.Score,
		})
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

func field(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
