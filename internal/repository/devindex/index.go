// Package devindex is an in-memory search index over fixture documents. It
// backs the development results server.
package devindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// Index field names.
const (
	fieldType         = "type"
	fieldTitle        = "title"
	fieldBody         = "body"
	fieldDate         = "date"
	fieldPerson       = "person"
	fieldOrganization = "organization"
	fieldLocation     = "location"
)

const maxFacetTerms = 50

const placeRadius = 2000

// Request is a decoded search against the index.
type Request struct {
	Query query.Decoded
	After int
	Size  int
}

// Result is one page of hits plus facet buckets over the whole match set.
type Result struct {
	Hits   []Document
	Total  int
	Facets map[string][]response.Bucket
}

// indexedDoc is the shape handed to bleve.
type indexedDoc struct {
	Type         string         `json:"type"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	Date         *time.Time     `json:"date,omitempty"`
	Person       []string       `json:"person"`
	Organization []string       `json:"organization"`
	Location     map[string]any `json:"location,omitempty"`
}

// ErrNotLoaded is returned by Ping before the first successful Load.
var ErrNotLoaded = errors.New("devindex: no fixtures loaded")

// Index holds the fixture documents in a bleve memory index.
// Load may be called concurrently with Search.
type Index struct {
	mu     sync.RWMutex
	bleve  bleve.Index
	docs   map[string]Document
	places []Place
	lists  map[string][]facet.Item

	logger *zap.Logger
}

// New creates an empty index.
func New(logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{logger: logger}
}

// Load replaces the indexed data set.
func (ix *Index) Load(fx *Fixtures) error {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	docs := make(map[string]Document, len(fx.Documents))
	for _, d := range fx.Documents {
		docs[d.ID] = d
		if err := batch.Index(d.ID, toIndexed(d)); err != nil {
			_ = idx.Close()
			return fmt.Errorf("index document %q: %w", d.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index batch: %w", err)
	}

	ix.mu.Lock()
	old := ix.bleve
	ix.bleve = idx
	ix.docs = docs
	ix.places = fx.Places
	ix.lists = map[string][]facet.Item{
		query.KeyPerson:       fx.Persons,
		query.KeyOrganization: fx.Organizations,
	}
	ix.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			ix.logger.Warn("Failed to close replaced index", zap.Error(err))
		}
	}
	metrics.DevIndexDocuments.Set(float64(len(docs)))
	ix.logger.Info("Index loaded", zap.Int("documents", len(docs)), zap.Int("places", len(fx.Places)))
	return nil
}

// Close releases the bleve index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.bleve == nil {
		return nil
	}
	err := ix.bleve.Close()
	ix.bleve = nil
	if err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}

// Ping reports whether a data set is loaded.
func (ix *Index) Ping(context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.bleve == nil {
		return ErrNotLoaded
	}
	return nil
}

// Items returns the selectable list of a filter key (person, organization).
func (ix *Index) Items(key string) []facet.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lists[key]
}

// Search runs a decoded query and returns the requested page.
func (ix *Index) Search(ctx context.Context, req Request) (*Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.bleve == nil {
		return nil, fmt.Errorf("index not loaded")
	}

	q, err := buildQuery(req.Query)
	if err != nil {
		return nil, err
	}

	sr := bleve.NewSearchRequest(q)
	sr.Size = req.Size
	sr.From = req.After
	switch req.Query.Params.Get(query.KeySort) {
	case facet.SortDateNewest:
		sr.SortBy([]string{"-" + fieldDate, "_id"})
	case facet.SortDateOldest:
		sr.SortBy([]string{fieldDate, "_id"})
	default:
		sr.SortBy([]string{"-_score", "_id"})
	}
	sr.AddFacet(response.FacetDocumentType, bleve.NewFacetRequest(fieldType, maxFacetTerms))
	sr.AddFacet(response.FacetPerson, bleve.NewFacetRequest(fieldPerson, maxFacetTerms))
	sr.AddFacet(response.FacetOrganization, bleve.NewFacetRequest(fieldOrganization, maxFacetTerms))

	res, err := ix.bleve.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := &Result{
		Total:  int(res.Total), //nolint:gosec // bounded by fixture size
		Facets: make(map[string][]response.Bucket, len(res.Facets)),
	}
	for _, hit := range res.Hits {
		if d, ok := ix.docs[hit.ID]; ok {
			out.Hits = append(out.Hits, d)
		}
	}
	for name, fr := range res.Facets {
		if fr.Terms == nil {
			continue
		}
		buckets := make([]response.Bucket, 0, fr.Terms.Len())
		for _, tf := range fr.Terms.Terms() {
			buckets = append(buckets, response.Bucket{ID: tf.Term, Count: tf.Count})
		}
		out.Facets[name] = buckets
	}
	return out, nil
}

// FormatGeo returns the name of the fixture place closest to a coordinate,
// or the coordinate itself when no place is within placeRadius meters.
func (ix *Index) FormatGeo(at geo.Point) string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	best, bestDist := -1, math.MaxFloat64
	for i, p := range ix.places {
		d := at.DistanceTo(geo.Point{Lat: p.Lat, Lng: p.Lng})
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > placeRadius {
		return at.String()
	}
	return ix.places[best].Formatted
}

func buildQuery(dec query.Decoded) (bquery.Query, error) {
	var must []bquery.Query

	if text := strings.TrimSpace(dec.FreeText); text != "" {
		must = append(must, bleve.NewMatchQuery(text))
	}

	if v := dec.Params.Get(query.KeyDocumentType); v != "" {
		var kinds []bquery.Query
		for _, kind := range strings.Split(v, ",") {
			if kind == "" {
				continue
			}
			tq := bleve.NewTermQuery(kind)
			tq.SetField(fieldType)
			kinds = append(kinds, tq)
		}
		if len(kinds) > 0 {
			must = append(must, bleve.NewDisjunctionQuery(kinds...))
		}
	}

	for _, key := range []string{query.KeyPerson, query.KeyOrganization} {
		if v := dec.Params.Get(key); v != "" {
			tq := bleve.NewTermQuery(v)
			tq.SetField(key)
			must = append(must, tq)
		}
	}

	if dec.Params.Has(query.KeyAfter) || dec.Params.Has(query.KeyBefore) {
		var start, end time.Time
		if v := dec.Params.Get(query.KeyAfter); v != "" {
			t, err := time.Parse(facet.DateLayout, v)
			if err != nil {
				return nil, fmt.Errorf("after: %w", err)
			}
			start = t
		}
		if v := dec.Params.Get(query.KeyBefore); v != "" {
			t, err := time.Parse(facet.DateLayout, v)
			if err != nil {
				return nil, fmt.Errorf("before: %w", err)
			}
			end = t.AddDate(0, 0, 1)
		}
		dq := bleve.NewDateRangeQuery(start, end)
		dq.SetField(fieldDate)
		must = append(must, dq)
	}

	if dec.Params.Has(query.KeyLat) && dec.Params.Has(query.KeyLng) && dec.Params.Has(query.KeyRadius) {
		center, errPoint := geo.Parse(dec.Params.Get(query.KeyLat), dec.Params.Get(query.KeyLng))
		radius, errRadius := strconv.Atoi(dec.Params.Get(query.KeyRadius))
		if errPoint != nil || errRadius != nil {
			return nil, fmt.Errorf("invalid location %q,%q radius %q",
				dec.Params.Get(query.KeyLat), dec.Params.Get(query.KeyLng), dec.Params.Get(query.KeyRadius))
		}
		if radius > 0 {
			gq := bleve.NewGeoDistanceQuery(center.Lng, center.Lat, strconv.Itoa(radius)+"m")
			gq.SetField(fieldLocation)
			must = append(must, gq)
		}
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery(), nil
	case 1:
		return must[0], nil
	default:
		return bleve.NewConjunctionQuery(must...), nil
	}
}

func toIndexed(d Document) indexedDoc {
	out := indexedDoc{
		Type:         d.Type,
		Title:        d.Title,
		Body:         d.Body,
		Person:       d.Persons,
		Organization: d.Organizations,
	}
	if t, err := time.Parse(facet.DateLayout, d.Date); err == nil {
		out.Date = &t
	}
	if d.Lat != nil && d.Lng != nil {
		out.Location = map[string]any{"lat": *d.Lat, "lon": *d.Lng}
	}
	return out
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	dm := bleve.NewDocumentMapping()

	keywordField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = false
		f.IncludeInAll = false
		return f
	}
	textField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = false
		return f
	}

	dm.AddFieldMappingsAt(fieldType, keywordField())
	dm.AddFieldMappingsAt(fieldPerson, keywordField())
	dm.AddFieldMappingsAt(fieldOrganization, keywordField())
	dm.AddFieldMappingsAt(fieldTitle, textField())
	dm.AddFieldMappingsAt(fieldBody, textField())

	dateField := bleve.NewDateTimeFieldMapping()
	dateField.Store = false
	dm.AddFieldMappingsAt(fieldDate, dateField)

	geoField := bleve.NewGeoPointFieldMapping()
	geoField.Store = false
	dm.AddFieldMappingsAt(fieldLocation, geoField)

	im.DefaultMapping = dm
	im.DefaultAnalyzer = standard.Name
	return im
}
