package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/facetsearch/internal/config"
	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
)

// formFlags are the facet flags shared by encode and search.
func formFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sort", Usage: "Result order: relevance, date_newest, date_oldest"},
		&cli.StringSliceFlag{Name: "type", Usage: "Document type, repeatable"},
		&cli.StringFlag{Name: "after", Usage: "Earliest date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "before", Usage: "Latest date, YYYY-MM-DD"},
		&cli.FloatFlag{Name: "lat", Usage: "Latitude of the location filter"},
		&cli.FloatFlag{Name: "lng", Usage: "Longitude of the location filter"},
		&cli.IntFlag{Name: "radius", Usage: "Radius of the location filter in meters, 0 disables it"},
		&cli.StringFlag{Name: "person", Usage: "Person id"},
		&cli.StringFlag{Name: "organization", Usage: "Organization id"},
	}
}

// form is the search form described by the command line.
type form struct {
	sort         string
	types        []string
	after        string
	before       string
	lat, lng     float64
	radius       int
	person       string
	organization string
	text         string
}

func formFromCommand(c *cli.Command) form {
	return form{
		sort:         c.String("sort"),
		types:        c.StringSlice("type"),
		after:        c.String("after"),
		before:       c.String("before"),
		lat:          c.Float("lat"),
		lng:          c.Float("lng"),
		radius:       c.Int("radius"),
		person:       c.String("person"),
		organization: c.String("organization"),
		text:         strings.Join(c.Args().Slice(), " "),
	}
}

// encode builds the facets of cfg, fills them from the form and returns
// the query string.
func (f form) encode(cfg config.FacetsConfig) (string, error) {
	sorter := facet.NewSorter(cfg.Sort.Default, cfg.Sort.Options...)
	if f.sort != "" {
		if !slices.Contains(sorter.Options(), f.sort) {
			return "", fmt.Errorf("unknown sort order %q", f.sort)
		}
		sorter.Set(f.sort)
	}

	docTypes := facet.NewDocumentTypes(cfg.DocumentTypes...)
	for _, kind := range f.types {
		if !slices.Contains(docTypes.Options(), kind) {
			return "", fmt.Errorf("unknown document type %q", kind)
		}
		docTypes.Set(kind, true)
	}

	for _, d := range []string{f.after, f.before} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(facet.DateLayout, d); err != nil {
			return "", fmt.Errorf("date %q: want YYYY-MM-DD", d)
		}
	}
	dates := facet.NewDateRange(cfg.DatePresets)
	dates.Set(f.after, f.before)

	location := facet.NewLocation(facet.LocationConfig{DefaultRadius: cfg.DefaultRadius})
	if f.radius > 0 {
		p := geo.Point{Lat: f.lat, Lng: f.lng}
		if !p.Valid() {
			return "", fmt.Errorf("coordinates %s: %w", p, geo.ErrOutOfRange)
		}
		location.Place(p)
		location.Apply(f.radius)
	}

	persons, err := facet.NewFilter(query.KeyPerson, nil)
	if err != nil {
		return "", err
	}
	persons.Select(f.person)
	orgs, err := facet.NewFilter(query.KeyOrganization, nil)
	if err != nil {
		return "", err
	}
	orgs.Select(f.organization)

	return query.EncodeFacets(
		[]facet.Facet{sorter, location, dates, docTypes, persons, orgs},
		f.text,
	), nil
}
