package devindex

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
)

// Document is one searchable record of the development data set.
type Document struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	Title         string   `yaml:"title"`
	Body          string   `yaml:"body"`
	Date          string   `yaml:"date"`
	URL           string   `yaml:"url"`
	Persons       []string `yaml:"persons"`
	Organizations []string `yaml:"organizations"`
	Lat           *float64 `yaml:"lat"`
	Lng           *float64 `yaml:"lng"`
}

// Place is a named coordinate answered by the format-geo endpoint.
type Place struct {
	Lat       float64 `yaml:"lat"`
	Lng       float64 `yaml:"lng"`
	Formatted string  `yaml:"formatted"`
}

// Fixtures is the content of a fixture file.
type Fixtures struct {
	Documents     []Document   `yaml:"documents"`
	Places        []Place      `yaml:"places"`
	Persons       []facet.Item `yaml:"persons"`
	Organizations []facet.Item `yaml:"organizations"`
}

// LoadFixtures reads and validates a fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes and validates fixture YAML.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	seen := make(map[string]struct{}, len(fx.Documents))
	for i, d := range fx.Documents {
		if d.ID == "" {
			return nil, fmt.Errorf("documents[%d]: id is required", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("documents[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Type == "" {
			return nil, fmt.Errorf("document %q: type is required", d.ID)
		}
		if d.Date != "" {
			if _, err := time.Parse(facet.DateLayout, d.Date); err != nil {
				return nil, fmt.Errorf("document %q: date: %w", d.ID, err)
			}
		}
		if (d.Lat == nil) != (d.Lng == nil) {
			return nil, fmt.Errorf("document %q: lat and lng go together", d.ID)
		}
		if d.Lat != nil && !geo.ValidateCoordinates(*d.Lat, *d.Lng) {
			return nil, fmt.Errorf("document %q: coordinates out of range", d.ID)
		}
	}
	for i, p := range fx.Places {
		if !geo.ValidateCoordinates(p.Lat, p.Lng) {
			return nil, fmt.Errorf("places[%d]: coordinates out of range", i)
		}
	}
	return &fx, nil
}
