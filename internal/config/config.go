package config

import (
	"errors"
	"fmt"

	"github.com/roach88/unigraph/internal/docstore"
	"github.com/roach88/unigraph/internal/schema"
	"github.com/roach88/unigraph/internal/store"
)

// Backend names a schema may be bound to.
const (
	BackendSQL    = store.BackendName
	BackendSearch = docstore.BackendName
)

// Graph is a decoded schema definition.
type Graph struct {
	// Concurrency bounds sub-queries in flight per search. Zero keeps the
	// controller default.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	// Setup holds statements run against the SQL backend when it is
	// opened, typically CREATE TABLE IF NOT EXISTS.
	Setup []string `json:"setup,omitempty" yaml:"setup,omitempty"`

	Schemas []Schema `json:"schemas" yaml:"schemas"`
}

// Schema is one element schema bound to a backend.
type Schema struct {
	Name       string                        `json:"name" yaml:"name"`
	Backend    string                        `json:"backend" yaml:"backend"`
	Kind       string                        `json:"kind" yaml:"kind"`
	Location   string                        `json:"location" yaml:"location"`
	Label      string                        `json:"label,omitempty" yaml:"label,omitempty"`
	LabelField string                        `json:"labelField,omitempty" yaml:"labelField,omitempty"`
	IDField    string                        `json:"idField,omitempty" yaml:"idField,omitempty"`
	Dynamic    bool                          `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	Priority   int                           `json:"priority,omitempty" yaml:"priority,omitempty"`
	Properties map[string]schema.FieldConfig `json:"properties,omitempty" yaml:"properties,omitempty"`
	Out        *schema.EndpointConfig        `json:"out,omitempty" yaml:"out,omitempty"`
	In         *schema.EndpointConfig        `json:"in,omitempty" yaml:"in,omitempty"`
}

// Mapping returns the backend-independent part of s.
func (s Schema) Mapping() schema.Config {
	return schema.Config{
		Name:       s.Name,
		Kind:       s.Kind,
		Location:   s.Location,
		Label:      s.Label,
		LabelField: s.LabelField,
		IDField:    s.IDField,
		Dynamic:    s.Dynamic,
		Priority:   s.Priority,
		Properties: s.Properties,
		Out:        s.Out,
		In:         s.In,
	}
}

// Validate reports every structural problem, joined into one error.
func (g *Graph) Validate() error {
	var errs []error
	if len(g.Schemas) == 0 {
		errs = append(errs, errors.New("no schemas defined"))
	}
	if g.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", g.Concurrency))
	}

	names := make(map[string]bool, len(g.Schemas))
	for _, s := range g.Schemas {
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("schema %q: declared twice", s.Name))
		}
		names[s.Name] = true

		if s.Backend != BackendSQL && s.Backend != BackendSearch {
			errs = append(errs, fmt.Errorf("schema %q: unknown backend %q (want %s or %s)",
				s.Name, s.Backend, BackendSQL, BackendSearch))
		}
		if err := s.Mapping().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Set is the schemas of one backend in declaration order.
type Set struct {
	Backend string
	Schemas []schema.ElementSchema
}

// Sets builds the schemas, grouped by backend. Backends appear in the
// order of their first schema.
func (g *Graph) Sets() ([]Set, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var sets []Set
	index := make(map[string]int)
	for _, s := range g.Schemas {
		m, err := schema.New(s.Mapping())
		if err != nil {
			return nil, err
		}
		i, ok := index[s.Backend]
		if !ok {
			i = len(sets)
			index[s.Backend] = i
			sets = append(sets, Set{Backend: s.Backend})
		}
		sets[i].Schemas = append(sets[i].Schemas, m)
	}
	return sets, nil
}
