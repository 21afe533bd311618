package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
)

// Config is the declarative form of a Mapping.
type Config struct {
	Name       string                 `json:"name" yaml:"name"`
	Kind       string                 `json:"kind" yaml:"kind"`
	Location   string                 `json:"location" yaml:"location"`
	Label      string                 `json:"label,omitempty" yaml:"label,omitempty"`
	LabelField string                 `json:"labelField,omitempty" yaml:"labelField,omitempty"`
	IDField    string                 `json:"idField,omitempty" yaml:"idField,omitempty"`
	Dynamic    bool                   `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	Priority   int                    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Properties map[string]FieldConfig `json:"properties,omitempty" yaml:"properties,omitempty"`
	Out        *EndpointConfig        `json:"out,omitempty" yaml:"out,omitempty"`
	In         *EndpointConfig        `json:"in,omitempty" yaml:"in,omitempty"`
}

// FieldConfig maps one property key onto a backend field.
type FieldConfig struct {
	Field    string `json:"field" yaml:"field"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Multi    bool   `json:"multi,omitempty" yaml:"multi,omitempty"`
}

// EndpointConfig locates an edge endpoint identity and, optionally, fixes
// the label of the vertices it may point at.
type EndpointConfig struct {
	Field string `json:"field" yaml:"field"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Validate checks a configuration for structural errors.
// All problems are reported, joined into one error.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("schema %q: "+format, append([]any{c.Name}, args...)...))
	}

	if c.Name == "" {
		add("name is required")
	}
	if c.Location == "" {
		add("location is required")
	}

	kind, err := graph.ParseKind(c.Kind)
	if err != nil {
		add("%v", err)
	}
	if c.Label != "" && c.LabelField != "" {
		add("label and labelField are mutually exclusive")
	}

	switch kind {
	case graph.KindEdge:
		if c.Out == nil || c.Out.Field == "" {
			add("edge schema requires out.field")
		}
		if c.In == nil || c.In.Field == "" {
			add("edge schema requires in.field")
		}
	case graph.KindVertex:
		if c.Out != nil || c.In != nil {
			add("vertex schema cannot declare out/in endpoints")
		}
	}

	for key, f := range c.Properties {
		if key == "" || strings.HasPrefix(key, "~") {
			add("invalid property key %q", key)
		}
		if f.Field == "" {
			add("property %q: field is required", key)
		}
		if f.Type != "" && !ir.ValidTypes[f.Type] {
			add("property %q: unknown type %q", key, f.Type)
		}
	}

	return errors.Join(errs...)
}
