package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed graph.cue
var graphDefinition string

// LoadError is a definition error, positioned when CUE knows where.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadFile reads a definition, choosing the format by extension: .cue,
// or .yaml/.yml.
func LoadFile(path string) (*Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".cue":
		return ParseCUE(path, src)
	case ".yaml", ".yml":
		return ParseYAML(src)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .cue, .yaml or .yml)", path, ext)
	}
}

// ParseCUE compiles src, unifies it with #Graph and decodes the result.
// filename only labels error positions.
func ParseCUE(filename string, src []byte) (*Graph, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(graphDefinition, cue.Filename("graph.cue"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("graph definition: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = def.LookupPath(cue.ParsePath("#Graph")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var g Graph
	if err := v.Decode(&g); err != nil {
		return nil, formatCUEError(err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// ParseYAML decodes a YAML definition. Unknown keys are errors.
func ParseYAML(src []byte) (*Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var g Graph
	if err := dec.Decode(&g); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse config: empty document")
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
