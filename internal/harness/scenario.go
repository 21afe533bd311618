package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the schema definition (.cue or .yaml). Relative paths are
	// resolved against the scenario file's directory.
	Config string `yaml:"config"`

	// IDPrefix prefixes generated identities. Defaults to "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Setup steps seed the graph. They must succeed and are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are traced and checked against their expect clauses.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and the final graph.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpAddVertex    = "add_vertex"
	OpAddEdge      = "add_edge"
	OpSearch       = "search"
	OpSearchVertex = "search_vertex"
	OpFetch        = "fetch"
	OpProperty     = "property"
	OpRemove       = "remove"
	OpSQL          = "sql"
)

// Step is one graph operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// As binds the created or updated element to an alias.
	As string `yaml:"as,omitempty"`

	// add_vertex, add_edge, property
	Label      string         `yaml:"label,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`

	// add_edge: endpoint aliases or identities, with optional labels.
	Out *Endpoint `yaml:"out,omitempty"`
	In  *Endpoint `yaml:"in,omitempty"`

	// search: element kind, projection and limit.
	Kind  string   `yaml:"kind,omitempty"`
	Keys  []string `yaml:"keys,omitempty"`
	Limit int      `yaml:"limit,omitempty"`

	// search, search_vertex, fetch: Has clauses are ANDed; Or clauses,
	// when present, are ORed and ANDed with the rest.
	Has []HasClause `yaml:"has,omitempty"`
	Or  []HasClause `yaml:"or,omitempty"`

	// search_vertex, fetch: vertex aliases or identities.
	Vertices  []Endpoint `yaml:"vertices,omitempty"`
	Direction string     `yaml:"direction,omitempty"`

	// property: the element alias. remove: element aliases.
	Element  string   `yaml:"element,omitempty"`
	Elements []string `yaml:"elements,omitempty"`

	// sql: a statement run directly against the SQL backend, e.g. to
	// break a table.
	Statement string `yaml:"statement,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Endpoint names a vertex by alias or identity. In YAML it is either a
// plain string or {ref, label}.
type Endpoint struct {
	Ref   string `yaml:"ref"`
	Label string `yaml:"label,omitempty"`
}

// UnmarshalYAML accepts a scalar as shorthand for {ref: scalar}.
func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Ref = node.Value
		return nil
	}
	type plain Endpoint
	return node.Decode((*plain)(e))
}

// HasClause is one comparison, e.g. {key: age, op: gt, value: 30}.
type HasClause struct {
	Key    string `yaml:"key"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value,omitempty"`
	Values []any  `yaml:"values,omitempty"`
}

// Expect checks a step outcome.
type Expect struct {
	// Error is the expected element error code (ALREADY_EXISTS,
	// UNROUTABLE, INVALID_ELEMENT). Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of elements returned, hydrated or
	// removed.
	Count *int `yaml:"count,omitempty"`

	// Elements are checked in order against the returned elements.
	Elements []ElementExpect `yaml:"elements,omitempty"`

	// Failed lists the schemas whose sub-query must have failed.
	Failed []string `yaml:"failed,omitempty"`
}

// ElementExpect is a subset match on one element.
type ElementExpect struct {
	// ID is an alias or an identity.
	ID         string         `yaml:"id,omitempty"`
	Label      string         `yaml:"label,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Assertion validates the trace or the final graph.
type Assertion struct {
	// Type is one of trace_count, trace_order, final_state.
	Type string `yaml:"type"`

	// Op and Count: trace_count.
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Ops: trace_order, a subsequence of the traced operations.
	Ops []string `yaml:"ops,omitempty"`

	// Kind, Has and Expect: final_state, a search run after the flow.
	Kind   string      `yaml:"kind,omitempty"`
	Has    []HasClause `yaml:"has,omitempty"`
	Expect *Expect     `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertFinalState = "final_state"
)

// LoadScenario reads and validates a scenario file. The config path is
// resolved against the file's directory. Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario. The config path is left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Config == "" {
		return fmt.Errorf("config is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}

	for i, step := range s.Setup {
		if err := validateStep(step, fmt.Sprintf("setup[%d]", i)); err != nil {
			return err
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step, fmt.Sprintf("flow[%d]", i)); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step, where string) error {
	switch step.Op {
	case OpAddVertex:
		if step.Label == "" {
			return fmt.Errorf("%s: label is required for add_vertex", where)
		}
	case OpAddEdge:
		if step.Label == "" || step.Out == nil || step.In == nil {
			return fmt.Errorf("%s: label, out and in are required for add_edge", where)
		}
	case OpSearch:
		if step.Kind == "" {
			return fmt.Errorf("%s: kind is required for search", where)
		}
	case OpSearchVertex:
		if len(step.Vertices) == 0 || step.Direction == "" {
			return fmt.Errorf("%s: vertices and direction are required for search_vertex", where)
		}
	case OpFetch:
		if len(step.Vertices) == 0 {
			return fmt.Errorf("%s: vertices are required for fetch", where)
		}
	case OpProperty:
		if step.Element == "" || len(step.Properties) == 0 {
			return fmt.Errorf("%s: element and properties are required for property", where)
		}
	case OpRemove:
		if len(step.Elements) == 0 {
			return fmt.Errorf("%s: elements are required for remove", where)
		}
	case OpSQL:
		if step.Statement == "" {
			return fmt.Errorf("%s: statement is required for sql", where)
		}
	case "":
		return fmt.Errorf("%s: op is required", where)
	default:
		return fmt.Errorf("%s: unknown op %q", where, step.Op)
	}
	return nil
}

func validateAssertion(a Assertion, index int) error {
	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertFinalState:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for final_state", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
