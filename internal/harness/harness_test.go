package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths := []string{
		"../../testdata/scenarios/modern_search.yaml",
		"../../testdata/scenarios/modern_mutations.yaml",
		"../../testdata/scenarios/backend_failure.yaml",
	}

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Flow))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/modern_mutations.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first.Trace)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_UnmetExpectationsFail(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: unmet
setup:
  - {op: add_vertex, as: marko, label: person, properties: {name: marko, age: 29}}
flow:
  - op: search
    kind: vertex
    expect:
      count: 2
      elements:
        - {id: marko, properties: {age: 30}}
        - {id: nobody}
  - op: add_vertex
    label: robot
  - op: add_vertex
    label: person
    properties: {name: josh}
    expect: {error: ALREADY_EXISTS}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "count: expected 2, got 1")
	assert.Contains(t, result.Errors[1], "property age: expected [30], got [29]")
	assert.Contains(t, result.Errors[2], "elements[1]: missing")
	assert.Contains(t, result.Errors[3], "unexpected error UNROUTABLE")
	assert.Contains(t, result.Errors[4], `error: expected ALREADY_EXISTS, got ""`)
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: assertions
flow:
  - {op: add_vertex, label: person, properties: {name: marko}}
  - {op: search, kind: vertex}
assertions:
  - {type: trace_count, op: search, count: 2}
  - {type: trace_order, ops: [search, add_vertex]}
  - type: final_state
    kind: vertex
    expect: {count: 0}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "search traced 2 times")
	assert.Contains(t, result.Errors[1], "add_vertex not found after [search]")
	assert.Contains(t, result.Errors[2], "count: expected 0, got 1")
}

func TestRun_SetupFailureIsFatal(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: setup
setup:
  - {op: add_vertex, label: robot}
flow:
  - {op: search, kind: vertex}
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), scenario)
	assert.ErrorContains(t, err, "setup[0]: add_vertex failed: UNROUTABLE")
}

func TestRun_UnknownAlias(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: alias
flow:
  - {op: remove, elements: [ghost]}
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), scenario)
	assert.ErrorContains(t, err, `unknown element alias "ghost"`)
}

func TestRun_AliasesInIdentityPredicates(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: ids
setup:
  - {op: add_vertex, as: marko, label: person, properties: {name: marko}}
  - {op: add_vertex, as: lop, label: software, properties: {name: lop}}
flow:
  - op: search
    kind: vertex
    has:
      - {key: "~id", op: within, values: [lop, marko]}
    expect:
      count: 2
      elements:
        - {id: marko}
        - {id: lop}
  - op: search
    kind: vertex
    or:
      - {key: name, op: eq, value: lop}
      - {key: name, op: startsWith, value: mar}
    expect: {count: 2}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
