package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/query"
)

// AssertionError is returned when an assertion fails.
// It includes the traced operations for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Op, ir.Format(event.Args))
		}
	}
	return buf.String()
}

// evaluate runs the scenario assertions and returns failure messages.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion, result *Result) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertFinalState:
			err = h.assertFinalState(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertTraceCount checks that op was traced exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s traced %d times", a.Op, a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that Ops occur in the trace in order.
// Other operations may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Ops) && event.Op == a.Ops[next] {
			next++
		}
	}
	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("operations in order: %v", a.Ops),
			Actual:   fmt.Sprintf("%s not found after %v", a.Ops[next], a.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState runs a search after the flow and checks it.
func (h *Harness) assertFinalState(ctx context.Context, a Assertion) error {
	kind, err := graph.ParseKind(a.Kind)
	if err != nil {
		return err
	}
	filter, err := h.filter(a.Has, nil)
	if err != nil {
		return err
	}

	seq, reports := h.graph.SearchWithReport(ctx, query.SearchQuery{Kind: kind, Predicates: filter})
	event := TraceEvent{Op: OpSearch}
	h.read(&event, "", slices.Collect(seq), reports)

	if msgs := h.check(a.Expect, event); len(msgs) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s search matching %s", a.Kind, filter),
			Actual:   strings.Join(msgs, "; "),
		}
	}
	return nil
}

// check compares an event with an expect clause. A step without an
// expect clause must not fail.
func (h *Harness) check(expect *Expect, event TraceEvent) []string {
	if expect == nil {
		if event.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", event.Error)}
		}
		return nil
	}

	var msgs []string
	if event.Error != expect.Error {
		switch {
		case expect.Error == "":
			msgs = append(msgs, fmt.Sprintf("unexpected error %s", event.Error))
		default:
			msgs = append(msgs, fmt.Sprintf("error: expected %s, got %q", expect.Error, event.Error))
		}
	}

	if expect.Count != nil {
		got := len(event.Elements)
		if event.Count != nil {
			got = *event.Count
		}
		if got != *expect.Count {
			msgs = append(msgs, fmt.Sprintf("count: expected %d, got %d", *expect.Count, got))
		}
	}

	for i, want := range expect.Elements {
		if i >= len(event.Elements) {
			msgs = append(msgs, fmt.Sprintf("elements[%d]: missing (got %d elements)", i, len(event.Elements)))
			continue
		}
		msgs = append(msgs, h.matchElement(i, want, event.Elements[i])...)
	}

	if expect.Failed != nil {
		got := slices.Clone(event.Failed)
		want := slices.Clone(expect.Failed)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			msgs = append(msgs, fmt.Sprintf("failed schemas: expected %v, got %v", want, got))
		}
	}
	return msgs
}

// matchElement is a subset match of want against e.
func (h *Harness) matchElement(i int, want ElementExpect, e graph.Element) []string {
	var msgs []string
	if want.ID != "" {
		if id := h.resolveID(want.ID); id != e.ID() {
			msgs = append(msgs, fmt.Sprintf("elements[%d]: id: expected %s, got %s", i, id, e.ID()))
		}
	}
	if want.Label != "" && want.Label != e.Label() {
		msgs = append(msgs, fmt.Sprintf("elements[%d]: label: expected %s, got %s", i, want.Label, e.Label()))
	}

	props := e.Properties()
	wantProps, err := properties(want.Properties)
	if err != nil {
		return append(msgs, fmt.Sprintf("elements[%d]: %v", i, err))
	}
	for _, key := range wantProps.Keys() {
		got := props[key]
		if !equalValues(wantProps[key], got) {
			msgs = append(msgs, fmt.Sprintf("elements[%d]: property %s: expected %s, got %s",
				i, key, formatValues(wantProps[key]), formatValues(got)))
		}
	}
	return msgs
}

func equalValues(a, b []ir.IRValue) bool {
	return slices.EqualFunc(a, b, ir.Equal)
}

func formatValues(vs []ir.IRValue) string {
	if len(vs) == 0 {
		return "<absent>"
	}
	return ir.Format(ir.IRArray(vs))
}
