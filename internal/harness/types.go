package harness

import (
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
)

// TraceEvent records one flow step and its outcome.
type TraceEvent struct {
	Seq      int64
	Op       string
	Args     ir.IRObject
	Elements []graph.Element
	Count    *int
	Error    string
	Failed   []string
}

// Snapshot renders the event for golden comparison. Elements are listed
// for every read, even when none were returned.
func (e TraceEvent) Snapshot() ir.IRObject {
	obj := ir.IRObject{
		"seq": ir.IRInt(e.Seq),
		"op":  ir.IRString(e.Op),
	}
	if len(e.Args) > 0 {
		obj["args"] = e.Args
	}
	if e.Elements != nil || isRead(e.Op) {
		elements := make(ir.IRArray, len(e.Elements))
		for i, el := range e.Elements {
			elements[i] = graph.Snapshot(el)
		}
		obj["elements"] = elements
	}
	if e.Count != nil {
		obj["count"] = ir.IRInt(*e.Count)
	}
	if e.Error != "" {
		obj["error"] = ir.IRString(e.Error)
	}
	if len(e.Failed) > 0 {
		obj["failed"] = stringArray(e.Failed)
	}
	return obj
}

func isRead(op string) bool {
	return op == OpSearch || op == OpSearchVertex || op == OpFetch
}

func stringArray(ss []string) ir.IRArray {
	out := make(ir.IRArray, len(ss))
	for i, s := range ss {
		out[i] = ir.IRString(s)
	}
	return out
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent

	// Errors holds the failed expectations. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
