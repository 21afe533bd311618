package query

import (
	"fmt"
	"strings"
)

// SchemaOutcome is how one schema took part in a search.
type SchemaOutcome int

const (
	// OutcomeAborted means translation proved the schema holds no match;
	// no sub-query was issued.
	OutcomeAborted SchemaOutcome = iota + 1

	// OutcomeOK means the sub-query succeeded, possibly with no rows.
	OutcomeOK

	// OutcomeFailed means the sub-query errored and contributed nothing.
	OutcomeFailed
)

func (o SchemaOutcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("SchemaOutcome(%d)", int(o))
	}
}

// SchemaReport is the outcome of one schema.
type SchemaReport struct {
	Schema   string
	Location string
	Outcome  SchemaOutcome
	Records  int
	Err      error
}

// Report describes how a search was answered, one entry per schema of the
// requested kind in declaration order.
type Report struct {
	Backend string
	Schemas []SchemaReport
}

// Failed returns the schemas whose sub-query errored.
func (r *Report) Failed() []SchemaReport {
	var out []SchemaReport
	for _, s := range r.Schemas {
		if s.Outcome == OutcomeFailed {
			out = append(out, s)
		}
	}
	return out
}

// Queried returns the number of sub-queries issued.
func (r *Report) Queried() int {
	n := 0
	for _, s := range r.Schemas {
		if s.Outcome != OutcomeAborted {
			n++
		}
	}
	return n
}

// String renders one line per schema, e.g. "person@people ok 3".
func (r *Report) String() string {
	var b strings.Builder
	for i, s := range r.Schemas {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s@%s %s", s.Schema, s.Location, s.Outcome)
		switch {
		case s.Outcome == OutcomeOK:
			fmt.Fprintf(&b, " %d", s.Records)
		case s.Err != nil:
			fmt.Fprintf(&b, " %v", s.Err)
		}
	}
	return b.String()
}
