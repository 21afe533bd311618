package query

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubqueriesTotal counts executed sub-queries by outcome
	// (ok, empty or failed).
	SubqueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unigraph_subqueries_total",
			Help: "Total number of sub-queries executed against backends",
		},
		[]string{"backend", "location", "outcome"},
	)

	// SchemasAbortedTotal counts schemas skipped because their predicate
	// translation proved the result empty.
	SchemasAbortedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unigraph_schemas_aborted_total",
			Help: "Total number of schemas excluded from a search by translation abort",
		},
		[]string{"backend", "location"},
	)

	// WritesTotal counts backend writes by operation and outcome.
	WritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unigraph_writes_total",
			Help: "Total number of backend writes",
		},
		[]string{"backend", "op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(SubqueriesTotal)
	prometheus.MustRegister(SchemasAbortedTotal)
	prometheus.MustRegister(WritesTotal)
}

func writeOutcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
