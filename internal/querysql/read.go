package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/unigraph/internal/predicate"
)

// Columns produced by every read arm.
const (
	ArmColumn    = "__arm"
	RecordColumn = "__record"
)

// Arm is one table read inside a union.
type Arm struct {
	// Table is the table to read.
	Table string

	// Filter is the predicate in column names.
	Filter *predicate.Holder

	// Columns are packed into the record object. Must be non-empty.
	Columns []string

	// OrderBy is the column giving a stable row order, or "" for none.
	OrderBy string

	// Limit caps the rows of this arm. Zero or negative means unlimited
	// and emits no LIMIT clause.
	Limit int
}

// CompileArm compiles a single read arm tagged with index.
//
// Shape:
//
//	SELECT * FROM (SELECT ? AS "__arm", json_object('a', "a") AS "__record"
//	  FROM "t" WHERE ... ORDER BY "id" ASC COLLATE BINARY LIMIT ?)
func (c *Compiler) CompileArm(index int, arm Arm) (string, []any, error) {
	if len(arm.Columns) == 0 {
		return "", nil, fmt.Errorf("table %s: no columns to read", arm.Table)
	}

	cond, err := c.Translate(arm.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("table %s: %w", arm.Table, err)
	}

	pairs := make([]string, 0, len(arm.Columns))
	for _, col := range arm.Columns {
		pairs = append(pairs, quoteString(col)+", "+QuoteIdent(col))
	}

	var b strings.Builder
	params := []any{int64(index)}
	fmt.Fprintf(&b, "SELECT * FROM (SELECT ? AS %s, json_object(%s) AS %s FROM %s WHERE %s",
		QuoteIdent(ArmColumn), strings.Join(pairs, ", "), QuoteIdent(RecordColumn),
		QuoteIdent(arm.Table), cond.SQL)
	params = append(params, cond.Params...)

	if arm.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s ASC COLLATE BINARY", QuoteIdent(arm.OrderBy))
	}
	if arm.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, int64(arm.Limit))
	}
	b.WriteString(")")

	return b.String(), params, nil
}

// CompileUnion compiles arms into one UNION ALL statement. Row arm indexes
// match positions in arms.
func (c *Compiler) CompileUnion(arms []Arm) (string, []any, error) {
	if len(arms) == 0 {
		return "", nil, fmt.Errorf("cannot compile empty union")
	}

	stmts := make([]string, 0, len(arms))
	var params []any
	for i, arm := range arms {
		sql, p, err := c.CompileArm(i, arm)
		if err != nil {
			return "", nil, err
		}
		stmts = append(stmts, sql)
		params = append(params, p...)
	}
	return strings.Join(stmts, " UNION ALL "), params, nil
}
