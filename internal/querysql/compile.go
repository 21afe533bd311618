package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// Condition is a SQL boolean expression with its bound parameters.
type Condition struct {
	SQL    string
	Params []any
}

// Compiler translates predicate holders (already rewritten into column
// names by a schema) into SQL conditions.
//
// CRITICAL: values are always bound as parameters, never interpolated.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Translate converts h into a WHERE condition. An empty holder becomes
// 1 = 1 and an aborted one 0 = 1.
func (c *Compiler) Translate(h *predicate.Holder) (Condition, error) {
	if h == nil || h.IsEmpty() {
		return Condition{SQL: "1 = 1"}, nil
	}
	if h.IsAborted() {
		return Condition{SQL: "0 = 1"}, nil
	}

	var parts []string
	var params []any
	for _, leaf := range h.Leaves() {
		sql, p, err := c.compileHas(leaf)
		if err != nil {
			return Condition{}, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	for _, child := range h.Children() {
		cond, err := c.Translate(child)
		if err != nil {
			return Condition{}, err
		}
		parts = append(parts, cond.SQL)
		params = append(params, cond.Params...)
	}

	if len(parts) == 1 {
		return Condition{SQL: parts[0], Params: params}, nil
	}

	sep := " AND "
	if h.Clause() == predicate.ClauseOr {
		sep = " OR "
	}
	return Condition{SQL: "(" + strings.Join(parts, sep) + ")", Params: params}, nil
}

// compileHas compiles one comparison.
func (c *Compiler) compileHas(h predicate.Has) (string, []any, error) {
	if h.Multi && h.Op != predicate.OpExists && h.Op != predicate.OpMissing {
		return c.compileElements(h)
	}
	return c.compileScalar(QuoteIdent(h.Key), h)
}

// compileElements compiles a comparison against a multi-valued column,
// stored as JSON array text, into a json_each subquery. neq and without
// hold for a present list with no matching element.
func (c *Compiler) compileElements(h predicate.Has) (string, []any, error) {
	col := QuoteIdent(h.Key)

	elem := h
	elem.Multi = false
	negate := false
	switch h.Op {
	case predicate.OpNeq:
		elem.Op, negate = predicate.OpEq, true
	case predicate.OpWithout:
		elem.Op, negate = predicate.OpWithin, true
	}

	cond, params, err := c.compileScalar("value", elem)
	if err != nil {
		return "", nil, err
	}
	sub := fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE %s)", col, cond)
	if negate {
		return fmt.Sprintf("(%s IS NOT NULL AND NOT %s)", col, sub), params, nil
	}
	return sub, params, nil
}

// compileScalar compiles a comparison of the column expression col.
func (c *Compiler) compileScalar(col string, h predicate.Has) (string, []any, error) {
	switch h.Op {
	case predicate.OpExists:
		return col + " IS NOT NULL", nil, nil
	case predicate.OpMissing:
		return col + " IS NULL", nil, nil
	case predicate.OpEq, predicate.OpNeq, predicate.OpLt, predicate.OpLte, predicate.OpGt, predicate.OpGte:
		v, err := Param(h.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", h.Key, err)
		}
		return fmt.Sprintf("%s %s ?", col, comparator(h.Op)), []any{v}, nil
	case predicate.OpWithin, predicate.OpWithout:
		if len(h.Values) == 0 {
			if h.Op == predicate.OpWithin {
				return "0 = 1", nil, nil
			}
			return col + " IS NOT NULL", nil, nil
		}
		params := make([]any, len(h.Values))
		for i, v := range h.Values {
			p, err := Param(v)
			if err != nil {
				return "", nil, fmt.Errorf("%s[%d]: %w", h.Key, i, err)
			}
			params[i] = p
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		if h.Op == predicate.OpWithin {
			return fmt.Sprintf("%s IN (%s)", col, placeholders), params, nil
		}
		return fmt.Sprintf("%s NOT IN (%s)", col, placeholders), params, nil
	case predicate.OpBetween:
		if len(h.Values) != 2 {
			return "", nil, fmt.Errorf("%s: between requires 2 values, got %d", h.Key, len(h.Values))
		}
		lo, err := Param(h.Values[0])
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", h.Key, err)
		}
		hi, err := Param(h.Values[1])
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", h.Key, err)
		}
		return fmt.Sprintf("(%s >= ? AND %s < ?)", col, col), []any{lo, hi}, nil
	case predicate.OpStartsWith:
		prefix, ok := h.Value.(ir.IRString)
		if !ok {
			return "", nil, fmt.Errorf("%s: startsWith requires a string prefix", h.Key)
		}
		// substr avoids LIKE wildcard escaping and case folding.
		return fmt.Sprintf("substr(%s, 1, ?) = ?", col), []any{int64(utf8.RuneCountInString(string(prefix))), string(prefix)}, nil
	default:
		return "", nil, fmt.Errorf("%s: unsupported operator %q", h.Key, h.Op)
	}
}

// comparator maps a scalar operator to its SQL token. neq uses <>, which
// is never true for NULL, so absent values do not match.
func comparator(op predicate.Op) string {
	switch op {
	case predicate.OpEq:
		return "="
	case predicate.OpNeq:
		return "<>"
	case predicate.OpLt:
		return "<"
	case predicate.OpLte:
		return "<="
	case predicate.OpGt:
		return ">"
	default:
		return ">="
	}
}

// Param converts a value into a driver parameter. Arrays and objects are
// stored as canonical JSON text.
func Param(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRArray, ir.IRObject:
		b, err := ir.MarshalCanonical(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case nil, ir.IRNull:
		return nil, nil
	default:
		return ir.ToNative(val), nil
	}
}

// QuoteIdent double-quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteString single-quotes a SQL string literal. Used only for JSON
// object keys, which are column names and never user values.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
