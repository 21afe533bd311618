package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// CompileInsert builds an INSERT for one record. Columns are sorted for
// deterministic statements.
func (c *Compiler) CompileInsert(table string, rec map[string]ir.IRValue) (string, []any, error) {
	cols, params, err := columnsAndParams(rec)
	if err != nil {
		return "", nil, fmt.Errorf("insert into %s: %w", table, err)
	}

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = QuoteIdent(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), strings.Join(quoted, ", "), placeholders)
	return sql, params, nil
}

// CompileUpsert builds an INSERT that updates every other column when key
// already exists.
func (c *Compiler) CompileUpsert(table, key string, rec map[string]ir.IRValue) (string, []any, error) {
	if _, ok := rec[key]; !ok {
		return "", nil, fmt.Errorf("upsert into %s: record has no key column %q", table, key)
	}

	sql, params, err := c.CompileInsert(table, rec)
	if err != nil {
		return "", nil, err
	}

	var sets []string
	for _, col := range sortedColumns(rec) {
		if col == key {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", QuoteIdent(col), QuoteIdent(col)))
	}

	if len(sets) == 0 {
		return sql + fmt.Sprintf(" ON CONFLICT(%s) DO NOTHING", QuoteIdent(key)), params, nil
	}
	return sql + fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET %s", QuoteIdent(key), strings.Join(sets, ", ")), params, nil
}

// CompileDelete builds a DELETE restricted by filter. An empty filter is
// refused so a routing bug can never truncate a table.
func (c *Compiler) CompileDelete(table string, filter *predicate.Holder) (string, []any, error) {
	if filter == nil || filter.IsEmpty() {
		return "", nil, fmt.Errorf("delete from %s: refusing unfiltered delete", table)
	}

	cond, err := c.Translate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("delete from %s: %w", table, err)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", QuoteIdent(table), cond.SQL), cond.Params, nil
}

func columnsAndParams(rec map[string]ir.IRValue) ([]string, []any, error) {
	if len(rec) == 0 {
		return nil, nil, fmt.Errorf("empty record")
	}

	cols := sortedColumns(rec)
	params := make([]any, len(cols))
	for i, col := range cols {
		p, err := Param(rec[col])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", col, err)
		}
		params[i] = p
	}
	return cols, params, nil
}

func sortedColumns(rec map[string]ir.IRValue) []string {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return cols
}
