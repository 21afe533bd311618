package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/querysql"
	"github.com/roach88/unigraph/internal/schema"
)

// Insert writes rec as a new row of the schema's table. A key conflict,
// or an identical row for a derived-identity schema, wraps
// schema.ErrDuplicate. The duplicate check and the insert share one
// immediate transaction, so concurrent writers cannot both pass the check.
func (s *Store) Insert(ctx context.Context, sch schema.ElementSchema, rec schema.Record) error {
	table := sch.Location()

	stmt, params, err := s.compiler.CompileInsert(table, rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: begin tx: %w", table, err)
	}
	defer tx.Rollback() // No-op if committed

	if sch.IDField() == "" {
		found, err := s.contains(ctx, tx, table, rec)
		if err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		if found {
			return fmt.Errorf("insert into %s: %w", table, schema.ErrDuplicate)
		}
	}

	if _, err := tx.ExecContext(ctx, stmt, params...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert into %s: %w: %w", table, schema.ErrDuplicate, err)
		}
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert into %s: commit: %w", table, err)
	}
	return nil
}

// Upsert writes rec, replacing the non-key columns of an existing row with
// the same id field. The id field needs a primary key or unique index.
func (s *Store) Upsert(ctx context.Context, sch schema.ElementSchema, rec schema.Record) error {
	table := sch.Location()
	if sch.IDField() == "" {
		return fmt.Errorf("upsert into %s: schema %s has no id field", table, sch.Name())
	}

	stmt, params, err := s.compiler.CompileUpsert(table, sch.IDField(), rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, stmt, params...); err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

// Delete removes the rows matching filter.
func (s *Store) Delete(ctx context.Context, sch schema.ElementSchema, filter *predicate.Holder) (int, error) {
	stmt, params, err := s.compiler.CompileDelete(sch.Location(), filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, stmt, params...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", sch.Location(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", sch.Location(), err)
	}
	return int(n), nil
}

// contains reports whether table already holds a row equal to rec on
// every column rec sets.
func (s *Store) contains(ctx context.Context, q querier, table string, rec schema.Record) (bool, error) {
	columns := slices.Sorted(maps.Keys(rec))
	if len(columns) == 0 {
		return false, nil
	}

	parts := make([]*predicate.Holder, 0, len(columns))
	for _, col := range columns {
		if ir.IsNull(rec[col]) {
			parts = append(parts, predicate.Missing(col))
			continue
		}
		parts = append(parts, predicate.Eq(col, rec[col]))
	}

	stmt, params, err := s.compiler.CompileArm(0, querysql.Arm{
		Table:   table,
		Filter:  predicate.And(parts...),
		Columns: columns[:1],
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	records, err := queryRecords(ctx, q, stmt, params, 1)
	if err != nil {
		return false, err
	}
	return len(records[0]) > 0, nil
}

// isDuplicate reports whether err is a primary key or unique violation.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
