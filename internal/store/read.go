package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/querysql"
	"github.com/roach88/unigraph/internal/schema"
)

// Search runs a single plan.
func (s *Store) Search(ctx context.Context, plan query.Plan) ([]schema.Record, error) {
	arm, err := s.arm(ctx, plan)
	if err != nil {
		return nil, err
	}
	return s.readArm(ctx, arm)
}

// SearchBatch runs every plan in one UNION ALL statement. Plans that cannot
// be compiled fail on their own; if the union itself fails the remaining
// arms run one by one.
func (s *Store) SearchBatch(ctx context.Context, plans []query.Plan) []query.Outcome {
	outcomes := make([]query.Outcome, len(plans))

	var (
		arms  []querysql.Arm
		index []int // arm position -> plan position
	)
	for i, plan := range plans {
		arm, err := s.arm(ctx, plan)
		if err == nil {
			_, _, err = s.compiler.CompileArm(len(arms), arm)
		}
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		arms = append(arms, arm)
		index = append(index, i)
	}
	if len(arms) == 0 {
		return outcomes
	}

	stmt, params, err := s.compiler.CompileUnion(arms)
	if err == nil {
		var records [][]schema.Record
		records, err = queryRecords(ctx, s.db, stmt, params, len(arms))
		if err == nil {
			for a, recs := range records {
				outcomes[index[a]].Records = recs
			}
			return outcomes
		}
	}

	s.logger.Warn("union read failed, reading tables one by one",
		"arms", len(arms),
		"error", err,
	)
	for a, arm := range arms {
		recs, err := s.readArm(ctx, arm)
		outcomes[index[a]] = query.Outcome{Records: recs, Err: err}
	}
	return outcomes
}

// arm builds the read arm for plan. A nil field list reads every column
// of the table.
func (s *Store) arm(ctx context.Context, plan query.Plan) (querysql.Arm, error) {
	table := plan.Schema.Location()
	columns := plan.Fields
	if columns == nil {
		var err error
		columns, err = s.tableColumns(ctx, table)
		if err != nil {
			return querysql.Arm{}, err
		}
	}

	return querysql.Arm{
		Table:   table,
		Filter:  plan.Filter,
		Columns: columns,
		OrderBy: plan.Schema.IDField(),
		Limit:   plan.Limit,
	}, nil
}

func (s *Store) readArm(ctx context.Context, arm querysql.Arm) ([]schema.Record, error) {
	stmt, params, err := s.compiler.CompileArm(0, arm)
	if err != nil {
		return nil, err
	}
	records, err := queryRecords(ctx, s.db, stmt, params, 1)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", arm.Table, err)
	}
	return records[0], nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryRecords runs a compiled read and groups the decoded records by arm.
func queryRecords(ctx context.Context, q querier, stmt string, params []any, arms int) ([][]schema.Record, error) {
	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records := make([][]schema.Record, arms)
	for rows.Next() {
		var (
			arm  int64
			data sql.NullString
		)
		if err := rows.Scan(&arm, &data); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if arm < 0 || int(arm) >= arms {
			return nil, fmt.Errorf("row tagged with unknown arm %d", arm)
		}

		obj, err := ir.DecodeJSONObject([]byte(data.String))
		if err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records[arm] = append(records[arm], schema.Record(obj))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// tableColumns lists the columns of table in declaration order.
func (s *Store) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("describe %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}
