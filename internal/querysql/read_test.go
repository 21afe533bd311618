package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

func TestCompileArm(t *testing.T) {
	sql, params, err := NewCompiler().CompileArm(0, Arm{
		Table:   "person",
		Filter:  predicate.Eq("nm", ir.IRString("Alice")),
		Columns: []string{"id", "nm"},
		OrderBy: "id",
		Limit:   10,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT * FROM (SELECT ? AS "__arm", json_object('id', "id", 'nm', "nm") AS "__record" FROM "person" WHERE "nm" = ? ORDER BY "id" ASC COLLATE BINARY LIMIT ?)`,
		sql)
	assert.Equal(t, []any{int64(0), "Alice", int64(10)}, params)
}

func TestCompileArm_UnlimitedOmitsLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -100} {
		sql, params, err := NewCompiler().CompileArm(3, Arm{Table: "t", Columns: []string{"a"}, Limit: limit})
		require.NoError(t, err)

		assert.NotContains(t, sql, "LIMIT")
		assert.NotContains(t, sql, "ORDER BY")
		assert.Equal(t, []any{int64(3)}, params, "no negative value is ever bound")
	}
}

func TestCompileArm_RequiresColumns(t *testing.T) {
	_, _, err := NewCompiler().CompileArm(0, Arm{Table: "t"})
	assert.ErrorContains(t, err, "no columns")
}

func TestCompileUnion(t *testing.T) {
	sql, params, err := NewCompiler().CompileUnion([]Arm{
		{Table: "person", Filter: predicate.Eq("nm", ir.IRString("Alice")), Columns: []string{"nm"}},
		{Table: "robot", Filter: predicate.Eq("name", ir.IRString("Alice")), Columns: []string{"name"}, Limit: 5},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT * FROM (SELECT ? AS "__arm", json_object('nm', "nm") AS "__record" FROM "person" WHERE "nm" = ?)`+
			` UNION ALL `+
			`SELECT * FROM (SELECT ? AS "__arm", json_object('name', "name") AS "__record" FROM "robot" WHERE "name" = ? LIMIT ?)`,
		sql)
	assert.Equal(t, []any{int64(0), "Alice", int64(1), "Alice", int64(5)}, params)

	_, _, err = NewCompiler().CompileUnion(nil)
	assert.Error(t, err)
}
