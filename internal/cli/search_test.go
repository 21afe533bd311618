package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/config"
	"github.com/roach88/unigraph/internal/engine"
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/query"
)

// seedGraph stores the modern graph under dir and returns the database
// path and index directory.
func seedGraph(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath, indexDir := filepath.Join(dir, "graph.db"), filepath.Join(dir, "indexes")

	cfg, err := config.LoadFile(modernGraph)
	require.NoError(t, err)

	ctx := context.Background()
	g, err := engine.Open(ctx, cfg, engine.OpenOptions{
		DBPath:   dbPath,
		IndexDir: indexDir,
		IDs:      graph.NewFixedGenerator("v1", "v2", "v3"),
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, g.Close()) }()

	for _, q := range []query.AddVertexQuery{
		{Label: "person", Properties: graph.Single(map[string]any{"name": "marko", "age": 29})},
		{Label: "person", Properties: graph.Single(map[string]any{"name": "josh", "age": 32})},
		{Label: "software", Properties: graph.Single(map[string]any{"name": "lop", "lang": "java"})},
	} {
		_, err := g.AddVertex(ctx, q)
		require.NoError(t, err)
	}
	return dbPath, indexDir
}

func executeSearch(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSearchCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSearchCommand_JSON(t *testing.T) {
	db, idx := seedGraph(t)

	output, err := executeSearch(t, "json",
		"--schema", modernGraph, "--db", db, "--index-dir", idx,
		"--kind", "vertex", "--has", "age:gt:30")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Elements []map[string]any `json:"elements"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Elements, 1)
	assert.Equal(t, "v2", resp.Data.Elements[0]["id"])
	assert.Equal(t, "person", resp.Data.Elements[0]["label"])
}

func TestSearchCommand_TextAcrossBackends(t *testing.T) {
	db, idx := seedGraph(t)

	output, err := executeSearch(t, "text",
		"--schema", modernGraph, "--db", db, "--index-dir", idx)
	require.NoError(t, err)

	assert.Contains(t, output, "v1")
	assert.Contains(t, output, "v3")
	assert.Contains(t, output, `lang: ["java"]`)
	assert.Contains(t, output, "3 element(s)")
}

func TestSearchCommand_LabelAndLimit(t *testing.T) {
	db, idx := seedGraph(t)

	output, err := executeSearch(t, "text",
		"--schema", modernGraph, "--db", db, "--index-dir", idx,
		"--has", "~label=person", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "1 element(s)")
	assert.NotContains(t, output, "software")
}

func TestSearchCommand_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing schema", []string{"--kind", "vertex"}, `required flag(s) "schema" not set`},
		{"bad kind", []string{"--schema", modernGraph, "--kind", "node"}, "invalid --kind"},
		{"bad has", []string{"--schema", modernGraph, "--has", "age"}, "invalid --has"},
		{"negative limit", []string{"--schema", modernGraph, "--limit", "-1"}, "invalid --limit"},
		{"missing config", []string{"--schema", "nope.cue"}, "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeSearch(t, "text", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseHas(t *testing.T) {
	tests := []struct {
		clause string
		want   predicate.Has
	}{
		{"name=marko", predicate.Has{Key: "name", Op: predicate.OpEq, Value: ir.IRString("marko")}},
		{"age=29", predicate.Has{Key: "age", Op: predicate.OpEq, Value: ir.IRInt(29)}},
		{"~id=42", predicate.Has{Key: "~id", Op: predicate.OpEq, Value: ir.IRString("42")}},
		{"weight:lt:0.5", predicate.Has{Key: "weight", Op: predicate.OpLt, Value: ir.IRFloat(0.5)}},
		{"name:startsWith:ma", predicate.Has{Key: "name", Op: predicate.OpStartsWith, Value: ir.IRString("ma")}},
		{"note:eq:a=b", predicate.Has{Key: "note", Op: predicate.OpEq, Value: ir.IRString("a=b")}},
		{"name:startsWith:12", predicate.Has{Key: "name", Op: predicate.OpStartsWith, Value: ir.IRString("12")}},
		{"~id:within:v1,v2", predicate.Has{Key: "~id", Op: predicate.OpWithin, Values: []ir.IRValue{ir.IRString("v1"), ir.IRString("v2")}}},
		{"age:between:20,30", predicate.Has{Key: "age", Op: predicate.OpBetween, Values: []ir.IRValue{ir.IRInt(20), ir.IRInt(30)}}},
		{"lang:exists", predicate.Has{Key: "lang", Op: predicate.OpExists}},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			got, err := parseHas(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHas_Errors(t *testing.T) {
	for _, clause := range []string{"age", ":eq:1", "age:about:3", "age:gt", "age:between:1"} {
		t.Run(clause, func(t *testing.T) {
			_, err := parseHas(clause)
			assert.Error(t, err)
		})
	}
}
