package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/ir"
)

func TestFactoryIdentities(t *testing.T) {
	name := Eq("name", ir.IRString("marko"))

	assert.True(t, Empty().IsEmpty())
	assert.True(t, Abort().IsAborted())
	assert.True(t, And().IsEmpty(), "empty conjunction matches everything")
	assert.True(t, Or().IsAborted(), "empty disjunction matches nothing")
	assert.Equal(t, name.String(), And(name).String(), "single operand collapses")
	assert.Equal(t, name.String(), And(nil, Empty(), name).String())
}

func TestAndAbortsOnAnyAbortedChild(t *testing.T) {
	h := And(Eq("name", ir.IRString("marko")), Abort(), Gt("age", ir.IRInt(20)))

	assert.True(t, h.IsAborted())
}

func TestOrDropsAbortedChildren(t *testing.T) {
	name := Eq("name", ir.IRString("marko"))

	h := Or(Abort(), name, Abort())
	assert.Equal(t, `name eq "marko"`, h.String())
	assert.False(t, h.IsAborted())

	assert.True(t, Or(Abort(), Abort()).IsAborted())
}

func TestOrWithMatchAllIsMatchAll(t *testing.T) {
	assert.True(t, Or(Eq("a", ir.IRInt(1)), Empty()).IsEmpty())
}

func TestAndFlattensNestedAnd(t *testing.T) {
	h := And(
		And(Eq("a", ir.IRInt(1)), Eq("b", ir.IRInt(2))),
		Eq("c", ir.IRInt(3)),
	)

	assert.Equal(t, ClauseAnd, h.Clause())
	assert.Len(t, h.Leaves(), 3)
	assert.Empty(t, h.Children())
}

func TestOrFlattensNestedOr(t *testing.T) {
	h := Or(
		Or(Eq("a", ir.IRInt(1)), Eq("b", ir.IRInt(2))),
		And(Eq("c", ir.IRInt(3)), Eq("d", ir.IRInt(4))),
	)

	assert.Equal(t, ClauseOr, h.Clause())
	assert.Len(t, h.Leaves(), 2)
	require.Len(t, h.Children(), 1)
	assert.Equal(t, `or(a eq 1, b eq 2, and(c eq 3, d eq 4))`, h.String())
}

func TestWithinEmptyAborts(t *testing.T) {
	assert.True(t, Within("name").IsAborted())
	assert.True(t, IDs().IsAborted())
	assert.False(t, Without("name").IsAborted())
}

func TestMapRenamesKeys(t *testing.T) {
	h := And(Eq("name", ir.IRString("Alice")), Gt("age", ir.IRInt(30)))
	fields := map[string]string{"name": "nm", "age": "age_years"}

	mapped := h.Map(func(has Has) *Holder {
		return Leaf(has.WithKey(fields[has.Key]))
	})

	assert.Equal(t, `and(nm eq "Alice", age_years gt 30)`, mapped.String())
	assert.Equal(t, `and(name eq "Alice", age gt 30)`, h.String(), "source holder is unchanged")
}

func TestMapUnmappedKeyInConjunctionAborts(t *testing.T) {
	h := And(Eq("name", ir.IRString("Alice")), Eq("salary", ir.IRInt(1)))

	mapped := h.Map(onlyKeys("name"))

	assert.True(t, mapped.IsAborted())
}

func TestMapUnmappedKeyInDisjunctionIsDropped(t *testing.T) {
	h := Or(Eq("name", ir.IRString("Alice")), Eq("salary", ir.IRInt(1)))

	mapped := h.Map(onlyKeys("name"))

	assert.Equal(t, `name eq "Alice"`, mapped.String())
}

func TestMapNestedAbortPropagates(t *testing.T) {
	h := And(
		Eq("name", ir.IRString("Alice")),
		Or(Eq("salary", ir.IRInt(1)), Eq("bonus", ir.IRInt(2))),
	)

	assert.True(t, h.Map(onlyKeys("name")).IsAborted())
	assert.False(t, h.Map(onlyKeys("name", "bonus")).IsAborted())
}

func TestMapOfEmptyAndAborted(t *testing.T) {
	assert.True(t, Empty().Map(onlyKeys()).IsEmpty())
	assert.True(t, Abort().Map(onlyKeys("x")).IsAborted())
}

func TestKeys(t *testing.T) {
	h := And(
		Eq("name", ir.IRString("a")),
		Or(Eq("age", ir.IRInt(1)), Eq("name", ir.IRString("b"))),
	)

	assert.Equal(t, []string{"age", "name"}, h.Keys())
}

func TestHolderTest(t *testing.T) {
	h := And(
		Eq(KeyLabel, ir.IRString("person")),
		Or(Gt("age", ir.IRInt(30)), Missing("age")),
	)

	lookup := func(values map[string]ir.IRValue) func(string) (ir.IRValue, bool) {
		return func(key string) (ir.IRValue, bool) {
			v, ok := values[key]
			return v, ok
		}
	}

	assert.True(t, h.Test(lookup(map[string]ir.IRValue{KeyLabel: ir.IRString("person"), "age": ir.IRInt(35)})))
	assert.True(t, h.Test(lookup(map[string]ir.IRValue{KeyLabel: ir.IRString("person")})))
	assert.False(t, h.Test(lookup(map[string]ir.IRValue{KeyLabel: ir.IRString("person"), "age": ir.IRInt(20)})))
	assert.False(t, h.Test(lookup(map[string]ir.IRValue{KeyLabel: ir.IRString("software")})))
	assert.False(t, Abort().Test(lookup(nil)))
	assert.True(t, Empty().Test(lookup(nil)))
}

func TestStringForms(t *testing.T) {
	assert.Equal(t, "abort()", Abort().String())
	assert.Equal(t, "all()", Empty().String())
	assert.Equal(t, `name within ["a", "b"]`, Within("name", ir.IRString("a"), ir.IRString("b")).String())
	assert.Equal(t, "age exists", Exists("age").String())
	assert.Equal(t, "age between [1, 5]", Between("age", ir.IRInt(1), ir.IRInt(5)).String())
}

func onlyKeys(keys ...string) func(Has) *Holder {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return func(has Has) *Holder {
		if !allowed[has.Key] {
			return Abort()
		}
		return Leaf(has)
	}
}
