package magidict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreservesInsertionOrder(t *testing.T) {
	d := New(
		Entry{Key: "zulu", Value: 1},
		Entry{Key: "alpha", Value: 2},
		Entry{Key: "mike", Value: 3},
	)
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, d.Keys())
	assert.Equal(t, []any{1, 2, 3}, d.Values())
}

func TestNewConvertsNestedMaps(t *testing.T) {
	d := New(Entry{Key: "user", Value: map[string]any{"name": "Alice"}})
	nested, ok := d.MustGet("user").(*Dict)
	require.True(t, ok)
	assert.Equal(t, "Alice", nested.MustGet("name"))
}

func TestNewSharedMemoAcrossEntries(t *testing.T) {
	shared := map[string]any{"x": 1}
	d := New(
		Entry{Key: "a", Value: shared},
		Entry{Key: "b", Value: shared},
	)
	assert.Same(t, d.MustGet("a").(*Dict), d.MustGet("b").(*Dict))
}

func TestFromMapSortsPlainMapKeys(t *testing.T) {
	d := FromMap(map[string]any{"b": 2, "a": 1, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())
}

func TestFromMapNil(t *testing.T) {
	d := FromMap(nil)
	assert.Equal(t, 0, d.Len())
	assert.True(t, d.IsEmpty())
}

func TestFromPairs(t *testing.T) {
	d, err := FromPairs([]any{
		Entry{Key: "a", Value: 1},
		[2]any{"b", 2},
		[]any{"c", 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())
}

func TestFromPairsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		pairs []any
	}{
		{"not a pair", []any{42}},
		{"wrong length", []any{[]any{"a", 1, 2}}},
		{"non-string key", []any{[]any{7, 1}}},
		{"non-string array key", []any{[2]any{7, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromPairs(tt.pairs)
			require.Error(t, err)
			assert.Equal(t, ErrType, CodeOf(err))
		})
	}
}

func TestFromKeysIndependentValues(t *testing.T) {
	value := map[string]any{"x": 1}
	d := FromKeys([]string{"a", "b"}, value)
	da := d.MustGet("a").(*Dict)
	db := d.MustGet("b").(*Dict)
	assert.True(t, da.Equal(db))
	assert.NotSame(t, da, db)
}

func TestSetReplacesInPlace(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1}, Entry{Key: "b", Value: 2})
	require.NoError(t, d.Set("a", 10))
	assert.Equal(t, []string{"a", "b"}, d.Keys())
	assert.Equal(t, 10, d.MustGet("a"))
}

func TestSetNormalizesValue(t *testing.T) {
	d := New()
	require.NoError(t, d.Set("cfg", map[string]any{"deep": map[string]any{"n": 1}}))
	deep := d.MustGet("cfg").(*Dict).MustGet("deep").(*Dict)
	assert.Equal(t, 1, deep.MustGet("n"))
}

func TestDelete(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1}, Entry{Key: "b", Value: 2}, Entry{Key: "c", Value: 3})
	require.NoError(t, d.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, d.Keys())
	assert.Equal(t, 3, d.MustGet("c"))

	err := d.Delete("nope")
	require.Error(t, err)
	assert.Equal(t, ErrMissingKey, CodeOf(err))
}

func TestUpdateSources(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1})

	require.NoError(t, d.Update(map[string]any{"b": 2}))
	require.NoError(t, d.Update(New(Entry{Key: "c", Value: 3})))
	require.NoError(t, d.Update([]Entry{{Key: "d", Value: 4}}))
	require.NoError(t, d.Update(map[string]int{"e": 5}))

	assert.Equal(t, 5, d.Len())
	assert.Equal(t, 5, d.MustGet("e"))

	err := d.Update(42)
	require.Error(t, err)
	assert.Equal(t, ErrType, CodeOf(err))
}

func TestUpdateConvertsValues(t *testing.T) {
	d := New()
	require.NoError(t, d.Update(map[string]any{"nested": map[string]any{"x": 1}}))
	_, ok := d.MustGet("nested").(*Dict)
	assert.True(t, ok)
}

func TestPop(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1})
	v, err := d.Pop("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, d.Has("a"))

	_, err = d.Pop("a")
	assert.Equal(t, ErrMissingKey, CodeOf(err))
}

func TestPopDefault(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1})
	v, err := d.PopDefault("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
	assert.Equal(t, 1, d.Len())
}

func TestPopItemLIFO(t *testing.T) {
	d := New(Entry{Key: "first", Value: 1}, Entry{Key: "last", Value: 2})
	k, v, err := d.PopItem()
	require.NoError(t, err)
	assert.Equal(t, "last", k)
	assert.Equal(t, 2, v)

	_, _, err = d.PopItem()
	require.NoError(t, err)
	_, _, err = d.PopItem()
	assert.Equal(t, ErrMissingKey, CodeOf(err))
}

func TestClear(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1})
	require.NoError(t, d.Clear())
	assert.Equal(t, 0, d.Len())
	require.NoError(t, d.Set("b", 2))
	assert.Equal(t, []string{"b"}, d.Keys())
}

func TestSetDefault(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1})

	v, err := d.SetDefault("a", 99)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = d.SetDefault("b", map[string]any{"x": 1})
	require.NoError(t, err)
	_, ok := v.(*Dict)
	assert.True(t, ok, "default value should be normalized")
	assert.True(t, d.Has("b"))
}

func TestItemsAndRange(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1}, Entry{Key: "b", Value: 2})
	assert.Equal(t, []Entry{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, d.Items())

	var seen []string
	d.Range(func(k string, v any) bool {
		seen = append(seen, k)
		return k != "a"
	})
	assert.Equal(t, []string{"a"}, seen)
}

func TestCopyIsShallow(t *testing.T) {
	inner := map[string]any{"x": 1}
	d := New(Entry{Key: "nested", Value: inner})
	c := d.Copy()

	assert.True(t, d.Equal(c))
	assert.Same(t, d.MustGet("nested").(*Dict), c.MustGet("nested").(*Dict))

	require.NoError(t, c.Set("extra", true))
	assert.False(t, d.Has("extra"))
}

func TestDeepCopyIndependent(t *testing.T) {
	d := FromMap(map[string]any{
		"user": map[string]any{"name": "Alice"},
		"tags": []any{1, 2},
	})
	c := d.DeepCopy()

	assert.True(t, d.Equal(c))
	assert.NotSame(t, d.MustGet("user").(*Dict), c.MustGet("user").(*Dict))

	require.NoError(t, c.MustGet("user").(*Dict).Set("name", "Bob"))
	assert.Equal(t, "Alice", d.MustGet("user").(*Dict).MustGet("name"))

	c.MustGet("tags").([]any)[0] = 99
	assert.Equal(t, 1, d.MustGet("tags").([]any)[0])
}

func TestDeepCopyPreservesCycle(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	d := FromMap(m)

	c := d.DeepCopy()
	assert.NotSame(t, d, c)
	assert.Same(t, c, c.Attr("self").(*Dict), "copy is self-referential on its own")
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := New(Entry{Key: "x", Value: 1}, Entry{Key: "y", Value: 2})
	b := New(Entry{Key: "y", Value: 2}, Entry{Key: "x", Value: 1})
	assert.True(t, a.Equal(b))

	c := New(Entry{Key: "x", Value: 1})
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestEqualDeep(t *testing.T) {
	a := New(Entry{Key: "n", Value: map[string]any{"list": []any{1, map[string]any{"k": "v"}}}})
	b := New(Entry{Key: "n", Value: map[string]any{"list": []any{1, map[string]any{"k": "v"}}}})
	assert.True(t, a.Equal(b))

	require.NoError(t, b.MustGet("n").(*Dict).Set("list", []any{1}))
	assert.False(t, a.Equal(b))
}

func TestString(t *testing.T) {
	d := New(Entry{Key: "a", Value: 1}, Entry{Key: "b", Value: "two"})
	assert.Equal(t, `Dict{"a": 1, "b": two}`, d.String())
}
