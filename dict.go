// Package magidict implements a forgiving associative container: an
// insertion-ordered string-keyed map that supports both exact lookup and
// attribute-style resolution, where resolving an absent or nil-valued key
// yields an empty read-only placeholder instead of failing, so deep
// chains like d.Attr("a").(*Dict).Attr("b") never panic.
//
// Values are normalized on entry: every string-keyed map reachable from a
// stored value becomes a *Dict, including maps nested inside slices,
// arrays, and plain structs. Normalization keeps an identity-keyed memo
// per call, so self-referential and shared structures convert without
// unbounded recursion and without duplicating shared nodes. Disenchant
// runs the transformation in reverse.
//
// Concurrent reads of an unchanging Dict are safe. Concurrent mutation is
// not: Set, Update, the lazy upgrade inside Attr, and in-place slice
// normalization all write shared state without locking. Callers that
// mutate from several goroutines must synchronize externally.
package magidict

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Dict is the container. Keys are unique; iteration follows insertion
// order. The two flags are set only on transient placeholders returned by
// failed attribute resolution and are never true for a Dict produced by
// construction or assignment.
type Dict struct {
	keys   []string
	values []any
	index  map[string]int

	fromMissing bool
	fromNone    bool
}

// Entry is a single key/value pair, used for construction and for the
// Items view.
type Entry struct {
	Key   string
	Value any
}

// New creates a Dict from entries. Values are normalized; one memo is
// shared across the whole call, so an entry value referenced twice
// converts to a single shared instance.
func New(entries ...Entry) *Dict {
	d := newDict()
	if len(entries) == 0 {
		return d
	}
	memo := make(map[memoKey]any)
	for _, e := range entries {
		d.put(e.Key, normalize(e.Value, memo))
	}
	return d
}

// FromMap creates a Dict from a plain map. The map is used by reference
// for identity purposes: it is registered in the conversion memo before
// its values are walked, so a map that contains itself converts to a Dict
// that contains itself. Nested []any values are normalized in place (see
// normalize). Go maps carry no insertion order, so keys are taken in
// sorted order; decode adapters (JSON, YAML, gob) preserve document order
// instead.
func FromMap(m map[string]any) *Dict {
	d := newDict()
	if m == nil {
		return d
	}
	memo := make(map[memoKey]any)
	if k, ok := identityOf(m); ok {
		memo[k] = d
	}
	for _, key := range sortedKeys(m) {
		d.put(key, normalize(m[key], memo))
	}
	return d
}

// FromPairs creates a Dict from a sequence of 2-element pairs. Each pair
// may be an Entry, a [2]any, or a []any of length 2 whose first element
// is a string. Anything else fails with ERR_TYPE.
func FromPairs(pairs []any) (*Dict, error) {
	d := newDict()
	memo := make(map[memoKey]any)
	for i, p := range pairs {
		var key string
		var val any
		switch pair := p.(type) {
		case Entry:
			key, val = pair.Key, pair.Value
		case [2]any:
			k, ok := pair[0].(string)
			if !ok {
				return nil, newErr(ErrType, fmt.Sprintf("pair %d: key is %T, not string", i, pair[0]))
			}
			key, val = k, pair[1]
		case []any:
			if len(pair) != 2 {
				return nil, newErr(ErrType, fmt.Sprintf("pair %d: length %d, want 2", i, len(pair)))
			}
			k, ok := pair[0].(string)
			if !ok {
				return nil, newErr(ErrType, fmt.Sprintf("pair %d: key is %T, not string", i, pair[0]))
			}
			key, val = k, pair[1]
		default:
			return nil, newErr(ErrType, fmt.Sprintf("pair %d: %T is not a 2-element pair", i, p))
		}
		d.put(key, normalize(val, memo))
	}
	return d, nil
}

// FromKeys creates a Dict with every key mapped to value. The value is
// normalized once per key with a fresh memo, so each key receives its own
// converted copy of a map-typed value.
func FromKeys(keys []string, value any) *Dict {
	d := newDict()
	for _, k := range keys {
		d.put(k, normalize(value, make(map[memoKey]any)))
	}
	return d
}

func newDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

// put inserts or replaces without normalization or protection checks.
// Internal callers pass already-normalized values.
func (d *Dict) put(key string, value any) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.values[i] = value
		return
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
}

// Set stores key → value, normalizing the value. Fails with
// ERR_PROTECTED on a placeholder.
func (d *Dict) Set(key string, value any) error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	d.put(key, normalize(value, make(map[memoKey]any)))
	return nil
}

// Delete removes key. Fails with ERR_MISSING_KEY if absent and
// ERR_PROTECTED on a placeholder.
func (d *Dict) Delete(key string) error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	i, ok := d.index[key]
	if !ok {
		return newErr(ErrMissingKey, fmt.Sprintf("missing key %q", key))
	}
	d.removeAt(i)
	return nil
}

func (d *Dict) removeAt(i int) {
	delete(d.index, d.keys[i])
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.values = append(d.values[:i], d.values[i+1:]...)
	for j := i; j < len(d.keys); j++ {
		d.index[d.keys[j]] = j
	}
}

// Update merges src into d. src may be a *Dict, a string-keyed map, or a
// []Entry; each value re-enters the conversion engine. Fails with
// ERR_PROTECTED on a placeholder and ERR_TYPE for an unsupported source.
func (d *Dict) Update(src any) error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	switch s := src.(type) {
	case *Dict:
		for i, k := range s.keys {
			d.put(k, normalize(s.values[i], make(map[memoKey]any)))
		}
		return nil
	case map[string]any:
		for _, k := range sortedKeys(s) {
			d.put(k, normalize(s[k], make(map[memoKey]any)))
		}
		return nil
	case []Entry:
		for _, e := range s {
			d.put(e.Key, normalize(e.Value, make(map[memoKey]any)))
		}
		return nil
	}
	if m, ok := stringKeyedMap(src); ok {
		for _, k := range sortedKeys(m) {
			d.put(k, normalize(m[k], make(map[memoKey]any)))
		}
		return nil
	}
	return newErr(ErrType, fmt.Sprintf("cannot update from %T", src))
}

// Pop removes key and returns its value. Fails with ERR_MISSING_KEY if
// absent and ERR_PROTECTED on a placeholder.
func (d *Dict) Pop(key string) (any, error) {
	if err := d.guardMutation(); err != nil {
		return nil, err
	}
	i, ok := d.index[key]
	if !ok {
		return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", key))
	}
	v := d.values[i]
	d.removeAt(i)
	return v, nil
}

// PopDefault removes key and returns its value, or returns def if the
// key is absent. Fails only with ERR_PROTECTED.
func (d *Dict) PopDefault(key string, def any) (any, error) {
	if err := d.guardMutation(); err != nil {
		return nil, err
	}
	i, ok := d.index[key]
	if !ok {
		return def, nil
	}
	v := d.values[i]
	d.removeAt(i)
	return v, nil
}

// PopItem removes and returns the most recently inserted entry. Fails
// with ERR_MISSING_KEY when empty and ERR_PROTECTED on a placeholder.
func (d *Dict) PopItem() (string, any, error) {
	if err := d.guardMutation(); err != nil {
		return "", nil, err
	}
	if len(d.keys) == 0 {
		return "", nil, newErr(ErrMissingKey, "popitem on empty dict")
	}
	i := len(d.keys) - 1
	k, v := d.keys[i], d.values[i]
	d.removeAt(i)
	return k, v, nil
}

// Clear removes every entry. Fails with ERR_PROTECTED on a placeholder.
func (d *Dict) Clear() error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	d.keys = nil
	d.values = nil
	d.index = make(map[string]int)
	return nil
}

// SetDefault returns the value stored under key, inserting the normalized
// def first if the key is absent. Fails with ERR_PROTECTED on a
// placeholder.
func (d *Dict) SetDefault(key string, def any) (any, error) {
	if err := d.guardMutation(); err != nil {
		return nil, err
	}
	if i, ok := d.index[key]; ok {
		return d.values[i], nil
	}
	v := normalize(def, make(map[memoKey]any))
	d.put(key, v)
	return v, nil
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// IsEmpty reports whether the Dict has no entries. Placeholders are
// always empty.
func (d *Dict) IsEmpty() bool { return len(d.keys) == 0 }

// Has reports whether key is present (exact match only, no dot-path).
func (d *Dict) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in insertion order.
func (d *Dict) Values() []any {
	out := make([]any, len(d.values))
	copy(out, d.values)
	return out
}

// Items returns the entries in insertion order.
func (d *Dict) Items() []Entry {
	out := make([]Entry, len(d.keys))
	for i, k := range d.keys {
		out[i] = Entry{Key: k, Value: d.values[i]}
	}
	return out
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (d *Dict) Range(fn func(key string, value any) bool) {
	for i, k := range d.keys {
		if !fn(k, d.values[i]) {
			return
		}
	}
}

// Copy returns a shallow copy: a fresh ordinary Dict (no protection
// flags) sharing the stored values, including nested *Dict instances.
func (d *Dict) Copy() *Dict {
	out := newDict()
	for i, k := range d.keys {
		out.put(k, d.values[i])
	}
	return out
}

// DeepCopy returns an independent copy: every nested Dict, slice, and
// rebuilt struct is reconstructed, so mutating the copy never touches the
// original. Cycles and shared references inside d are preserved in the
// copy's own structure.
func (d *Dict) DeepCopy() *Dict {
	return FromMap(d.Disenchant())
}

// Equal reports deep content equality, ignoring entry order and
// protection flags: a placeholder equals any other empty Dict. Intended
// for acyclic values.
func (d *Dict) Equal(other *Dict) bool {
	if other == nil || len(d.keys) != len(other.keys) {
		return false
	}
	for i, k := range d.keys {
		j, ok := other.index[k]
		if !ok || !valueEqual(d.values[i], other.values[j]) {
			return false
		}
	}
	return true
}

// String renders the entries in insertion order, in the style
// Dict{key: value, ...}.
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteString("Dict{")
	for i, k := range d.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %v", k, d.values[i])
	}
	b.WriteString("}")
	return b.String()
}

// valueEqual compares two stored values by content. Nested *Dict values
// use Equal (order-insensitive); []any slices compare elementwise;
// everything else falls back to reflect.DeepEqual.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if da, ok := a.(*Dict); ok {
		db, ok := b.(*Dict)
		return ok && da.Equal(db)
	}
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !valueEqual(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
