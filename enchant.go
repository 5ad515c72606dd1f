package magidict

import (
	"fmt"
	"reflect"
	"sort"
)

// memoKey is an identity surrogate for one reference value during a
// single conversion or externalization call. Maps and pointers are
// identified by address; slices by data pointer plus length, since
// reslices share a base address.
type memoKey struct {
	ptr uintptr
	aux int
}

// identityOf returns the identity surrogate for v, or ok=false for
// values that have no stable identity (scalars, structs, nil, empty
// slices).
func identityOf(v any) (memoKey, bool) {
	if v == nil {
		return memoKey{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return memoKey{}, false
		}
		return memoKey{ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return memoKey{}, false
		}
		return memoKey{ptr: rv.Pointer(), aux: rv.Len()}, true
	}
	return memoKey{}, false
}

// normalize recursively converts every reachable string-keyed map into a
// *Dict. The memo is keyed by object identity and scoped to one
// top-level call; it is consulted before any type dispatch so cyclic and
// shared structures resolve to the instance already being built.
//
// []any slices are normalized in place, preserving their identity for
// cyclic structures at the cost of mutating the caller's slice. Maps and
// structs are always rebuilt, never mutated.
func normalize(v any, memo map[memoKey]any) any {
	if v == nil {
		return nil
	}
	if id, ok := identityOf(v); ok {
		if prev, seen := memo[id]; seen {
			return prev
		}
	}

	switch val := v.(type) {
	case *Dict:
		if id, ok := identityOf(val); ok {
			memo[id] = val
		}
		return val

	case map[string]any:
		d := newDict()
		if id, ok := identityOf(val); ok {
			memo[id] = d
		}
		for _, k := range sortedKeys(val) {
			d.put(k, normalize(val[k], memo))
		}
		return d

	case []any:
		if id, ok := identityOf(val); ok {
			memo[id] = val
		}
		for i, elem := range val {
			val[i] = normalize(elem, memo)
		}
		return val

	case string, []byte:
		return val
	}

	return normalizeReflect(v, memo)
}

// normalizeReflect handles the type families that need reflection:
// string-keyed maps of other element types, typed slices, arrays, and
// plain structs. Everything else (scalars, sets, channels, pointers to
// opaque objects, non-string-keyed maps) passes through untouched and is
// not recursed into.
func normalizeReflect(v any, memo map[memoKey]any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v // sets and non-string-keyed maps are opaque
		}
		d := newDict()
		if id, ok := identityOf(v); ok {
			memo[id] = d
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		keyT := rv.Type().Key()
		for _, k := range keys {
			mv := rv.MapIndex(reflect.ValueOf(k).Convert(keyT))
			d.put(k, normalize(mv.Interface(), memo))
		}
		return d

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v // binary blob
		}
		return normalizeSlice(rv, v, memo)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return normalizeArray(rv, memo)

	case reflect.Struct:
		return normalizeStruct(rv, v, memo)
	}
	return v
}

// normalizeSlice handles typed slices other than []any. The slice is
// registered in the memo first, then mutated in place when the
// normalized elements still fit the element type. When they do not (for
// example []map[string]any, whose elements become *Dict), the slice is
// rebuilt as a generic []any and the memo entry is updated.
func normalizeSlice(rv reflect.Value, orig any, memo map[memoKey]any) any {
	elemT := rv.Type().Elem()
	id, hasID := identityOf(orig)
	if hasID {
		memo[id] = orig
	}
	n := rv.Len()
	converted := make([]any, n)
	rebuild := false
	for i := 0; i < n; i++ {
		nv := normalize(rv.Index(i).Interface(), memo)
		converted[i] = nv
		if !assignableTo(nv, elemT) {
			rebuild = true
		}
	}
	if !rebuild {
		for i := 0; i < n; i++ {
			setReflect(rv.Index(i), converted[i], elemT)
		}
		return orig
	}
	if hasID {
		memo[id] = converted
	}
	return converted
}

func normalizeArray(rv reflect.Value, memo map[memoKey]any) any {
	elemT := rv.Type().Elem()
	n := rv.Len()
	converted := make([]any, n)
	rebuild := false
	for i := 0; i < n; i++ {
		nv := normalize(rv.Index(i).Interface(), memo)
		converted[i] = nv
		if !assignableTo(nv, elemT) {
			rebuild = true
		}
	}
	if rebuild {
		return converted
	}
	out := reflect.New(rv.Type()).Elem()
	for i := 0; i < n; i++ {
		setReflect(out.Index(i), converted[i], elemT)
	}
	return out.Interface()
}

// normalizeStruct rebuilds a struct of the same concrete type with every
// field normalized. Structs with unexported fields (time.Time and other
// opaque scalars) cannot be rebuilt reflectively and pass through
// unchanged.
func normalizeStruct(rv reflect.Value, orig any, memo map[memoKey]any) any {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			return orig
		}
	}
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i).Type
		nv := normalize(rv.Field(i).Interface(), memo)
		if assignableTo(nv, ft) {
			setReflect(out.Field(i), nv, ft)
		} else {
			out.Field(i).Set(rv.Field(i))
		}
	}
	return out.Interface()
}

func assignableTo(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

func setReflect(dst reflect.Value, v any, t reflect.Type) {
	if v == nil {
		dst.Set(reflect.Zero(t))
		return
	}
	dst.Set(reflect.ValueOf(v))
}

// Enchant promotes v to a *Dict. A *Dict is returned unchanged (the
// promotion is idempotent); any string-keyed map is normalized; anything
// else fails with ERR_TYPE naming the actual type.
func Enchant(v any) (*Dict, error) {
	if d, ok := v.(*Dict); ok {
		return d, nil
	}
	if !isMapLike(v) {
		return nil, newErr(ErrType, fmt.Sprintf("expected a map-like value, got %T", v))
	}
	return normalize(v, make(map[memoKey]any)).(*Dict), nil
}

func isMapLike(v any) bool {
	if _, ok := v.(*Dict); ok {
		return true
	}
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

// stringKeyedMap views v as a map[string]any if it is any string-keyed
// map type.
func stringKeyedMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
