package magidict

import "reflect"

// Disenchant converts d and every nested Dict back into plain
// map[string]any values, the structural inverse of construction.
// Self-referential and shared structures round-trip with identity
// preserved at matching paths.
func (d *Dict) Disenchant() map[string]any {
	return externalize(d, make(map[memoKey]any)).(map[string]any)
}

// Externalize applies the inverse conversion to an arbitrary value:
// Dicts become plain maps, normalized slices keep their element types
// where possible, rebuilt structs keep their concrete type, and scalars
// pass through. For any acyclic x, Externalize(x) of a normalized x is
// structurally equal to the original input.
func Externalize(v any) any {
	return externalize(v, make(map[memoKey]any))
}

// externalize runs an explicit LIFO work list of (source,
// destination-slot) tasks instead of recursing, so nesting depth is
// bounded by the heap, not the call stack. Containers are registered in
// the memo and linked into their destination before their children are
// scheduled, which is what lets cycles terminate.
func externalize(root any, memo map[memoKey]any) any {
	var result any
	var stack []func()

	push := func(fn func()) { stack = append(stack, fn) }

	var schedule func(src any, dst func(any))
	schedule = func(src any, dst func(any)) {
		push(func() { externalizeOne(src, dst, memo, push, schedule) })
	}

	schedule(root, func(v any) { result = v })
	for len(stack) > 0 {
		fn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn()
	}
	return result
}

func externalizeOne(src any, dst func(any), memo map[memoKey]any, push func(func()), schedule func(any, func(any))) {
	if src == nil {
		dst(nil)
		return
	}
	if id, ok := identityOf(src); ok {
		if prev, seen := memo[id]; seen {
			dst(prev)
			return
		}
	}

	switch val := src.(type) {
	case *Dict:
		out := make(map[string]any, len(val.keys))
		if id, ok := identityOf(val); ok {
			memo[id] = out
		}
		dst(out)
		for i := range val.keys {
			k := val.keys[i]
			schedule(val.values[i], func(res any) { out[k] = res })
		}
		return

	case map[string]any:
		out := make(map[string]any, len(val))
		if id, ok := identityOf(val); ok {
			memo[id] = out
		}
		dst(out)
		for k, v := range val {
			k := k
			schedule(v, func(res any) { out[k] = res })
		}
		return

	case []any:
		out := make([]any, len(val))
		if id, ok := identityOf(val); ok {
			memo[id] = out
		}
		dst(out)
		for i := range val {
			i := i
			schedule(val[i], func(res any) { out[i] = res })
		}
		return

	case string, []byte:
		dst(val)
		return
	}

	externalizeReflect(src, dst, memo, push, schedule)
}

func externalizeReflect(src any, dst func(any), memo map[memoKey]any, push func(func()), schedule func(any, func(any))) {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			dst(src) // opaque, mirrors the conversion engine
			return
		}
		out := make(map[string]any, rv.Len())
		if id, ok := identityOf(src); ok {
			memo[id] = out
		}
		dst(out)
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			schedule(iter.Value().Interface(), func(res any) { out[k] = res })
		}

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			dst(src)
			return
		}
		// Collect into a generic list registered in the memo before the
		// children run; reconstruct the concrete slice type afterwards,
		// falling back to the generic list when elements no longer fit.
		n := rv.Len()
		tmp := make([]any, n)
		if id, ok := identityOf(src); ok {
			memo[id] = tmp
		}
		seqT := rv.Type()
		push(func() { dst(rebuildSequence(seqT, tmp)) })
		for i := 0; i < n; i++ {
			i := i
			schedule(rv.Index(i).Interface(), func(res any) { tmp[i] = res })
		}

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			dst(src)
			return
		}
		n := rv.Len()
		tmp := make([]any, n)
		arrT := rv.Type()
		push(func() { dst(rebuildArray(arrT, tmp)) })
		for i := 0; i < n; i++ {
			i := i
			schedule(rv.Index(i).Interface(), func(res any) { tmp[i] = res })
		}

	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				dst(src) // unexported fields: opaque scalar
				return
			}
		}
		n := t.NumField()
		tmp := make([]any, n)
		orig := rv
		push(func() {
			out := reflect.New(t).Elem()
			for i := 0; i < n; i++ {
				ft := t.Field(i).Type
				if assignableTo(tmp[i], ft) {
					setReflect(out.Field(i), tmp[i], ft)
				} else {
					out.Field(i).Set(orig.Field(i))
				}
			}
			dst(out.Interface())
		})
		for i := 0; i < n; i++ {
			i := i
			schedule(rv.Field(i).Interface(), func(res any) { tmp[i] = res })
		}

	default:
		dst(src)
	}
}

func rebuildSequence(seqT reflect.Type, elems []any) any {
	elemT := seqT.Elem()
	for _, e := range elems {
		if !assignableTo(e, elemT) {
			return elems
		}
	}
	out := reflect.MakeSlice(seqT, len(elems), len(elems))
	for i, e := range elems {
		setReflect(out.Index(i), e, elemT)
	}
	return out.Interface()
}

func rebuildArray(arrT reflect.Type, elems []any) any {
	elemT := arrT.Elem()
	for _, e := range elems {
		if !assignableTo(e, elemT) {
			return elems
		}
	}
	out := reflect.New(arrT).Elem()
	for i, e := range elems {
		setReflect(out.Index(i), e, elemT)
	}
	return out.Interface()
}
