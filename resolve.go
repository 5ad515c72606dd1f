package magidict

// Placeholders are empty Dicts tagged with the resolution failure that
// produced them. They are created fresh on every failed resolution,
// never stored inside any structure, and refuse all mutation.

func placeholderMissing() *Dict {
	d := newDict()
	d.fromMissing = true
	return d
}

func placeholderNone() *Dict {
	d := newDict()
	d.fromNone = true
	return d
}

// IsPlaceholder reports whether d is a transient placeholder produced by
// a failed or nil-valued attribute resolution.
func (d *Dict) IsPlaceholder() bool { return d.fromMissing || d.fromNone }

// FromMissing reports whether d is a placeholder for a missing key.
func (d *Dict) FromMissing() bool { return d.fromMissing }

// FromNone reports whether d is a placeholder for a nil-valued key.
func (d *Dict) FromNone() bool { return d.fromNone }

func (d *Dict) guardMutation() error {
	if d.fromMissing || d.fromNone {
		return newErr(ErrProtected, "cannot modify a placeholder for a missing or nil-valued key")
	}
	return nil
}

// Attr resolves name the forgiving way:
//
//  1. An existing key returns its stored value. A nil value resolves to
//     a fresh placeholder so chains stay safe; a raw string-keyed map
//     that bypassed conversion (low-level insertion) is normalized now
//     and stored back.
//  2. Otherwise name is matched against the builtin-operation catalogue
//     and resolves to the bound method value.
//  3. Otherwise a fresh placeholder is returned. Attr never fails.
//
// The nil case and the missing case look identical to the caller (an
// empty read-only Dict); FromNone and FromMissing tell them apart for
// diagnostics. Exact lookup via Get on the same nil-valued key returns
// the literal nil, never a placeholder.
func (d *Dict) Attr(name string) any {
	if i, ok := d.index[name]; ok {
		v := d.values[i]
		if v == nil {
			return placeholderNone()
		}
		if up, ok := upgradeRaw(v); ok {
			d.values[i] = up
			return up
		}
		return v
	}
	if op, ok := d.builtin(name); ok {
		return op
	}
	return placeholderMissing()
}

// builtin is the fixed catalogue of operations reachable through Attr.
// An existing key always shadows a builtin.
func (d *Dict) builtin(name string) (any, bool) {
	switch name {
	case "len":
		return d.Len, true
	case "keys":
		return d.Keys, true
	case "values":
		return d.Values, true
	case "items":
		return d.Items, true
	case "get":
		return d.Get, true
	case "mget":
		return d.MGet, true
	case "mg":
		return d.MG, true
	case "set":
		return d.Set, true
	case "delete":
		return d.Delete, true
	case "update":
		return d.Update, true
	case "pop":
		return d.Pop, true
	case "popitem":
		return d.PopItem, true
	case "clear":
		return d.Clear, true
	case "setdefault":
		return d.SetDefault, true
	case "copy":
		return d.Copy, true
	case "has":
		return d.Has, true
	case "equal":
		return d.Equal, true
	case "disenchant":
		return d.Disenchant, true
	case "filter":
		return d.Filter, true
	}
	return nil, false
}

// MGet is the safe get: a missing key or a nil value resolves to a fresh
// placeholder instead of failing, mirroring Attr for keys that collide
// with builtins or are otherwise awkward as attributes.
func (d *Dict) MGet(key string) any {
	if i, ok := d.index[key]; ok {
		v := d.values[i]
		if v == nil {
			return placeholderNone()
		}
		if up, ok := upgradeRaw(v); ok {
			d.values[i] = up
			return up
		}
		return v
	}
	return placeholderMissing()
}

// MGetDefault is MGet with an explicit fallback: a missing key returns
// def. A present nil value still resolves to a placeholder unless def is
// explicitly nil, in which case the literal nil comes back.
func (d *Dict) MGetDefault(key string, def any) any {
	i, ok := d.index[key]
	if !ok {
		return def
	}
	v := d.values[i]
	if v == nil {
		if def == nil {
			return nil
		}
		return placeholderNone()
	}
	if up, ok := upgradeRaw(v); ok {
		d.values[i] = up
		return up
	}
	return v
}

// MG is shorthand for MGet.
func (d *Dict) MG(key string) any { return d.MGet(key) }

// None collapses the forgiving-chaining convention back to an explicit
// nullable value: a placeholder (from either a missing key or a nil
// value) becomes nil, anything else is returned unchanged.
func None(v any) any {
	if d, ok := v.(*Dict); ok && (d.fromMissing || d.fromNone) {
		return nil
	}
	return v
}

// upgradeRaw lazily converts a string-keyed map that was stored without
// going through the conversion engine.
func upgradeRaw(v any) (any, bool) {
	if _, ok := v.(*Dict); ok {
		return nil, false
	}
	if !isMapLike(v) {
		return nil, false
	}
	return normalize(v, make(map[memoKey]any)), true
}
