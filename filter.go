package magidict

// Filter returns a new ordinary Dict with the entries for which pred
// holds. A nil pred keeps entries whose value is non-nil. Nested Dict
// values are filtered recursively before the predicate sees them. When
// dropEmpty is set, entries whose filtered value is an empty Dict,
// slice, or map are omitted as well.
func (d *Dict) Filter(pred func(key string, value any) bool, dropEmpty bool) *Dict {
	out := newDict()
	for i, k := range d.keys {
		v := d.values[i]
		if nested, ok := v.(*Dict); ok {
			v = nested.Filter(pred, dropEmpty)
		}
		if pred != nil {
			if !pred(k, v) {
				continue
			}
		} else if v == nil {
			continue
		}
		if dropEmpty && isEmptyValue(v) {
			continue
		}
		out.put(k, v)
	}
	return out
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case *Dict:
		return val.Len() == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
