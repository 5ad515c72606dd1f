package magidict

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const pathSeparator = "."

// Get resolves key by exact match first: a literal key containing
// separators always wins over traversal, and a stored nil comes back as
// the literal nil. When no exact match exists and the key contains the
// separator, it is split into segments (empty segments are preserved and
// name the empty-string key) and walked through nested maps and
// sequences:
//
//   - a map-like step looks the segment up as an exact key and fails
//     with ERR_MISSING_KEY when absent;
//   - a sequence step parses the segment as an integer index (negative
//     indexes count from the end), failing with ERR_INVALID_INDEX for a
//     non-numeric segment and ERR_OUT_OF_RANGE for an impossible one;
//   - any other step fails with ERR_MISSING_KEY, uniform with a map
//     miss.
//
// A numeric-looking segment against a map-like step is a map key, never
// a sequence position.
func (d *Dict) Get(key string) (any, error) {
	if i, ok := d.index[key]; ok {
		v := d.values[i]
		if up, ok := upgradeRaw(v); ok {
			d.values[i] = up
			return up, nil
		}
		return v, nil
	}
	if !strings.Contains(key, pathSeparator) {
		return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", key))
	}
	var cur any = d
	for _, seg := range strings.Split(key, pathSeparator) {
		next, err := pathStep(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// MustGet is Get for callers that treat resolution failure as a bug.
func (d *Dict) MustGet(key string) any {
	v, err := d.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

func pathStep(cur any, seg string) (any, error) {
	switch c := cur.(type) {
	case *Dict:
		if i, ok := c.index[seg]; ok {
			v := c.values[i]
			if up, ok := upgradeRaw(v); ok {
				c.values[i] = up
				return up, nil
			}
			return v, nil
		}
		return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))

	case map[string]any:
		v, ok := c[seg]
		if !ok {
			return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
		}
		return v, nil

	case []any:
		return indexSequence(seg, len(c), func(i int) any { return c[i] })

	case string, []byte, nil:
		return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
	}

	rv := reflect.ValueOf(cur)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
		}
		mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
		}
		return mv.Interface(), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
		}
		return indexSequence(seg, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	}
	return nil, newErr(ErrMissingKey, fmt.Sprintf("missing key %q", seg))
}

func indexSequence(seg string, n int, at func(int) any) (any, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return nil, newErr(ErrInvalidIndex, fmt.Sprintf("invalid sequence index %q", seg))
	}
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, newErr(ErrOutOfRange, fmt.Sprintf("index %s out of range for sequence of length %d", seg, n))
	}
	return at(idx), nil
}
