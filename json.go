package magidict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// Unmarshal parses a JSON document whose root is an object into a Dict.
// Every object literal becomes a *Dict the moment the parser finishes
// it, bottom-up, so nested objects are already Dicts by the time the
// enclosing array or object completes. Document key order is preserved.
func Unmarshal(data []byte) (*Dict, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one JSON document from r, see Unmarshal.
func Decode(r io.Reader) (*Dict, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	// One root value, nothing after it.
	if _, err2 := dec.Token(); err2 == nil {
		return nil, newErr(ErrType, "trailing content after JSON document")
	} else if err2 != io.EOF {
		return nil, err2
	}
	d, ok := v.(*Dict)
	if !ok {
		return nil, newErr(ErrType, fmt.Sprintf("JSON root is %T, not an object", v))
	}
	return d, nil
}

// UnmarshalJSONC parses JSON that may carry comments and trailing
// commas, stripping them before decoding.
func UnmarshalJSONC(data []byte) (*Dict, error) {
	return Unmarshal(jsonc.ToJSON(data))
}

// decodeJSONValue decodes one JSON value from the token stream.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, newErr(ErrType, "unexpected end of JSON input")
		}
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		default:
			return nil, newErr(ErrType, fmt.Sprintf("unexpected delimiter %q", v.String()))
		}
	case string:
		return v, nil
	case bool:
		return v, nil
	case json.Number:
		return convertJSONNumber(v), nil
	case nil:
		return nil, nil
	}
	return nil, newErr(ErrType, fmt.Sprintf("unexpected JSON token %v", tok))
}

// decodeJSONObject builds a Dict from an object body. The opening '{'
// has already been consumed. Values arrive already converted, so no
// re-normalization happens here; a duplicated key keeps the last value.
func decodeJSONObject(dec *json.Decoder) (*Dict, error) {
	d := newDict()
	for dec.More() {
		kTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kTok.(string)
		if !ok {
			return nil, newErr(ErrType, fmt.Sprintf("object key is %T, not a string", kTok))
		}
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		d.put(key, v)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '}' {
		return nil, newErr(ErrType, "expected '}'")
	}
	return d, nil
}

// decodeJSONArray builds a []any. The opening '[' has already been
// consumed.
func decodeJSONArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0, 8)
	for dec.More() {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != ']' {
		return nil, newErr(ErrType, "expected ']'")
	}
	return arr, nil
}

// convertJSONNumber keeps integral tokens as int64 and everything else
// as float64. The raw token string is inspected so "1.0" stays a float
// even though its value is integral.
func convertJSONNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return n
}

// MarshalJSON encodes the Dict as an ordinary JSON object in insertion
// order. A placeholder encodes as {}: the protection flags are not part
// of the serializable state.
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler so a Dict can sit inside
// other decoded types. The root of data must be an object.
func (d *Dict) UnmarshalJSON(data []byte) error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	parsed, err := Unmarshal(data)
	if err != nil {
		return err
	}
	d.keys = parsed.keys
	d.values = parsed.values
	d.index = parsed.index
	return nil
}
