package magidict

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalObject(t *testing.T) {
	d, err := Unmarshal([]byte(`{"name": "Alice", "id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "Alice", d.MustGet("name"))
	assert.Equal(t, int64(1), d.MustGet("id"))
}

func TestUnmarshalPreservesDocumentOrder(t *testing.T) {
	d, err := Unmarshal([]byte(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
}

func TestUnmarshalNestedObjectsBecomeDicts(t *testing.T) {
	d, err := Unmarshal([]byte(`{"user": {"tags": [{"k": "v"}], "meta": {"active": true}}}`))
	require.NoError(t, err)

	user := d.MustGet("user").(*Dict)
	meta := user.MustGet("meta").(*Dict)
	assert.Equal(t, true, meta.MustGet("active"))

	tags := user.MustGet("tags").([]any)
	inner, ok := tags[0].(*Dict)
	require.True(t, ok, "objects inside arrays are converted bottom-up")
	assert.Equal(t, "v", inner.MustGet("k"))
}

func TestUnmarshalNumbers(t *testing.T) {
	d, err := Unmarshal([]byte(`{"int": 42, "neg": -7, "float": 1.5, "exp": 2e3, "intish": 1.0}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.MustGet("int"))
	assert.Equal(t, int64(-7), d.MustGet("neg"))
	assert.Equal(t, 1.5, d.MustGet("float"))
	assert.Equal(t, 2000.0, d.MustGet("exp"))
	assert.Equal(t, 1.0, d.MustGet("intish"), "1.0 stays a float even though it is integral")
}

func TestUnmarshalNullAndChaining(t *testing.T) {
	d, err := Unmarshal([]byte(`{"nickname": null}`))
	require.NoError(t, err)

	v, err := d.Get("nickname")
	require.NoError(t, err)
	assert.Nil(t, v)

	p := d.Attr("nickname").(*Dict)
	assert.True(t, p.FromNone())
}

func TestUnmarshalDuplicateKeyLastWins(t *testing.T) {
	d, err := Unmarshal([]byte(`{"k": 1, "k": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, int64(2), d.MustGet("k"))
}

func TestUnmarshalRejectsNonObjectRoot(t *testing.T) {
	for _, doc := range []string{`[1,2]`, `"str"`, `42`, `null`, `true`} {
		_, err := Unmarshal([]byte(doc))
		require.Error(t, err, doc)
		assert.Equal(t, ErrType, CodeOf(err), doc)
	}
}

func TestUnmarshalRejectsTrailingContent(t *testing.T) {
	_, err := Unmarshal([]byte(`{"a": 1} {"b": 2}`))
	require.Error(t, err)
	assert.Equal(t, ErrType, CodeOf(err))
}

func TestUnmarshalSyntaxErrorSurfaces(t *testing.T) {
	_, err := Unmarshal([]byte(`{"a": `))
	assert.Error(t, err)
}

func TestDecodeReader(t *testing.T) {
	d, err := Decode(strings.NewReader(`{"from": "reader"}`))
	require.NoError(t, err)
	assert.Equal(t, "reader", d.MustGet("from"))
}

func TestUnmarshalJSONC(t *testing.T) {
	doc := `{
		// display name
		"name": "Alice",
		"ports": [80, 443], // forwarded
	}`
	d, err := UnmarshalJSONC([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Alice", d.MustGet("name"))
	assert.Equal(t, []any{int64(80), int64(443)}, d.MustGet("ports"))
}

func TestMarshalPreservesOrder(t *testing.T) {
	d := New(Entry{Key: "z", Value: 1}, Entry{Key: "a", Value: "two"}, Entry{Key: "m", Value: nil})
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"two","m":null}`, string(out))
}

func TestMarshalNested(t *testing.T) {
	d := FromMap(map[string]any{"outer": map[string]any{"inner": []any{1, 2}}})
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outer":{"inner":[1,2]}}`, string(out))
}

func TestMarshalPlaceholderAsEmptyObject(t *testing.T) {
	p := FromMap(map[string]any{"a": nil}).Attr("a").(*Dict)
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out), "protection flags are not serializable state")
}

func TestJSONRoundTrip(t *testing.T) {
	doc := `{"a":{"b":[1,{"c":null}]},"d":"x"}`
	d, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, doc, string(out))
}

func TestUnmarshalJSONMethod(t *testing.T) {
	var d Dict
	require.NoError(t, json.Unmarshal([]byte(`{"k": "v"}`), &d))
	assert.Equal(t, "v", d.MustGet("k"))

	type wrapper struct {
		Cfg *Dict `json:"cfg"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"cfg": {"x": 1}}`), &w))
	assert.Equal(t, int64(1), w.Cfg.MustGet("x"))
}
