package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestJSONRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	rec := values.NewRecord()
	r := rec.Data.(*values.Record)
	r.Set("name", values.NewString("soc"))
	r.Set("tags", vecOf(values.NewString("a"), values.NewString("b")))

	encoded, err := call(t, reg, ctx, "json_stringify", rec)
	require.NoError(t, err)

	decoded, err := call(t, reg, ctx, "json_parse", encoded)
	require.NoError(t, err)

	decodedRec := decoded.Data.(*values.Record)
	name, ok := decodedRec.Get("name")
	require.True(t, ok)
	assert.Equal(t, "soc", name.AsString())

	tags, ok := decodedRec.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, strVals(tags))
}

func TestCSVRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	rows := vecOf(
		vecOf(values.NewString("a"), values.NewString("1")),
		vecOf(values.NewString("b"), values.NewString("2")),
	)
	csvText, err := call(t, reg, ctx, "csv_stringify", rows)
	require.NoError(t, err)

	parsed, err := call(t, reg, ctx, "csv_parse", csvText)
	require.NoError(t, err)
	parsedRows := parsed.Data.(*values.Vector).Elements
	require.Len(t, parsedRows, 2)
	assert.Equal(t, []string{"b", "2"}, strVals(parsedRows[1]))
}

func strVals(v *values.Value) []string {
	vec := v.Data.(*values.Vector)
	out := make([]string, len(vec.Elements))
	for i, e := range vec.Elements {
		out[i] = e.AsString()
	}
	return out
}
