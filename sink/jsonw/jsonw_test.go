package jsonw_test

import (
	"bytes"
	"math"
	"math/big"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/json5"
	"github.com/reoring/bindkit/record"
	"github.com/reoring/bindkit/sink/jsonw"
)

type point struct {
	X, Y int32
	Tag  string
}

func registry(t *testing.T) *bindkit.Registry {
	t.Helper()
	b := bindkit.NewBuilder()
	record.Of[point]().
		Field("x", record.Ref(func(p *point) *int32 { return &p.X })).
		Field("y", record.Ref(func(p *point) *int32 { return &p.Y })).
		Field("tag", record.Ref(func(p *point) *string { return &p.Tag })).
		Register(b)
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func TestMarshal_Compact(t *testing.T) {
	reg := registry(t)
	out, err := jsonw.Marshal(reg, map[string]any{
		"p":    point{X: 1, Y: -2, Tag: "a\"b<"},
		"list": []any{nil, true, 1.5, "x"},
		"big":  new(big.Int).Lsh(big.NewInt(1), 70),
		"dec":  apd.New(125, -2),
		"none": map[string]any{},
	}, jsonw.Options{})
	require.NoError(t, err)
	assert.Equal(t,
		`{"big":1180591620717411303424,"dec":1.25,"list":[null,true,1.5,"x"],"none":{},"p":{"x":1,"y":-2,"tag":"a\"b<"}}`,
		string(out))
}

func TestMarshal_Indent(t *testing.T) {
	reg := registry(t)
	out, err := jsonw.Marshal(reg, []any{point{X: 1}, []any{}}, jsonw.Options{Indent: "  "})
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "x": 1,
    "y": 0,
    "tag": ""
  },
  []
]`, string(out))
}

func TestMarshal_EscapeHTML(t *testing.T) {
	out, err := jsonw.Marshal(nil, "<&>", jsonw.Options{EscapeHTML: true})
	require.NoError(t, err)
	assert.Equal(t, `"\u003c\u0026\u003e"`, string(out))
}

func TestMarshal_NonFinite(t *testing.T) {
	_, err := jsonw.Marshal(nil, []float64{1, math.Inf(1)}, jsonw.Options{})
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)
}

func TestWriter_FromJSON5(t *testing.T) {
	reg := registry(t)
	var buf bytes.Buffer
	w := jsonw.NewWriter(&buf, reg, jsonw.Options{})
	for _, doc := range []string{`{a: 0x10, b: [+1, .5]}`, `'two'`} {
		require.NoError(t, json5.ParseString(doc, json5.NewSinkVisitor(w.Sink()), json5.Options{}))
		require.NoError(t, w.Newline())
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, "{\"a\":16,\"b\":[1,0.5]}\n\"two\"\n", buf.String())
}
