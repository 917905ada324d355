package json5_test

import (
	"errors"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/json5"
)

// onlyA accepts objects with the single member "a".
type onlyA struct{ A int64 }

type onlyAAdapter struct{ bindkit.Unsupported[onlyA] }

func (onlyAAdapter) CreateObject(*bindkit.Context) (bindkit.ObjectBuilderOf[onlyA], error) {
	return &onlyABuilder{}, nil
}

func (onlyAAdapter) Produce(v onlyA, s bindkit.Sink) error {
	obj, err := s.Object()
	if err != nil {
		return err
	}
	m, err := obj.Put("a")
	if err != nil {
		return err
	}
	if err := m.Scalar(bindkit.Long(v.A)); err != nil {
		return err
	}
	return obj.End()
}

type onlyABuilder struct{ v onlyA }

func (b *onlyABuilder) Put(key string, ctx *bindkit.Context) (bindkit.Sink, error) {
	if key != "a" {
		return nil, ctx.UnknownKey()
	}
	return bindkit.SinkFor(ctx, func(n int64) error { b.v.A = n; return nil })
}

func (b *onlyABuilder) Build() (onlyA, error) { return b.v, nil }

func registry(t *testing.T) *bindkit.Registry {
	t.Helper()
	b := bindkit.NewBuilder()
	bindkit.Register[onlyA](b, onlyAAdapter{})
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func TestBind_Dynamic(t *testing.T) {
	v, err := json5.BindString[any](registry(t), `{True:true,False:false,Null:null, list: [1, 'two', 3.0]}`, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"True":  true,
		"False": false,
		"Null":  nil,
		"list":  []any{int64(1), "two", float64(3)},
	}, v)
}

func TestBind_UnknownKey(t *testing.T) {
	_, err := json5.BindString[onlyA](registry(t), `{"a":1,"z":2}`, json5.Options{})
	require.Error(t, err)
	var uk *bindkit.UnknownKeyError
	require.ErrorAs(t, err, &uk)
	assert.Equal(t, "z", uk.Key)
	assert.ErrorIs(t, err, bindkit.ErrUnsupportedType)
	assert.True(t, strings.HasPrefix(err.Error(), "input:1: Unknown key 'z'"))

	v, err := json5.BindString[onlyA](registry(t), `{a: 7}`, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, onlyA{A: 7}, v)
}

func TestBind_NumbersIntoTargets(t *testing.T) {
	reg := registry(t)

	fs, err := json5.BindString[[]float64](reg, `[0x10, +1, .5, 5., -Infinity, NaN, 9.007199254740993e15]`, json5.Options{})
	require.NoError(t, err)
	require.Len(t, fs, 7)
	assert.Equal(t, []float64{16, 1, 0.5, 5}, fs[:4])
	assert.True(t, math.IsInf(fs[4], -1))
	assert.True(t, math.IsNaN(fs[5]))
	assert.Equal(t, 9.007199254740992e15, fs[6])

	is, err := json5.BindString[[]int32](reg, `[99, 98, 97]`, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int32{99, 98, 97}, is)

	_, err = json5.BindString[[]int32](reg, "[1,\n3000000000]", json5.Options{})
	var ute *bindkit.UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, bindkit.CodeOverflow, ute.Code)
	assert.Equal(t, "/1", ute.Location.Pointer())
	assert.True(t, strings.HasPrefix(err.Error(), "input:2: "))

	_, err = json5.BindString[float64](reg, `1e400`, json5.Options{})
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, bindkit.CodeOverflow, ute.Code)

	n, err := json5.BindString[*big.Int](reg, `123456789012345678901234567890`, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", n.String())

	d, err := json5.BindString[*apd.Decimal](reg, `1.5`, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, "1.5", d.String())
}

func TestBind_Strings(t *testing.T) {
	reg := registry(t)
	cases := map[string]string{
		`'\x41\u00e9\uD83D\uDE00\0\v'`: "A\u00e9\U0001F600\x00\v",
		"'a\\\nb'":                     "ab",
		"\"a\\\r\nb\"":                 "ab",
		`"\q\"\'"`:                     `q"'`,
		`'\uDE00'`:                     "\uFFFD",
		"\"\xff\"":                     "\uFFFD",
		"\uFEFF\u00a0 'x' \u2029":      "x",
		"'\u2028'":                     "\u2028",
	}
	for in, want := range cases {
		got, err := json5.BindString[string](reg, in, json5.Options{})
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBind_ShapeMismatch(t *testing.T) {
	_, err := json5.BindString[[]int64](registry(t), `{"a":1}`, json5.Options{})
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "object cannot be converted")
}

func TestBind_Duplicates(t *testing.T) {
	reg := registry(t)
	_, err := json5.BindString[map[string]any](reg, `{a:1, a:2}`, json5.Options{Duplicates: bindkit.Error})
	require.Error(t, err)
	iss, ok := bindkit.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, bindkit.CodeDuplicateKey, iss[0].Code)

	var warned []bindkit.Issue
	v, err := json5.BindString[map[string]any](reg, `{a:1, a:2}`, json5.Options{
		Duplicates: bindkit.Warn,
		OnIssue:    func(i bindkit.Issue) { warned = append(warned, i) },
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(2)}, v)
	require.Len(t, warned, 1)
	assert.Equal(t, bindkit.CodeDuplicateKey, warned[0].Code)
}

func TestBind_File(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json5")
	require.NoError(t, os.WriteFile(good, []byte("// config\n{a: 42,}\n"), 0o600))
	v, err := json5.BindFile[onlyA](registry(t), good, json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, onlyA{A: 42}, v)

	bad := filepath.Join(dir, "bad.json5")
	require.NoError(t, os.WriteFile(bad, []byte("{\n  a: [1, 2}\n"), 0o600))
	_, err = json5.BindFile[any](registry(t), bad, json5.Options{})
	var pe *json5.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t,
		bad+":2: Expected ']' to match with '[' on line 2\n"+
			"  a: [1, 2}\n"+
			"          ^\n"+
			"location: /a/1",
		pe.Error())

	_, err = json5.BindFile[any](registry(t), filepath.Join(dir, "missing.json5"), json5.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBind_Reader(t *testing.T) {
	v, err := json5.BindReader[[]string](registry(t), strings.NewReader(`['a', "b", c]`), json5.Options{})
	require.Error(t, err)
	assert.Nil(t, v)

	v, err = json5.BindReader[[]string](registry(t), strings.NewReader(`['a', "b", 1]`), json5.Options{BufferSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "1"}, v)

	out, err := json5.Bind(registry(t), bindkit.TypeOf[onlyA](), strings.NewReader(`{a:1}`), json5.Options{})
	require.NoError(t, err)
	assert.Equal(t, onlyA{A: 1}, out)
}

func TestSinkVisitor_OpenFramesAtEndAreInternal(t *testing.T) {
	reg := registry(t)
	s, err := reg.RootSink(bindkit.TypeOf[[]any](), func(any) error { return nil })
	require.NoError(t, err)
	v := json5.NewSinkVisitor(s)
	require.NoError(t, v.StartArray(json5.Pos{}))
	err = v.EndOfStream(json5.Pos{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bindkit.ErrInternal))
	var pe *json5.ParseError
	assert.False(t, errors.As(err, &pe))
}
