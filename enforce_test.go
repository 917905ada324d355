package bindkit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
)

func putTwice(t *testing.T, s bindkit.Sink) error {
	t.Helper()
	obj, err := s.Object()
	require.NoError(t, err)
	for _, v := range []int32{1, 2} {
		member, err := obj.Put("a")
		if err != nil {
			return err
		}
		require.NoError(t, member.Scalar(bindkit.Int(v)))
	}
	return obj.End()
}

func TestEnforce_DuplicateError(t *testing.T) {
	reg := newRegistry(func(b *bindkit.Builder) {
		b.WithOptions(bindkit.Options{Duplicates: bindkit.Error})
	})
	s, err := reg.RootSink(bindkit.TypeOf[map[string]any](), func(any) error { return nil })
	require.NoError(t, err)

	err = putTwice(t, s)
	iss, ok := bindkit.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, bindkit.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/a", iss[0].Path)
}

func TestEnforce_DuplicateWarn(t *testing.T) {
	var warned []bindkit.Issue
	reg := newRegistry(func(b *bindkit.Builder) {
		b.WithOptions(bindkit.Options{Duplicates: bindkit.Warn, OnIssue: func(i bindkit.Issue) { warned = append(warned, i) }})
	})
	var out any
	s, err := reg.RootSink(bindkit.TypeOf[map[string]any](), func(v any) error { out = v; return nil })
	require.NoError(t, err)

	require.NoError(t, putTwice(t, s))
	require.Len(t, warned, 1)
	assert.Equal(t, "/a", warned[0].Path)
	assert.Equal(t, map[string]any{"a": int32(2)}, out)
}

func TestEnforce_Depth(t *testing.T) {
	reg := newRegistry()
	s, err := reg.RootSink(bindkit.TypeOf[any](), func(any) error { return nil })
	require.NoError(t, err)
	s = bindkit.Enforce(reg, s, bindkit.Options{MaxDepth: 1})

	err = s.Value([]any{[]any{}})
	iss, ok := bindkit.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, bindkit.CodeDepthExceeded, iss[0].Code)
	assert.Equal(t, "/0", iss[0].Path)
}

func TestEnforce_UnregisteredValueKeepsLocation(t *testing.T) {
	reg := newRegistry(func(b *bindkit.Builder) {
		b.WithOptions(bindkit.Options{Duplicates: bindkit.Error})
	})
	s, err := reg.RootSink(bindkit.TypeOf[any](), func(any) error { return nil })
	require.NoError(t, err)

	err = s.Value(map[string]any{"list": []any{1, make(chan int)}})
	var ute *bindkit.UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "/list/1", ute.Location.Pointer())
	assert.Contains(t, err.Error(), "no producer registered for chan int")
}
