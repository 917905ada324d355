package bindkit_test

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
)

func celsiusRegistry(offset float64) *bindkit.Registry {
	b := bindkit.NewBuilder()
	bindkit.RegisterFactory[celsius](b, offsetFactory{offset: offset})
	return b.MustBuild()
}

func TestRegistry_DelegatePrecedence(t *testing.T) {
	first, second := celsiusRegistry(100), celsiusRegistry(200)
	reg := newRegistry(func(b *bindkit.Builder) { b.AddDelegate(first).AddDelegate(second) })

	got, err := bindkit.Transform[celsius](reg, 1.5)
	require.NoError(t, err)
	assert.Equal(t, celsius(201.5), got)
}

func TestRegistry_LocalBeatsDelegate(t *testing.T) {
	reg := newRegistry(func(b *bindkit.Builder) {
		b.AddDelegate(celsiusRegistry(100))
		bindkit.RegisterFactory[celsius](b, offsetFactory{offset: 1})
	})
	got, err := bindkit.Transform[celsius](reg, 1.0)
	require.NoError(t, err)
	assert.Equal(t, celsius(2), got)
}

func TestRegistry_WildcardResolvesBound(t *testing.T) {
	reg := newRegistry()
	assert.NotNil(t, reg.LookupFactory(bindkit.Wildcard(bindkit.TypeOf[point]())))
	assert.Nil(t, reg.LookupFactory(bindkit.TypeOf[celsius]()))
}

func TestRegistry_LogsDelegateResolution(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := newRegistry(func(b *bindkit.Builder) {
		b.WithLogger(logger).AddDelegate(celsiusRegistry(0))
	})

	require.NotNil(t, reg.LookupFactory(bindkit.TypeOf[celsius]()))
	assert.Contains(t, buf.String(), "delegate resolved")
	assert.Contains(t, buf.String(), "bindkit_test.celsius")
}

// lateResolver starts resolving celsius only once ready is set.
type lateResolver struct{ ready atomic.Bool }

func (r *lateResolver) LookupFactory(t bindkit.TypeDesc) bindkit.Factory {
	if r.ready.Load() && t == bindkit.TypeOf[celsius]() {
		return bindkit.EraseFactory[celsius](offsetFactory{offset: 10})
	}
	return nil
}

func (r *lateResolver) LookupProducer(bindkit.TypeDesc) bindkit.Producer { return nil }

func TestRegistry_MissIsNotCached(t *testing.T) {
	late := &lateResolver{}
	reg := newRegistry(func(b *bindkit.Builder) { b.AddDelegate(late) })

	assert.Nil(t, reg.LookupFactory(bindkit.TypeOf[celsius]()))
	_, err := bindkit.Transform[celsius](reg, 1.0)
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)

	late.ready.Store(true)
	require.NotNil(t, reg.LookupFactory(bindkit.TypeOf[celsius]()))
	got, err := bindkit.Transform[celsius](reg, 1.0)
	require.NoError(t, err)
	assert.Equal(t, celsius(11), got)

	// A hit is cached even if the delegate stops answering.
	late.ready.Store(false)
	assert.NotNil(t, reg.LookupFactory(bindkit.TypeOf[celsius]()))
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg := newRegistry(func(b *bindkit.Builder) { b.AddDelegate(celsiusRegistry(0)) })
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := bindkit.Transform[celsius](reg, float64(j))
				if assert.NoError(t, err) {
					assert.Equal(t, celsius(j), got)
				}
			}
		}()
	}
	wg.Wait()
}

func TestBuilder_Errors(t *testing.T) {
	b := bindkit.NewBuilder()
	b.AddDelegate(nil)
	b.RegisterKind(bindkit.KindString, bindkit.PrimitiveFunc(nil))
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil delegate")
	assert.Contains(t, err.Error(), "not a primitive kind")

	b = bindkit.NewBuilder()
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	require.Error(t, err)
}

func TestBuilder_DelegateAfterBuild(t *testing.T) {
	b := bindkit.NewBuilder()
	reg, err := b.Build()
	require.NoError(t, err)

	b.AddDelegate(reg)
	_, err = b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "builder already built")
}

func TestBuilder_RegisterKindOverride(t *testing.T) {
	clamp := bindkit.PrimitiveFunc(func(ctx *bindkit.Context, s bindkit.Scalar) (bindkit.Scalar, error) {
		wide, err := bindkit.Narrow(ctx, bindkit.KindLong, s)
		if err != nil {
			return bindkit.Scalar{}, err
		}
		v := min(max(wide.LongValue(), -1<<31), 1<<31-1)
		return bindkit.Int(int32(v)), nil
	})
	reg := newRegistry(func(b *bindkit.Builder) { b.RegisterKind(bindkit.KindInt, clamp) })

	got, err := bindkit.Transform[[]int32](reg, []int64{1 << 40, -1 << 40, 5})
	require.NoError(t, err)
	assert.Equal(t, []int32{1<<31 - 1, -1 << 31, 5}, got)
}
