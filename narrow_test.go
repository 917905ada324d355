package bindkit_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
)

func newCtx(t *testing.T) *bindkit.Context {
	t.Helper()
	return bindkit.NewBuilder().MustBuild().NewContext(bindkit.TypeOf[any]())
}

var kindRange = map[bindkit.Kind][2]float64{
	bindkit.KindByte:   {math.MinInt8, math.MaxInt8},
	bindkit.KindShort:  {math.MinInt16, math.MaxInt16},
	bindkit.KindChar:   {0, math.MaxUint16},
	bindkit.KindInt:    {math.MinInt32, math.MaxInt32},
	bindkit.KindLong:   {math.MinInt64, math.MaxInt64},
	bindkit.KindFloat:  {-math.MaxFloat32, math.MaxFloat32},
	bindkit.KindDouble: {-math.MaxFloat64, math.MaxFloat64},
}

// inexact reports whether x cannot be held exactly by a float32.
func inexact(k bindkit.Kind, x int64) bool {
	return k == bindkit.KindFloat && (x > 1<<24 || x < -(1<<24))
}

// Every integer sample is exactly representable in every kind that can hold
// it, so narrowing must round-trip or fail with an overflow.
func TestNarrow_WidenThenNarrow(t *testing.T) {
	samples := []int64{0, 1, -1, 65, 127, 128, -129, 255, 32767, 32768, -32769, 65535, 65536, math.MaxInt32, math.MinInt32 - 1}
	ctx := newCtx(t)
	for _, x := range samples {
		for k1, r1 := range kindRange {
			if float64(x) < r1[0] || float64(x) > r1[1] || inexact(k1, x) {
				continue
			}
			wide, err := bindkit.Narrow(ctx, k1, bindkit.Long(x))
			require.NoError(t, err, "widen %d to %s", x, k1)
			for k2, r2 := range kindRange {
				got, err := bindkit.Narrow(ctx, k2, wide)
				if inexact(k2, x) {
					continue
				}
				fits := float64(x) >= r2[0] && float64(x) <= r2[1]
				if !fits {
					require.Error(t, err, "%d %s->%s", x, k1, k2)
					assert.True(t, errors.Is(err, bindkit.ErrUnsupportedType))
					continue
				}
				require.NoError(t, err, "%d %s->%s", x, k1, k2)
				back, err := bindkit.Narrow(ctx, bindkit.KindLong, got)
				require.NoError(t, err)
				assert.Equal(t, x, back.LongValue(), "%d %s->%s", x, k1, k2)
			}
		}
	}
}

func TestNarrow_Policy(t *testing.T) {
	ctx := newCtx(t)

	got, err := bindkit.Narrow(ctx, bindkit.KindInt, bindkit.Double(42))
	require.NoError(t, err)
	assert.Equal(t, int32(42), got.IntValue())

	_, err = bindkit.Narrow(ctx, bindkit.KindInt, bindkit.Double(1.5))
	require.Error(t, err)

	got, err = bindkit.Narrow(ctx, bindkit.KindFloat, bindkit.Double(0.1))
	require.NoError(t, err)
	assert.Equal(t, float32(0.1), got.FloatValue())

	_, err = bindkit.Narrow(ctx, bindkit.KindFloat, bindkit.Double(1e300))
	require.Error(t, err)

	got, err = bindkit.Narrow(ctx, bindkit.KindChar, bindkit.String("A"))
	require.NoError(t, err)
	assert.Equal(t, uint16('A'), got.CharValue())

	_, err = bindkit.Narrow(ctx, bindkit.KindChar, bindkit.String("😀"))
	require.Error(t, err)

	got, err = bindkit.Narrow(ctx, bindkit.KindShort, bindkit.String("0x10"))
	require.NoError(t, err)
	assert.Equal(t, int16(16), got.ShortValue())

	got, err = bindkit.Narrow(ctx, bindkit.KindLong, bindkit.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LongValue())

	got, err = bindkit.Narrow(ctx, bindkit.KindBool, bindkit.Int(0))
	require.NoError(t, err)
	assert.False(t, got.BoolValue())

	_, err = bindkit.Narrow(ctx, bindkit.KindBool, bindkit.Int(2))
	require.Error(t, err)

	_, err = bindkit.Narrow(ctx, bindkit.KindInt, bindkit.Null())
	require.Error(t, err)

	got, err = bindkit.Narrow(ctx, bindkit.KindLong, bindkit.Decimal(apd.New(1200, -2)))
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.LongValue())

	_, err = bindkit.Narrow(ctx, bindkit.KindLong, bindkit.BigInt(new(big.Int).Lsh(big.NewInt(1), 64)))
	var ute *bindkit.UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, bindkit.CodeOverflow, ute.Code)
}

func TestNarrow_FloatOverflowFromExactKinds(t *testing.T) {
	ctx := newCtx(t)
	huge := []bindkit.Scalar{
		bindkit.Decimal(apd.New(1, 400)),
		bindkit.Decimal(apd.New(-1, 400)),
		bindkit.BigInt(new(big.Int).Lsh(big.NewInt(1), 2000)),
	}
	for _, s := range huge {
		for _, k := range []bindkit.Kind{bindkit.KindFloat, bindkit.KindDouble} {
			_, err := bindkit.Narrow(ctx, k, s)
			var ute *bindkit.UnsupportedTypeError
			require.ErrorAs(t, err, &ute, "%s -> %s", s.Kind(), k)
			assert.Equal(t, bindkit.CodeOverflow, ute.Code)
		}
	}

	got, err := bindkit.Narrow(ctx, bindkit.KindFloat, bindkit.Double(math.Inf(-1)))
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(got.FloatValue()), -1))
}
