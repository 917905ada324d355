package bindkit

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// Narrow converts s into primitive kind k. Integer kinds are exact: the value
// must be integral and in range. Floating kinds take the nearest
// representable value and fail only when the magnitude is out of range.
// Strings are parsed; a char additionally accepts a single UTF-16 code unit.
func Narrow(ctx *Context, k Kind, s Scalar) (Scalar, error) {
	if s.kind == k {
		return s, nil
	}
	switch s.kind {
	case KindNull:
		return Scalar{}, ctx.UnsupportedType("null cannot be converted to %s", k)
	case KindString:
		return narrowString(ctx, k, s)
	}
	switch k {
	case KindBool:
		return narrowBool(ctx, s)
	case KindFloat, KindDouble:
		f, ok := floatOf(s)
		if !ok {
			break
		}
		infinite := math.IsInf(f, 0)
		if infinite && finite(s) {
			return Scalar{}, ctx.Overflow(s, k)
		}
		if k == KindDouble {
			return Double(f), nil
		}
		if !infinite && math.Abs(f) > math.MaxFloat32 {
			return Scalar{}, ctx.Overflow(s, k)
		}
		return Float(float32(f)), nil
	default:
		n, ok := intOf(s)
		if !ok {
			if _, isNum := floatOf(s); isNum {
				return Scalar{}, ctx.Overflow(s, k)
			}
			break
		}
		if !n.IsInt64() {
			return Scalar{}, ctx.Overflow(s, k)
		}
		return fitInt(ctx, k, n.Int64(), s)
	}
	return Scalar{}, ctx.UnsupportedType("%s value cannot be converted to %s", s.kind, k)
}

var intRanges = map[Kind][2]int64{
	KindByte:  {math.MinInt8, math.MaxInt8},
	KindShort: {math.MinInt16, math.MaxInt16},
	KindChar:  {0, math.MaxUint16},
	KindInt:   {math.MinInt32, math.MaxInt32},
	KindLong:  {math.MinInt64, math.MaxInt64},
}

func fitInt(ctx *Context, k Kind, v int64, src Scalar) (Scalar, error) {
	r := intRanges[k]
	if v < r[0] || v > r[1] {
		return Scalar{}, ctx.Overflow(src, k)
	}
	switch k {
	case KindByte:
		return Byte(int8(v)), nil
	case KindShort:
		return Short(int16(v)), nil
	case KindChar:
		return Char(uint16(v)), nil
	case KindInt:
		return Int(int32(v)), nil
	}
	return Long(v), nil
}

func narrowBool(ctx *Context, s Scalar) (Scalar, error) {
	if s.isInteger() {
		switch int64(s.bits) {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		}
		return Scalar{}, ctx.Overflow(s, KindBool)
	}
	return Scalar{}, ctx.UnsupportedType("%s value cannot be converted to bool", s.kind)
}

func narrowString(ctx *Context, k Kind, s Scalar) (Scalar, error) {
	text := strings.TrimSpace(s.str)
	switch k {
	case KindBool:
		if b, err := strconv.ParseBool(text); err == nil {
			return Bool(b), nil
		}
	case KindChar:
		if r, size := utf8.DecodeRuneInString(s.str); size == len(s.str) && size > 0 && (0 <= r && r < 0xd800 || 0xe000 <= r && r < 0x10000) && r != utf8.RuneError {
			return Char(uint16(r)), nil
		}
	case KindFloat, KindDouble:
		bits := 64
		if k == KindFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err == nil {
			if k == KindFloat {
				return Float(float32(f)), nil
			}
			return Double(f), nil
		}
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Scalar{}, ctx.Overflow(s, k)
		}
	default:
		if n, ok := new(big.Int).SetString(text, 0); ok {
			if !n.IsInt64() {
				return Scalar{}, ctx.Overflow(s, k)
			}
			return fitInt(ctx, k, n.Int64(), s)
		}
		if d, _, err := apd.NewFromString(text); err == nil {
			return Narrow(ctx, k, Decimal(d))
		}
	}
	return Scalar{}, ctx.UnsupportedType("string %q cannot be converted to %s", s.str, k)
}

// intOf returns the exact integer value of a numeric or bool scalar.
func intOf(s Scalar) (*big.Int, bool) {
	switch {
	case s.isInteger():
		if s.kind == KindChar {
			return new(big.Int).SetUint64(s.bits), true
		}
		return big.NewInt(int64(s.bits)), true
	}
	switch s.kind {
	case KindBool:
		return big.NewInt(int64(s.bits)), true
	case KindBigInt:
		return s.big, true
	case KindFloat, KindDouble:
		f, _ := floatOf(s)
		if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
			return nil, false
		}
		n, _ := big.NewFloat(f).Int(nil)
		return n, true
	case KindDecimal:
		return decimalInt(s.dec)
	}
	return nil, false
}

// decimalInt returns d as an integer when it has no fractional part.
func decimalInt(d *apd.Decimal) (*big.Int, bool) {
	if d.Form != apd.Finite {
		return nil, false
	}
	n := d.Coeff.MathBigInt()
	e := int64(d.Exponent)
	if e > 40 || e < -400 {
		// Far outside any fixed-width integer; zero is the only integral
		// value reachable with such an exponent.
		if n.Sign() == 0 {
			return n, true
		}
		return nil, false
	}
	switch p := new(big.Int).Exp(big.NewInt(10), big.NewInt(abs64(e)), nil); {
	case e > 0:
		n.Mul(n, p)
	case e < 0:
		var rem big.Int
		n.QuoRem(n, p, &rem)
		if rem.Sign() != 0 {
			return nil, false
		}
	}
	if d.Negative {
		n.Neg(n)
	}
	return n, true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// finite reports whether s holds a finite number. Only floating kinds and
// decimals can hold NaN or an infinity.
func finite(s Scalar) bool {
	switch s.kind {
	case KindFloat, KindDouble:
		f, _ := floatOf(s)
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	case KindDecimal:
		return s.dec.Form == apd.Finite
	}
	return true
}

// floatOf returns the nearest float64 of a numeric or bool scalar.
func floatOf(s Scalar) (float64, bool) {
	switch s.kind {
	case KindFloat:
		return float64(s.FloatValue()), true
	case KindDouble:
		return s.DoubleValue(), true
	case KindChar:
		return float64(s.bits), true
	case KindByte, KindShort, KindInt, KindLong:
		return float64(int64(s.bits)), true
	case KindBool:
		return float64(s.bits), true
	case KindBigInt:
		f, _ := new(big.Float).SetInt(s.big).Float64()
		return f, true
	case KindDecimal:
		f, err := s.dec.Float64()
		return f, err == nil || math.IsInf(f, 0)
	}
	return 0, false
}

// defaultPrimitive is the factory installed in every primitive slot.
type defaultPrimitive Kind

func (k defaultPrimitive) Create(ctx *Context, s Scalar) (Scalar, error) {
	return Narrow(ctx, Kind(k), s)
}
