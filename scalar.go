package bindkit

import (
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Scalar is an immutable tagged value pushed through Sink.Scalar.
type Scalar struct {
	kind Kind
	bits uint64
	str  string
	big  *big.Int
	dec  *apd.Decimal
}

func Null() Scalar           { return Scalar{kind: KindNull} }
func String(s string) Scalar { return Scalar{kind: KindString, str: s} }
func Byte(v int8) Scalar     { return Scalar{kind: KindByte, bits: uint64(int64(v))} }
func Short(v int16) Scalar   { return Scalar{kind: KindShort, bits: uint64(int64(v))} }
func Char(v uint16) Scalar   { return Scalar{kind: KindChar, bits: uint64(v)} }
func Int(v int32) Scalar     { return Scalar{kind: KindInt, bits: uint64(int64(v))} }
func Long(v int64) Scalar    { return Scalar{kind: KindLong, bits: uint64(v)} }

func Bool(v bool) Scalar {
	if v {
		return Scalar{kind: KindBool, bits: 1}
	}
	return Scalar{kind: KindBool}
}

func Float(v float32) Scalar  { return Scalar{kind: KindFloat, bits: uint64(math.Float32bits(v))} }
func Double(v float64) Scalar { return Scalar{kind: KindDouble, bits: math.Float64bits(v)} }

// BigInt wraps v; a nil v yields Null.
func BigInt(v *big.Int) Scalar {
	if v == nil {
		return Null()
	}
	return Scalar{kind: KindBigInt, big: v}
}

// Decimal wraps v; a nil v yields Null.
func Decimal(v *apd.Decimal) Scalar {
	if v == nil {
		return Null()
	}
	return Scalar{kind: KindDecimal, dec: v}
}

func (s Scalar) Kind() Kind   { return s.kind }
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// The typed accessors return the zero value when the kind does not match.

func (s Scalar) BoolValue() bool     { return s.kind == KindBool && s.bits != 0 }
func (s Scalar) ByteValue() int8     { return int8(s.intBits(KindByte)) }
func (s Scalar) ShortValue() int16   { return int16(s.intBits(KindShort)) }
func (s Scalar) CharValue() uint16   { return uint16(s.intBits(KindChar)) }
func (s Scalar) IntValue() int32     { return int32(s.intBits(KindInt)) }
func (s Scalar) LongValue() int64    { return s.intBits(KindLong) }
func (s Scalar) StringValue() string { return s.str }

func (s Scalar) FloatValue() float32 {
	if s.kind != KindFloat {
		return 0
	}
	return math.Float32frombits(uint32(s.bits))
}

func (s Scalar) DoubleValue() float64 {
	if s.kind != KindDouble {
		return 0
	}
	return math.Float64frombits(s.bits)
}

func (s Scalar) BigIntValue() *big.Int      { return s.big }
func (s Scalar) DecimalValue() *apd.Decimal { return s.dec }

func (s Scalar) intBits(k Kind) int64 {
	if s.kind != k {
		return 0
	}
	return int64(s.bits)
}

// isInteger reports whether the kind is one of the fixed-width integer kinds.
func (s Scalar) isInteger() bool {
	switch s.kind {
	case KindByte, KindShort, KindChar, KindInt, KindLong:
		return true
	}
	return false
}

// Interface returns the natural Go value of s: nil, bool, int8, int16,
// uint16, int32, int64, float32, float64, string, *big.Int or *apd.Decimal.
func (s Scalar) Interface() any {
	switch s.kind {
	case KindBool:
		return s.BoolValue()
	case KindByte:
		return s.ByteValue()
	case KindShort:
		return s.ShortValue()
	case KindChar:
		return s.CharValue()
	case KindInt:
		return s.IntValue()
	case KindLong:
		return s.LongValue()
	case KindFloat:
		return s.FloatValue()
	case KindDouble:
		return s.DoubleValue()
	case KindString:
		return s.str
	case KindBigInt:
		return s.big
	case KindDecimal:
		return s.dec
	}
	return nil
}

// Text renders s the way a JSON writer would (strings are not quoted).
func (s Scalar) Text() string {
	switch s.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(s.BoolValue())
	case KindByte, KindShort, KindInt, KindLong:
		return strconv.FormatInt(int64(s.bits), 10)
	case KindChar:
		return strconv.FormatUint(s.bits, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(s.FloatValue()), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(s.DoubleValue(), 'g', -1, 64)
	case KindString:
		return s.str
	case KindBigInt:
		return s.big.String()
	case KindDecimal:
		return s.dec.String()
	}
	return ""
}

func (s Scalar) String() string {
	if s.kind == KindString {
		return strconv.Quote(s.str)
	}
	return s.Text()
}

// ScalarOf converts a Go scalar into a Scalar. It reports false for values
// that need a registered producer (structs, slices, maps, named types...).
func ScalarOf(v any) (Scalar, bool) {
	switch t := v.(type) {
	case nil:
		return Null(), true
	case bool:
		return Bool(t), true
	case int8:
		return Byte(t), true
	case int16:
		return Short(t), true
	case uint16:
		return Char(t), true
	case int32:
		return Int(t), true
	case int64:
		return Long(t), true
	case int:
		return Long(int64(t)), true
	case float32:
		return Float(t), true
	case float64:
		return Double(t), true
	case string:
		return String(t), true
	case *big.Int:
		return BigInt(t), true
	case *apd.Decimal:
		return Decimal(t), true
	case Scalar:
		return t, true
	}
	return Scalar{}, false
}
