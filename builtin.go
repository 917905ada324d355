package bindkit

import (
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

func registerBuiltins(b *Builder) {
	registerPrimitive(b, KindBool, Scalar.BoolValue)
	registerPrimitive(b, KindByte, Scalar.ByteValue)
	registerPrimitive(b, KindShort, Scalar.ShortValue)
	registerPrimitive(b, KindChar, Scalar.CharValue)
	registerPrimitive(b, KindInt, Scalar.IntValue)
	registerPrimitive(b, KindLong, Scalar.LongValue)
	registerPrimitive(b, KindLong, func(s Scalar) int { return int(s.LongValue()) })
	registerPrimitive(b, KindFloat, Scalar.FloatValue)
	registerPrimitive(b, KindDouble, Scalar.DoubleValue)

	Register[string](b, stringAdapter{})
	Register[*big.Int](b, bigIntAdapter{})
	Register[*apd.Decimal](b, decimalAdapter{})
	Register[any](b, dynamicAdapter{})

	Register(b, SliceOf[any]())
	Register(b, MapOf[any]())
	Register(b, SliceOf[string]())
	Register(b, SliceOf[bool]())
	Register(b, SliceOf[int8]())
	Register(b, SliceOf[int16]())
	Register(b, SliceOf[uint16]())
	Register(b, SliceOf[int32]())
	Register(b, SliceOf[int64]())
	Register(b, SliceOf[int]())
	Register(b, SliceOf[float32]())
	Register(b, SliceOf[float64]())
}

// primitiveAdapter converts through the registry's slot for k, so
// Builder.RegisterKind also changes how Go values of that kind are built.
type primitiveAdapter[T any] struct {
	Unsupported[T]
	k   Kind
	get func(Scalar) T
}

func registerPrimitive[T any](b *Builder, k Kind, get func(Scalar) T) {
	Register[T](b, primitiveAdapter[T]{k: k, get: get})
}

func (a primitiveAdapter[T]) Create(ctx *Context, s Scalar) (T, error) {
	var zero T
	out, err := ctx.reg.prims[a.k.slot()].Create(ctx, s)
	if err != nil {
		return zero, err
	}
	if out.kind != a.k {
		return zero, internalf("%s factory returned a %s value", a.k, out.kind)
	}
	return a.get(out), nil
}

func (primitiveAdapter[T]) Produce(v T, s Sink) error {
	sc, _ := ScalarOf(v)
	return s.Scalar(sc)
}

type stringAdapter struct{ Unsupported[string] }

// Create accepts any scalar; numbers and bools use their JSON text and a
// char becomes the one-character string.
func (stringAdapter) Create(_ *Context, s Scalar) (string, error) {
	switch s.kind {
	case KindNull:
		return "", nil
	case KindChar:
		return string(rune(s.CharValue())), nil
	}
	return s.Text(), nil
}

func (stringAdapter) Produce(v string, s Sink) error { return s.Scalar(String(v)) }

type bigIntAdapter struct{ Unsupported[*big.Int] }

func (bigIntAdapter) Create(ctx *Context, s Scalar) (*big.Int, error) {
	switch s.kind {
	case KindNull:
		return nil, nil
	case KindString:
		if n, ok := new(big.Int).SetString(s.str, 0); ok {
			return n, nil
		}
	case KindBool:
	default:
		if n, ok := intOf(s); ok {
			return n, nil
		}
		if _, isNum := floatOf(s); isNum {
			return nil, ctx.UnsupportedType("%s is not an integer", s)
		}
	}
	return nil, ctx.UnsupportedType("%s value cannot be converted", s.kind)
}

func (bigIntAdapter) Produce(v *big.Int, s Sink) error { return s.Scalar(BigInt(v)) }

type decimalAdapter struct{ Unsupported[*apd.Decimal] }

func (decimalAdapter) Create(ctx *Context, s Scalar) (*apd.Decimal, error) {
	switch s.kind {
	case KindNull:
		return nil, nil
	case KindDecimal:
		return s.dec, nil
	case KindBigInt:
		return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(s.big), 0), nil
	case KindByte, KindShort, KindInt, KindLong:
		return apd.New(int64(s.bits), 0), nil
	case KindChar:
		return apd.New(int64(s.CharValue()), 0), nil
	case KindFloat, KindDouble:
		f, _ := floatOf(s)
		text := strconv.FormatFloat(f, 'g', -1, 64)
		if s.kind == KindFloat {
			text = strconv.FormatFloat(f, 'g', -1, 32)
		}
		d, _, err := apd.NewFromString(text)
		if err != nil {
			return nil, ctx.UnsupportedType("%s has no decimal form", s)
		}
		return d, nil
	case KindString:
		d, _, err := apd.NewFromString(s.str)
		if err == nil {
			return d, nil
		}
	}
	return nil, ctx.UnsupportedType("%s value cannot be converted", s.kind)
}

func (decimalAdapter) Produce(v *apd.Decimal, s Sink) error { return s.Scalar(Decimal(v)) }

// dynamicAdapter builds plain Go values for an `any` target: scalars become
// their natural Go type, objects map[string]any and arrays []any.
type dynamicAdapter struct{}

func (dynamicAdapter) Create(_ *Context, s Scalar) (any, error) { return s.Interface(), nil }

func (dynamicAdapter) CreateObject(*Context) (ObjectBuilderOf[any], error) {
	return dynamicObject{mapBuilder[any]{m: make(map[string]any)}}, nil
}

func (dynamicAdapter) CreateArray(*Context) (ArrayBuilderOf[any], error) {
	return &dynamicArray{}, nil
}

// Produce is only reached for values whose runtime type has no producer of
// its own; Sink.Value already dispatches on the runtime type.
func (dynamicAdapter) Produce(v any, s Sink) error { return s.Value(v) }

type dynamicObject struct{ mapBuilder[any] }

func (o dynamicObject) Build() (any, error) { return o.m, nil }

type dynamicArray struct{ sliceBuilder[any] }

func (a *dynamicArray) Build() (any, error) { return a.sliceBuilder.Build() }
