package bindkit

import (
	"fmt"
	"reflect"
)

// Kind enumerates the closed set of scalar shapes that cross the protocol
// boundary. Objects and arrays are expressed through Sink.Object/Sink.Array.
type Kind int

const (
	KindNull    Kind = iota
	KindBool         // bool
	KindByte         // int8
	KindShort        // int16
	KindChar         // uint16 code unit
	KindInt          // int32
	KindLong         // int64
	KindFloat        // float32
	KindDouble       // float64
	KindString       // string
	KindBigInt       // *big.Int
	KindDecimal      // *apd.Decimal
)

// PrimitiveKinds lists the eight kinds that own a fixed factory slot in every
// Registry.
var PrimitiveKinds = [...]Kind{KindBool, KindByte, KindShort, KindChar, KindInt, KindLong, KindFloat, KindDouble}

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBigInt:
		return "bigint"
	case KindDecimal:
		return "decimal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsPrimitive reports whether k has a fixed factory slot.
func (k Kind) IsPrimitive() bool { return k >= KindBool && k <= KindDouble }

func (k Kind) slot() int { return int(k - KindBool) }

// TypeDesc identifies a target or source type in a Registry. It wraps a
// reflect.Type used purely as an identity key, so parametrized shapes such as
// []int32 and map[string]Person are distinct descriptors. A wildcard
// descriptor stands for "some type bounded by Bound" and resolves to its bound.
type TypeDesc struct {
	typ      reflect.Type
	wildcard bool
}

// TypeOf returns the descriptor of T.
func TypeOf[T any]() TypeDesc { return TypeDesc{typ: reflect.TypeOf((*T)(nil)).Elem()} }

// DescOf returns the descriptor of a reflect.Type.
func DescOf(t reflect.Type) TypeDesc { return TypeDesc{typ: t} }

// Wildcard returns a descriptor with a single upper bound.
func Wildcard(bound TypeDesc) TypeDesc { return TypeDesc{typ: bound.typ, wildcard: true} }

// NullType is the descriptor of an untyped nil input.
var NullType = TypeDesc{}

// Type returns the underlying reflect.Type (nil for NullType).
func (d TypeDesc) Type() reflect.Type { return d.typ }

// IsWildcard reports whether d is a bounded wildcard.
func (d TypeDesc) IsWildcard() bool { return d.wildcard }

// Bound returns the wildcard's upper bound, or d itself.
func (d TypeDesc) Bound() TypeDesc { return TypeDesc{typ: d.typ} }

func (d TypeDesc) String() string {
	name := "nil"
	if d.typ != nil {
		name = d.typ.String()
	}
	if d.wildcard {
		return "? extends " + name
	}
	return name
}

// Severity expresses the severity level for enforcement findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// DefaultMaxDepth bounds key/index nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Options bundles transform-wide settings carried by every root Context.
type Options struct {
	// MaxDepth limits key/index nesting; 0 selects DefaultMaxDepth and a
	// negative value disables the guard.
	MaxDepth int
	// Duplicates controls what Enforce does when an object repeats a key.
	Duplicates Severity
	// OnIssue receives non-fatal findings (for example Warn duplicates).
	OnIssue func(Issue)
}

func (o Options) maxDepth() int {
	if o.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}
