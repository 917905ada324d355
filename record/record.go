// Package record binds Go structs through explicit accessor tables instead of
// runtime struct introspection.
//
// A Record lists the members of T together with a typed accessor for each:
//
//	type User struct {
//		Name string
//		Age  int32
//	}
//
//	users := record.Of[User]().
//		Field("name", record.Ref(func(u *User) *string { return &u.Name })).Required().
//		Field("age", record.Ref(func(u *User) *int32 { return &u.Age })).Record()
//	users.Register(b)
//
// The accessor tables can be written by hand or generated with
// `bindkit gen`. Member values are converted by whatever the registry holds
// for the field type, so nested records, slices and maps compose freely.
package record

import (
	"github.com/reoring/bindkit"
)

// UnknownPolicy decides what happens to object keys a Record does not list.
type UnknownPolicy int

const (
	// UnknownStrict rejects unknown keys with *bindkit.UnknownKeyError.
	UnknownStrict UnknownPolicy = iota
	// UnknownStrip drops unknown keys and their values.
	UnknownStrip
)

// Accessor reaches one member of a T. Build it with Ref.
type Accessor[T any] struct {
	get  func(*T) any
	sink func(ctx *bindkit.Context, v *T) (bindkit.Sink, error)
}

// Ref returns the Accessor for the member ref points at.
func Ref[T, F any](ref func(*T) *F) Accessor[T] {
	return Accessor[T]{
		get: func(v *T) any { return *ref(v) },
		sink: func(ctx *bindkit.Context, v *T) (bindkit.Sink, error) {
			return bindkit.SinkFor(ctx, func(f F) error {
				*ref(v) = f
				return nil
			})
		},
	}
}

type field[T any] struct {
	name     string
	acc      Accessor[T]
	required bool
}

// Record is the accessor table of T. It is itself a bindkit.Adapter[T].
type Record[T any] struct {
	bindkit.Unsupported[T]
	fields  []field[T]
	index   map[string]int
	unknown UnknownPolicy
}

// Of starts an empty Record with UnknownStrict.
func Of[T any]() *Record[T] { return &Record[T]{index: map[string]int{}} }

// fieldStep is returned by Field so the member just added can be tuned.
type fieldStep[T any] struct {
	r *Record[T]
	i int
}

// Field adds (or replaces) the member name. Members are produced in the order
// they were first added.
func (r *Record[T]) Field(name string, acc Accessor[T]) *fieldStep[T] {
	i, ok := r.index[name]
	if ok {
		r.fields[i] = field[T]{name: name, acc: acc}
	} else {
		i = len(r.fields)
		r.index[name] = i
		r.fields = append(r.fields, field[T]{name: name, acc: acc})
	}
	return &fieldStep[T]{r: r, i: i}
}

// Require marks members that must be present when T is built from an object.
func (r *Record[T]) Require(names ...string) *Record[T] {
	for _, n := range names {
		if i, ok := r.index[n]; ok {
			r.fields[i].required = true
		}
	}
	return r
}

func (r *Record[T]) UnknownStrict() *Record[T] { r.unknown = UnknownStrict; return r }
func (r *Record[T]) UnknownStrip() *Record[T]  { r.unknown = UnknownStrip; return r }

// Names lists the member names in production order.
func (r *Record[T]) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.name
	}
	return out
}

// Register installs the Record as the adapter for T.
func (r *Record[T]) Register(b *bindkit.Builder) { bindkit.Register[T](b, r) }

func (s *fieldStep[T]) Required() *fieldStep[T] { s.r.fields[s.i].required = true; return s }
func (s *fieldStep[T]) Optional() *fieldStep[T] { s.r.fields[s.i].required = false; return s }

func (s *fieldStep[T]) Field(name string, acc Accessor[T]) *fieldStep[T] { return s.r.Field(name, acc) }
func (s *fieldStep[T]) Register(b *bindkit.Builder)                      { s.r.Register(b) }

// Record ends the chain.
func (s *fieldStep[T]) Record() *Record[T] { return s.r }

func (r *Record[T]) CreateObject(ctx *bindkit.Context) (bindkit.ObjectBuilderOf[T], error) {
	return &builder[T]{r: r, ctx: ctx, seen: make([]bool, len(r.fields))}, nil
}

func (r *Record[T]) Produce(v T, s bindkit.Sink) error {
	obj, err := s.Object()
	if err != nil {
		return err
	}
	for _, f := range r.fields {
		member, err := obj.Put(f.name)
		if err != nil {
			return err
		}
		if err := member.Value(f.acc.get(&v)); err != nil {
			return err
		}
	}
	return obj.End()
}

type builder[T any] struct {
	r    *Record[T]
	ctx  *bindkit.Context
	v    T
	seen []bool
}

func (b *builder[T]) Put(key string, ctx *bindkit.Context) (bindkit.Sink, error) {
	i, ok := b.r.index[key]
	if !ok {
		if b.r.unknown == UnknownStrip {
			return Discard(), nil
		}
		return nil, ctx.UnknownKey()
	}
	b.seen[i] = true
	return b.r.fields[i].acc.sink(ctx, &b.v)
}

func (b *builder[T]) Build() (T, error) {
	for i, f := range b.r.fields {
		if f.required && !b.seen[i] {
			var zero T
			return zero, b.ctx.UnsupportedType("missing required member '%s'", f.name)
		}
	}
	return b.v, nil
}
