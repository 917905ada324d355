package bindkit

// Sink receives the structure of one value. Exactly one of Scalar, Value,
// Object or Array is called on a Sink; the consumer behind it decides lazily
// what to build from that first call.
type Sink interface {
	Scalar(s Scalar) error
	// Value pushes an arbitrary Go value: scalars directly, everything else
	// through the producer registered for its runtime type.
	Value(v any) error
	Object() (ObjectSink, error)
	Array() (ArraySink, error)
}

// ObjectSink receives the members of an object. End finalizes it.
type ObjectSink interface {
	Put(key string) (Sink, error)
	End() error
}

// ArraySink receives the elements of an array in order. End finalizes it.
type ArraySink interface {
	Add() (Sink, error)
	End() error
}

// Producer decomposes v into push events on s.
type Producer func(v any, s Sink) error

// Factory is the consumer side of a registration. Exactly one of its methods
// is called per value, with a Context positioned at that value.
type Factory interface {
	Create(ctx *Context, s Scalar) (any, error)
	// CreateObject and CreateArray may return a nil builder to signal the
	// shape is unsupported.
	CreateObject(ctx *Context) (ObjectBuilder, error)
	CreateArray(ctx *Context) (ArrayBuilder, error)
}

// ObjectBuilder assembles an object member by member. Put may fail with an
// *UnknownKeyError; Build is called once after the last member.
type ObjectBuilder interface {
	Put(key string, ctx *Context) (Sink, error)
	Build() (any, error)
}

// ArrayBuilder assembles an array element by element.
type ArrayBuilder interface {
	Add(ctx *Context) (Sink, error)
	Build() (any, error)
}

// PrimitiveFactory narrows a scalar into one of the eight primitive kinds.
type PrimitiveFactory interface {
	Create(ctx *Context, s Scalar) (Scalar, error)
}

// PrimitiveFunc adapts a function to PrimitiveFactory.
type PrimitiveFunc func(ctx *Context, s Scalar) (Scalar, error)

func (f PrimitiveFunc) Create(ctx *Context, s Scalar) (Scalar, error) { return f(ctx, s) }

// TypedFactory is the statically typed form of Factory.
type TypedFactory[T any] interface {
	Create(ctx *Context, s Scalar) (T, error)
	CreateObject(ctx *Context) (ObjectBuilderOf[T], error)
	CreateArray(ctx *Context) (ArrayBuilderOf[T], error)
}

type ObjectBuilderOf[T any] interface {
	Put(key string, ctx *Context) (Sink, error)
	Build() (T, error)
}

type ArrayBuilderOf[T any] interface {
	Add(ctx *Context) (Sink, error)
	Build() (T, error)
}

// Adapter pairs a TypedFactory with the producer for the same type.
type Adapter[T any] interface {
	TypedFactory[T]
	Produce(v T, s Sink) error
}

// Unsupported is embedded by typed factories to reject the shapes they do not
// override. Null creates the zero value of T.
type Unsupported[T any] struct{}

func (Unsupported[T]) Create(ctx *Context, s Scalar) (T, error) {
	var zero T
	if s.IsNull() {
		return zero, nil
	}
	return zero, ctx.UnsupportedType("%s value cannot be converted", s.Kind())
}

func (Unsupported[T]) CreateObject(ctx *Context) (ObjectBuilderOf[T], error) {
	return nil, ctx.UnsupportedType("object cannot be converted")
}

func (Unsupported[T]) CreateArray(ctx *Context) (ArrayBuilderOf[T], error) {
	return nil, ctx.UnsupportedType("array cannot be converted")
}

// Register installs a producer/consumer pair for T.
func Register[T any](b *Builder, a Adapter[T]) {
	b.RegisterType(TypeOf[T](), EraseFactory[T](a), EraseProducer(a.Produce))
}

// RegisterFactory installs only the consumer side for T.
func RegisterFactory[T any](b *Builder, f TypedFactory[T]) {
	b.RegisterType(TypeOf[T](), EraseFactory(f), nil)
}

// RegisterProducer installs only the producer side for T.
func RegisterProducer[T any](b *Builder, p func(T, Sink) error) {
	b.RegisterType(TypeOf[T](), nil, EraseProducer(p))
}

// EraseFactory converts a TypedFactory into a Factory.
func EraseFactory[T any](f TypedFactory[T]) Factory { return erasedFactory[T]{f} }

// EraseProducer converts a typed producer into a Producer.
func EraseProducer[T any](p func(T, Sink) error) Producer {
	return func(v any, s Sink) error {
		t, ok := v.(T)
		if !ok && v != nil {
			return internalf("producer for %s received %T", TypeOf[T](), v)
		}
		return p(t, s)
	}
}

// SinkFor is NewSink for a static type.
func SinkFor[T any](ctx *Context, save func(T) error) (Sink, error) {
	return ctx.NewSink(TypeOf[T](), func(v any) error {
		t, err := cast[T](v)
		if err != nil {
			return err
		}
		return save(t)
	})
}

func cast[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	if v == nil {
		return zero, nil
	}
	return zero, internalf("factory for %s built %T", TypeOf[T](), v)
}

type erasedFactory[T any] struct{ f TypedFactory[T] }

func (e erasedFactory[T]) Create(ctx *Context, s Scalar) (any, error) {
	v, err := e.f.Create(ctx, s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e erasedFactory[T]) CreateObject(ctx *Context) (ObjectBuilder, error) {
	b, err := e.f.CreateObject(ctx)
	if err != nil || b == nil {
		return nil, err
	}
	return erasedObject[T]{b}, nil
}

func (e erasedFactory[T]) CreateArray(ctx *Context) (ArrayBuilder, error) {
	b, err := e.f.CreateArray(ctx)
	if err != nil || b == nil {
		return nil, err
	}
	return erasedArray[T]{b}, nil
}

type erasedObject[T any] struct{ ObjectBuilderOf[T] }

func (e erasedObject[T]) Build() (any, error) {
	v, err := e.ObjectBuilderOf.Build()
	if err != nil {
		return nil, err
	}
	return v, nil
}

type erasedArray[T any] struct{ ArrayBuilderOf[T] }

func (e erasedArray[T]) Build() (any, error) {
	v, err := e.ArrayBuilderOf.Build()
	if err != nil {
		return nil, err
	}
	return v, nil
}
