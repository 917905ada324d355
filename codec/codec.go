// Package codec provides adapters for types whose wire form is another
// registered type, such as time.Time carried as an RFC3339 string.
package codec

import (
	"github.com/reoring/bindkit"
)

// New returns an adapter for D whose values travel as W. decode runs after
// W has been built by the registry's factory for W; encode runs before the
// W is produced.
func New[W, D any](decode func(W) (D, error), encode func(D) (W, error)) bindkit.Adapter[D] {
	return &codec[W, D]{decode: decode, encode: encode}
}

type codec[W, D any] struct {
	decode func(W) (D, error)
	encode func(D) (W, error)
}

// wire returns the factory for W positioned at ctx.
func (c *codec[W, D]) wire(ctx *bindkit.Context) (*bindkit.Context, bindkit.Factory, error) {
	t := bindkit.TypeOf[W]()
	f := ctx.Registry().LookupFactory(t)
	if f == nil {
		return nil, nil, ctx.UnsupportedType("no factory registered for %s", t)
	}
	return ctx.Target(t), f, nil
}

func (c *codec[W, D]) finish(ctx *bindkit.Context, v any) (D, error) {
	var zero D
	w, ok := v.(W)
	if !ok && v != nil {
		return zero, ctx.UnsupportedType("%T is not %s", v, bindkit.TypeOf[W]())
	}
	d, err := c.decode(w)
	if err != nil {
		return zero, ctx.Wrap(err)
	}
	return d, nil
}

func (c *codec[W, D]) Create(ctx *bindkit.Context, s bindkit.Scalar) (D, error) {
	var zero D
	if s.IsNull() {
		return zero, nil
	}
	wctx, f, err := c.wire(ctx)
	if err != nil {
		return zero, err
	}
	v, err := f.Create(wctx, s)
	if err != nil {
		return zero, err
	}
	return c.finish(ctx, v)
}

func (c *codec[W, D]) CreateObject(ctx *bindkit.Context) (bindkit.ObjectBuilderOf[D], error) {
	wctx, f, err := c.wire(ctx)
	if err != nil {
		return nil, err
	}
	b, err := f.CreateObject(wctx)
	if err != nil || b == nil {
		return nil, err
	}
	return objectCodec[W, D]{b, c, ctx}, nil
}

func (c *codec[W, D]) CreateArray(ctx *bindkit.Context) (bindkit.ArrayBuilderOf[D], error) {
	wctx, f, err := c.wire(ctx)
	if err != nil {
		return nil, err
	}
	b, err := f.CreateArray(wctx)
	if err != nil || b == nil {
		return nil, err
	}
	return arrayCodec[W, D]{b, c, ctx}, nil
}

func (c *codec[W, D]) Produce(d D, s bindkit.Sink) error {
	w, err := c.encode(d)
	if err != nil {
		return err
	}
	return s.Value(w)
}

type objectCodec[W, D any] struct {
	bindkit.ObjectBuilder
	c   *codec[W, D]
	ctx *bindkit.Context
}

func (o objectCodec[W, D]) Build() (D, error) {
	v, err := o.ObjectBuilder.Build()
	if err != nil {
		var zero D
		return zero, err
	}
	return o.c.finish(o.ctx, v)
}

type arrayCodec[W, D any] struct {
	bindkit.ArrayBuilder
	c   *codec[W, D]
	ctx *bindkit.Context
}

func (a arrayCodec[W, D]) Build() (D, error) {
	v, err := a.ArrayBuilder.Build()
	if err != nil {
		var zero D
		return zero, err
	}
	return a.c.finish(a.ctx, v)
}

// Register installs the time adapters of this package.
func Register(b *bindkit.Builder) {
	bindkit.Register(b, TimeRFC3339())
	bindkit.Register(b, Duration())
}
