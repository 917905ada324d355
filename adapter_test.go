package bindkit_test

import (
	"github.com/reoring/bindkit"
)

type point struct{ X, Y int32 }

type pointAdapter struct{ bindkit.Unsupported[point] }

func (pointAdapter) CreateObject(*bindkit.Context) (bindkit.ObjectBuilderOf[point], error) {
	return &pointBuilder{}, nil
}

func (pointAdapter) Produce(p point, s bindkit.Sink) error {
	obj, err := s.Object()
	if err != nil {
		return err
	}
	for _, m := range []struct {
		key string
		v   int32
	}{{"x", p.X}, {"y", p.Y}} {
		member, err := obj.Put(m.key)
		if err != nil {
			return err
		}
		if err := member.Scalar(bindkit.Int(m.v)); err != nil {
			return err
		}
	}
	return obj.End()
}

type pointBuilder struct{ p point }

func (b *pointBuilder) Put(key string, ctx *bindkit.Context) (bindkit.Sink, error) {
	switch key {
	case "x":
		return bindkit.SinkFor(ctx, func(v int32) error { b.p.X = v; return nil })
	case "y":
		return bindkit.SinkFor(ctx, func(v int32) error { b.p.Y = v; return nil })
	}
	return nil, ctx.UnknownKey()
}

func (b *pointBuilder) Build() (point, error) { return b.p, nil }

type celsius float64

type offsetFactory struct {
	bindkit.Unsupported[celsius]
	offset float64
}

func (f offsetFactory) Create(ctx *bindkit.Context, s bindkit.Scalar) (celsius, error) {
	d, err := bindkit.Narrow(ctx, bindkit.KindDouble, s)
	if err != nil {
		return 0, err
	}
	return celsius(d.DoubleValue() + f.offset), nil
}

func newRegistry(opts ...func(*bindkit.Builder)) *bindkit.Registry {
	b := bindkit.NewBuilder()
	bindkit.Register[point](b, pointAdapter{})
	bindkit.Register(b, bindkit.SliceOf[point]())
	for _, o := range opts {
		o(b)
	}
	return b.MustBuild()
}
