// Package collection derives adapters for composite Go types on demand.
//
// Attach it to a registry as a delegate and every slice, array, pointer and
// string-keyed map type becomes convertible as long as its element type is:
//
//	b := bindkit.NewBuilder()
//	b.AddDelegate(collection.New())
//
// Element conversion goes back through the registry the transform runs on,
// so derived containers nest (for example map[string][][2]*big.Int).
package collection

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/reoring/bindkit"
)

// Resolver implements bindkit.Resolver for composite types.
type Resolver struct{}

// New returns a Resolver.
func New() *Resolver { return &Resolver{} }

func (*Resolver) LookupFactory(t bindkit.TypeDesc) bindkit.Factory {
	rt := t.Type()
	if rt == nil {
		return nil
	}
	switch rt.Kind() {
	case reflect.Slice, reflect.Array:
		return listFactory{t: rt}
	case reflect.Map:
		if rt.Key().Kind() == reflect.String {
			return mapFactory{t: rt}
		}
	case reflect.Pointer:
		return pointerFactory{t: rt}
	}
	return nil
}

func (*Resolver) LookupProducer(t bindkit.TypeDesc) bindkit.Producer {
	rt := t.Type()
	if rt == nil {
		return nil
	}
	switch rt.Kind() {
	case reflect.Slice, reflect.Array:
		return produceList
	case reflect.Map:
		if rt.Key().Kind() == reflect.String {
			return produceMap
		}
	case reflect.Pointer:
		return producePointer
	}
	return nil
}

// nullable returns the zero value for null and rejects other scalars.
func nullable(ctx *bindkit.Context, t reflect.Type, s bindkit.Scalar) (any, error) {
	if s.IsNull() {
		return reflect.Zero(t).Interface(), nil
	}
	return nil, ctx.UnsupportedType("%s value cannot be converted", s.Kind())
}

type listFactory struct{ t reflect.Type }

func (f listFactory) Create(ctx *bindkit.Context, s bindkit.Scalar) (any, error) {
	return nullable(ctx, f.t, s)
}

func (f listFactory) CreateObject(ctx *bindkit.Context) (bindkit.ObjectBuilder, error) {
	return nil, ctx.UnsupportedType("object cannot be converted")
}

func (f listFactory) CreateArray(*bindkit.Context) (bindkit.ArrayBuilder, error) {
	if f.t.Kind() == reflect.Array {
		return &listBuilder{t: f.t, v: reflect.New(f.t).Elem()}, nil
	}
	return &listBuilder{t: f.t, v: reflect.MakeSlice(f.t, 0, 4)}, nil
}

// listBuilder fills a slice (growing it by append) or a fixed-length array.
type listBuilder struct {
	t reflect.Type
	v reflect.Value
	n int
}

func (b *listBuilder) Add(ctx *bindkit.Context) (bindkit.Sink, error) {
	i := b.n
	if b.t.Kind() == reflect.Array {
		if i >= b.t.Len() {
			return nil, ctx.UnsupportedType("%s holds at most %d elements", b.t, b.t.Len())
		}
	} else {
		b.v = reflect.Append(b.v, reflect.Zero(b.t.Elem()))
	}
	b.n++
	return ctx.NewSink(bindkit.DescOf(b.t.Elem()), func(v any) error {
		set(b.v.Index(i), v)
		return nil
	})
}

func (b *listBuilder) Build() (any, error) { return b.v.Interface(), nil }

type mapFactory struct{ t reflect.Type }

func (f mapFactory) Create(ctx *bindkit.Context, s bindkit.Scalar) (any, error) {
	return nullable(ctx, f.t, s)
}

func (f mapFactory) CreateObject(*bindkit.Context) (bindkit.ObjectBuilder, error) {
	return &mapBuilder{t: f.t, v: reflect.MakeMap(f.t)}, nil
}

func (f mapFactory) CreateArray(ctx *bindkit.Context) (bindkit.ArrayBuilder, error) {
	return nil, ctx.UnsupportedType("array cannot be converted")
}

type mapBuilder struct {
	t reflect.Type
	v reflect.Value
}

func (b *mapBuilder) Put(key string, ctx *bindkit.Context) (bindkit.Sink, error) {
	k := reflect.ValueOf(key).Convert(b.t.Key())
	return ctx.NewSink(bindkit.DescOf(b.t.Elem()), func(v any) error {
		e := reflect.New(b.t.Elem()).Elem()
		set(e, v)
		b.v.SetMapIndex(k, e)
		return nil
	})
}

func (b *mapBuilder) Build() (any, error) { return b.v.Interface(), nil }

// pointerFactory builds the element and returns its address.
type pointerFactory struct{ t reflect.Type }

func (f pointerFactory) elem(ctx *bindkit.Context) (*bindkit.Context, bindkit.Factory, error) {
	et := bindkit.DescOf(f.t.Elem())
	ef := ctx.Registry().LookupFactory(et)
	if ef == nil {
		return nil, nil, ctx.UnsupportedType("no factory registered for %s", et)
	}
	return ctx.Target(et), ef, nil
}

func (f pointerFactory) ref(v any) any {
	p := reflect.New(f.t.Elem())
	set(p.Elem(), v)
	return p.Interface()
}

func (f pointerFactory) Create(ctx *bindkit.Context, s bindkit.Scalar) (any, error) {
	if s.IsNull() {
		return reflect.Zero(f.t).Interface(), nil
	}
	ectx, ef, err := f.elem(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ef.Create(ectx, s)
	if err != nil {
		return nil, err
	}
	return f.ref(v), nil
}

func (f pointerFactory) CreateObject(ctx *bindkit.Context) (bindkit.ObjectBuilder, error) {
	ectx, ef, err := f.elem(ctx)
	if err != nil {
		return nil, err
	}
	b, err := ef.CreateObject(ectx)
	if err != nil || b == nil {
		return nil, err
	}
	return pointerObject{b, f}, nil
}

func (f pointerFactory) CreateArray(ctx *bindkit.Context) (bindkit.ArrayBuilder, error) {
	ectx, ef, err := f.elem(ctx)
	if err != nil {
		return nil, err
	}
	b, err := ef.CreateArray(ectx)
	if err != nil || b == nil {
		return nil, err
	}
	return pointerArray{b, f}, nil
}

type pointerObject struct {
	bindkit.ObjectBuilder
	f pointerFactory
}

func (p pointerObject) Build() (any, error) {
	v, err := p.ObjectBuilder.Build()
	if err != nil {
		return nil, err
	}
	return p.f.ref(v), nil
}

type pointerArray struct {
	bindkit.ArrayBuilder
	f pointerFactory
}

func (p pointerArray) Build() (any, error) {
	v, err := p.ArrayBuilder.Build()
	if err != nil {
		return nil, err
	}
	return p.f.ref(v), nil
}

// set stores v into dst; nil leaves dst at its zero value.
func set(dst reflect.Value, v any) {
	if v == nil {
		dst.SetZero()
		return
	}
	dst.Set(reflect.ValueOf(v))
}

func produceList(v any, s bindkit.Sink) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return s.Scalar(bindkit.Null())
	}
	arr, err := s.Array()
	if err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		el, err := arr.Add()
		if err != nil {
			return err
		}
		if err := el.Value(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return arr.End()
}

func produceMap(v any, s bindkit.Sink) error {
	rv := reflect.ValueOf(v)
	if rv.IsNil() {
		return s.Scalar(bindkit.Null())
	}
	obj, err := s.Object()
	if err != nil {
		return err
	}
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	for _, k := range keys {
		member, err := obj.Put(k.String())
		if err != nil {
			return err
		}
		if err := member.Value(rv.MapIndex(k).Interface()); err != nil {
			return err
		}
	}
	return obj.End()
}

func producePointer(v any, s bindkit.Sink) error {
	rv := reflect.ValueOf(v)
	if rv.IsNil() {
		return s.Scalar(bindkit.Null())
	}
	return s.Value(rv.Elem().Interface())
}
