package bindkit

import (
	"slices"
)

// SliceOf returns the adapter for []E. Elements are converted through the
// factory registered for E.
func SliceOf[E any]() Adapter[[]E] { return sliceAdapter[E]{} }

// MapOf returns the adapter for map[string]V. Members are produced in sorted
// key order.
func MapOf[V any]() Adapter[map[string]V] { return mapAdapter[V]{} }

type sliceAdapter[E any] struct{ Unsupported[[]E] }

func (sliceAdapter[E]) CreateArray(*Context) (ArrayBuilderOf[[]E], error) {
	return &sliceBuilder[E]{}, nil
}

func (sliceAdapter[E]) Produce(v []E, s Sink) error {
	if v == nil {
		return s.Scalar(Null())
	}
	arr, err := s.Array()
	if err != nil {
		return err
	}
	for _, e := range v {
		el, err := arr.Add()
		if err != nil {
			return err
		}
		if err := el.Value(e); err != nil {
			return err
		}
	}
	return arr.End()
}

// sliceBuilder doubles its backing array as elements arrive and hands out an
// exactly sized copy on Build.
type sliceBuilder[E any] struct {
	items []E
	n     int
}

func (b *sliceBuilder[E]) Add(ctx *Context) (Sink, error) {
	if b.n == len(b.items) {
		grown := make([]E, max(4, 2*len(b.items)))
		copy(grown, b.items)
		b.items = grown
	}
	i := b.n
	b.n++
	return SinkFor(ctx, func(v E) error {
		b.items[i] = v
		return nil
	})
}

func (b *sliceBuilder[E]) Build() ([]E, error) {
	out := make([]E, b.n)
	copy(out, b.items[:b.n])
	b.items = nil
	return out, nil
}

type mapAdapter[V any] struct{ Unsupported[map[string]V] }

func (mapAdapter[V]) CreateObject(*Context) (ObjectBuilderOf[map[string]V], error) {
	return mapBuilder[V]{m: make(map[string]V)}, nil
}

func (mapAdapter[V]) Produce(v map[string]V, s Sink) error {
	if v == nil {
		return s.Scalar(Null())
	}
	obj, err := s.Object()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		member, err := obj.Put(k)
		if err != nil {
			return err
		}
		if err := member.Value(v[k]); err != nil {
			return err
		}
	}
	return obj.End()
}

type mapBuilder[V any] struct{ m map[string]V }

func (b mapBuilder[V]) Put(key string, ctx *Context) (Sink, error) {
	return SinkFor(ctx, func(v V) error {
		b.m[key] = v
		return nil
	})
}

func (b mapBuilder[V]) Build() (map[string]V, error) { return b.m, nil }
