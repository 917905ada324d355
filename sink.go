package bindkit

import (
	"fmt"
	"reflect"
)

// valueSink drives a Factory. The builder is only created once the producer
// reveals the shape of the value.
type valueSink struct {
	ctx  *Context
	f    Factory
	save func(any) error
	used bool
}

func (s *valueSink) use() error {
	if s.used {
		return internalf("sink at %s received a second value", s.ctx.loc)
	}
	s.used = true
	return nil
}

func (s *valueSink) Scalar(sc Scalar) error {
	if err := s.use(); err != nil {
		return err
	}
	v, err := s.f.Create(s.ctx, sc)
	if err != nil {
		return s.ctx.Wrap(err)
	}
	return s.ctx.Wrap(s.save(v))
}

func (s *valueSink) Value(v any) error { return s.ctx.produce(v, s) }

func (s *valueSink) sinkContext() *Context { return s.ctx }

func (s *valueSink) Object() (ObjectSink, error) {
	if err := s.use(); err != nil {
		return nil, err
	}
	b, err := s.f.CreateObject(s.ctx)
	if err != nil {
		return nil, s.ctx.Wrap(err)
	}
	if b == nil {
		return nil, s.ctx.UnsupportedType("object cannot be converted")
	}
	return &objectSink{ctx: s.ctx, b: b, save: s.save}, nil
}

func (s *valueSink) Array() (ArraySink, error) {
	if err := s.use(); err != nil {
		return nil, err
	}
	b, err := s.f.CreateArray(s.ctx)
	if err != nil {
		return nil, s.ctx.Wrap(err)
	}
	if b == nil {
		return nil, s.ctx.UnsupportedType("array cannot be converted")
	}
	return &arraySink{ctx: s.ctx, b: b, save: s.save}, nil
}

type objectSink struct {
	ctx  *Context
	b    ObjectBuilder
	save func(any) error
	done bool
}

func (s *objectSink) Put(key string) (Sink, error) {
	if s.done {
		return nil, internalf("put %q after end at %s", key, s.ctx.loc)
	}
	child := s.ctx.Key(key)
	if err := child.checkDepth(); err != nil {
		return nil, err
	}
	sink, err := s.b.Put(key, child)
	if err != nil {
		return nil, child.Wrap(err)
	}
	if sink == nil {
		return nil, internalf("builder returned no sink for %s", child.loc)
	}
	return sink, nil
}

func (s *objectSink) End() error {
	if s.done {
		return internalf("object at %s ended twice", s.ctx.loc)
	}
	s.done = true
	v, err := s.b.Build()
	if err != nil {
		return s.ctx.Wrap(err)
	}
	return s.ctx.Wrap(s.save(v))
}

type arraySink struct {
	ctx  *Context
	b    ArrayBuilder
	save func(any) error
	n    int
	done bool
}

func (s *arraySink) Add() (Sink, error) {
	if s.done {
		return nil, internalf("add after end at %s", s.ctx.loc)
	}
	child := s.ctx.Index(s.n)
	s.n++
	if err := child.checkDepth(); err != nil {
		return nil, err
	}
	sink, err := s.b.Add(child)
	if err != nil {
		return nil, child.Wrap(err)
	}
	if sink == nil {
		return nil, internalf("builder returned no sink for %s", child.loc)
	}
	return sink, nil
}

func (s *arraySink) End() error {
	if s.done {
		return internalf("array at %s ended twice", s.ctx.loc)
	}
	s.done = true
	v, err := s.b.Build()
	if err != nil {
		return s.ctx.Wrap(err)
	}
	return s.ctx.Wrap(s.save(v))
}

// kindSink narrows scalars through one of the registry's primitive slots.
type kindSink struct {
	ctx  *Context
	f    PrimitiveFactory
	save func(Scalar) error
}

func (s *kindSink) Scalar(sc Scalar) error {
	out, err := s.f.Create(s.ctx, sc)
	if err != nil {
		return s.ctx.Wrap(err)
	}
	return s.ctx.Wrap(s.save(out))
}

func (s *kindSink) Value(v any) error { return s.ctx.produce(v, s) }

func (s *kindSink) sinkContext() *Context { return s.ctx }

func (s *kindSink) Object() (ObjectSink, error) {
	return nil, s.ctx.UnsupportedType("object cannot be converted")
}

func (s *kindSink) Array() (ArraySink, error) {
	return nil, s.ctx.UnsupportedType("array cannot be converted")
}

// Produce pushes v into s: scalars directly, anything else through the
// producer r holds for the runtime type of v. Nil pointers, maps and slices
// are pushed as null.
func Produce(r *Registry, v any, s Sink) error {
	sc, p, t := r.producerFor(v)
	switch {
	case p != nil:
		return p(v, s)
	case t == nil:
		return s.Scalar(sc)
	}
	return fmt.Errorf("%w: no producer registered for %s", ErrUnsupportedType, t)
}

func (c *Context) produce(v any, s Sink) error {
	sc, p, t := c.reg.producerFor(v)
	switch {
	case p != nil:
		return p(v, s)
	case t == nil:
		return s.Scalar(sc)
	}
	return c.UnsupportedType("no producer registered for %s", t)
}

// producerFor returns either a scalar (p and t nil), a producer, or the
// unresolved runtime type.
func (r *Registry) producerFor(v any) (Scalar, Producer, reflect.Type) {
	if sc, ok := ScalarOf(v); ok {
		return sc, nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return Null(), nil, nil
		}
	}
	if p := r.LookupProducer(DescOf(rv.Type())); p != nil {
		return Scalar{}, p, nil
	}
	return Scalar{}, nil, rv.Type()
}
