package json5

import (
	"fmt"
	"io"

	"github.com/reoring/bindkit"
)

// SinkVisitor forwards parse events into a bindkit.Sink, so a document is
// converted while it is read without an intermediate tree.
type SinkVisitor struct {
	NopVisitor
	frames []sinkFrame
}

// sinkFrame is the root value, an object or an array being filled. next is
// the sink the next value goes to: the root sink, or the member sink opened
// by the last key.
type sinkFrame struct {
	next bindkit.Sink
	obj  bindkit.ObjectSink
	arr  bindkit.ArraySink
}

// NewSinkVisitor returns a Visitor that pushes one document into root.
func NewSinkVisitor(root bindkit.Sink) *SinkVisitor {
	return &SinkVisitor{frames: []sinkFrame{{next: root}}}
}

func (v *SinkVisitor) top() *sinkFrame { return &v.frames[len(v.frames)-1] }

// target returns the sink for the value that starts now.
func (v *SinkVisitor) target() (bindkit.Sink, error) {
	f := v.top()
	if f.arr != nil {
		return f.arr.Add()
	}
	s := f.next
	f.next = nil
	if s == nil {
		return nil, fmt.Errorf("%w: value without a pending sink", bindkit.ErrInternal)
	}
	return s, nil
}

func (v *SinkVisitor) scalar(s bindkit.Scalar) error {
	t, err := v.target()
	if err != nil {
		return err
	}
	return t.Scalar(s)
}

func (v *SinkVisitor) Null(Pos) error                       { return v.scalar(bindkit.Null()) }
func (v *SinkVisitor) Bool(b bool, _ Pos) error             { return v.scalar(bindkit.Bool(b)) }
func (v *SinkVisitor) String(s string, _ Pos) error         { return v.scalar(bindkit.String(s)) }
func (v *SinkVisitor) Number(n bindkit.Scalar, _ Pos) error { return v.scalar(n) }

func (v *SinkVisitor) Key(key string, _ Pos) error {
	f := v.top()
	if f.obj == nil {
		return fmt.Errorf("%w: key %q outside an object", bindkit.ErrInternal, key)
	}
	s, err := f.obj.Put(key)
	if err != nil {
		return err
	}
	f.next = s
	return nil
}

func (v *SinkVisitor) StartObject(Pos) error {
	t, err := v.target()
	if err != nil {
		return err
	}
	o, err := t.Object()
	if err != nil {
		return err
	}
	v.frames = append(v.frames, sinkFrame{obj: o})
	return nil
}

func (v *SinkVisitor) StartArray(Pos) error {
	t, err := v.target()
	if err != nil {
		return err
	}
	a, err := t.Array()
	if err != nil {
		return err
	}
	v.frames = append(v.frames, sinkFrame{arr: a})
	return nil
}

func (v *SinkVisitor) pop() (sinkFrame, error) {
	if len(v.frames) < 2 {
		return sinkFrame{}, fmt.Errorf("%w: closing a container that was never opened", bindkit.ErrInternal)
	}
	f := *v.top()
	v.frames = v.frames[:len(v.frames)-1]
	return f, nil
}

func (v *SinkVisitor) EndObject(Pos) error {
	f, err := v.pop()
	if err != nil {
		return err
	}
	if f.obj == nil {
		return fmt.Errorf("%w: object closed over an array", bindkit.ErrInternal)
	}
	return f.obj.End()
}

func (v *SinkVisitor) EndArray(Pos) error {
	f, err := v.pop()
	if err != nil {
		return err
	}
	if f.arr == nil {
		return fmt.Errorf("%w: array closed over an object", bindkit.ErrInternal)
	}
	return f.arr.End()
}

// EndOfStream fails with bindkit.ErrInternal unless every container was
// closed.
func (v *SinkVisitor) EndOfStream(Pos) error {
	if n := len(v.frames); n != 1 {
		return fmt.Errorf("%w: %d frames open at end of stream", bindkit.ErrInternal, n)
	}
	return nil
}

// Bind parses the document from r into a value of target.
func Bind(reg *bindkit.Registry, target bindkit.TypeDesc, r io.Reader, o Options) (any, error) {
	return bind(reg, target, func(v Visitor) error { return ParseReader(r, v, o) }, o)
}

func bind(reg *bindkit.Registry, target bindkit.TypeDesc, parse func(Visitor) error, o Options) (any, error) {
	var (
		out  any
		done bool
	)
	s, err := reg.RootSink(target, func(v any) error {
		out, done = v, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.Duplicates != bindkit.Ignore && reg.Options().Duplicates == bindkit.Ignore {
		s = bindkit.Enforce(reg, s, bindkit.Options{Duplicates: o.Duplicates, OnIssue: o.OnIssue, MaxDepth: -1})
	}
	if err := parse(NewSinkVisitor(s)); err != nil {
		return nil, err
	}
	if !done {
		return nil, fmt.Errorf("%w: document produced no value", bindkit.ErrInternal)
	}
	return out, nil
}

func bindTyped[T any](reg *bindkit.Registry, parse func(Visitor) error, o Options) (T, error) {
	var zero T
	v, err := bind(reg, bindkit.TypeOf[T](), parse, o)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: factory for %s built %T", bindkit.ErrInternal, bindkit.TypeOf[T](), v)
	}
	return t, nil
}

// BindBytes parses data into a T.
func BindBytes[T any](reg *bindkit.Registry, data []byte, o Options) (T, error) {
	return bindTyped[T](reg, func(v Visitor) error { return ParseBytes(data, v, o) }, o)
}

// BindString parses s into a T.
func BindString[T any](reg *bindkit.Registry, s string, o Options) (T, error) {
	return bindTyped[T](reg, func(v Visitor) error { return ParseString(s, v, o) }, o)
}

// BindReader parses everything r yields into a T.
func BindReader[T any](reg *bindkit.Registry, r io.Reader, o Options) (T, error) {
	return bindTyped[T](reg, func(v Visitor) error { return ParseReader(r, v, o) }, o)
}

// BindFile parses the file at path into a T.
func BindFile[T any](reg *bindkit.Registry, path string, o Options) (T, error) {
	return bindTyped[T](reg, func(v Visitor) error { return ParseFile(path, v, o) }, o)
}
