// Package jsonw writes JSON text directly from bindkit push events, without
// building an intermediate tree.
//
//	w := jsonw.NewWriter(os.Stdout, reg, jsonw.Options{Indent: "  "})
//	err := bindkit.Produce(reg, v, w.Sink())
//	...
//	err = w.Flush()
package jsonw

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
	j "github.com/goccy/go-json"

	"github.com/reoring/bindkit"
)

// Options configures a Writer.
type Options struct {
	// Indent is repeated once per nesting level. Empty writes compact JSON.
	Indent string
	// EscapeHTML escapes <, > and & inside strings.
	EscapeHTML bool
}

// Writer serializes values pushed into its sinks. Members and elements must
// arrive in document order, which every producer guarantees.
type Writer struct {
	out   *bufio.Writer
	reg   *bindkit.Registry
	o     Options
	depth int
	str   bytes.Buffer
	enc   *j.Encoder
}

// NewWriter returns a Writer on w. reg resolves producers for values pushed
// through Sink.Value; nil uses a registry with the built-in adapters only.
func NewWriter(w io.Writer, reg *bindkit.Registry, o Options) *Writer {
	if reg == nil {
		reg = bindkit.NewBuilder().MustBuild()
	}
	wr := &Writer{out: bufio.NewWriter(w), reg: reg, o: o}
	wr.enc = j.NewEncoder(&wr.str)
	wr.enc.SetEscapeHTML(o.EscapeHTML)
	return wr
}

// Sink returns the sink for the next top-level value.
func (w *Writer) Sink() bindkit.Sink { return value{w} }

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.out.Flush() }

// Newline ends the current top-level value, for JSON Lines style output.
func (w *Writer) Newline() error { return w.out.WriteByte('\n') }

// Marshal renders v as JSON using the producers registered in reg.
func Marshal(reg *bindkit.Registry, v any, o Options) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf, reg, o)
	if err := bindkit.Produce(w.reg, v, w.Sink()); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) newline() {
	if w.o.Indent == "" {
		return
	}
	w.out.WriteByte('\n')
	w.out.WriteString(strings.Repeat(w.o.Indent, w.depth))
}

func (w *Writer) quote(s string) error {
	w.str.Reset()
	if err := w.enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	_, err := w.out.Write(bytes.TrimSuffix(w.str.Bytes(), []byte{'\n'}))
	return err
}

func (w *Writer) scalar(s bindkit.Scalar) error {
	switch s.Kind() {
	case bindkit.KindString:
		return w.quote(s.StringValue())
	case bindkit.KindFloat, bindkit.KindDouble:
		f := s.DoubleValue()
		if s.Kind() == bindkit.KindFloat {
			f = float64(s.FloatValue())
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s is not representable in JSON", bindkit.ErrUnsupportedType, s.Text())
		}
	case bindkit.KindDecimal:
		if s.DecimalValue().Form != apd.Finite {
			return fmt.Errorf("%w: %s is not representable in JSON", bindkit.ErrUnsupportedType, s.Text())
		}
	}
	_, err := w.out.WriteString(s.Text())
	return err
}

// value is the Sink for one JSON value at the writer's current position.
type value struct{ w *Writer }

func (v value) Scalar(s bindkit.Scalar) error { return v.w.scalar(s) }

func (v value) Value(x any) error {
	if s, ok := bindkit.ScalarOf(x); ok {
		return v.w.scalar(s)
	}
	return bindkit.Produce(v.w.reg, x, v)
}

func (v value) Object() (bindkit.ObjectSink, error) {
	if err := v.w.out.WriteByte('{'); err != nil {
		return nil, err
	}
	v.w.depth++
	return &container{w: v.w, close: '}'}, nil
}

func (v value) Array() (bindkit.ArraySink, error) {
	if err := v.w.out.WriteByte('['); err != nil {
		return nil, err
	}
	v.w.depth++
	return &container{w: v.w, close: ']'}, nil
}

type container struct {
	w     *Writer
	close byte
	n     int
}

func (c *container) next() {
	if c.n > 0 {
		c.w.out.WriteByte(',')
	}
	c.n++
	c.w.newline()
}

func (c *container) Put(key string) (bindkit.Sink, error) {
	c.next()
	if err := c.w.quote(key); err != nil {
		return nil, err
	}
	c.w.out.WriteByte(':')
	if c.w.o.Indent != "" {
		c.w.out.WriteByte(' ')
	}
	return value{c.w}, nil
}

func (c *container) Add() (bindkit.Sink, error) {
	c.next()
	return value{c.w}, nil
}

func (c *container) End() error {
	c.w.depth--
	if c.n > 0 {
		c.w.newline()
	}
	return c.w.out.WriteByte(c.close)
}
