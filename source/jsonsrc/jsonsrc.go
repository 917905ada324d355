// Package jsonsrc produces bindkit push events from strict JSON, streamed
// through github.com/goccy/go-json tokens.
//
// Numbers are decoded as text and resolved exactly as JSON5 numbers are (see
// json5.ParseNumber), so 12345678901234567890 arrives as a bigint and 0.1 as
// an exact decimal.
package jsonsrc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	j "github.com/goccy/go-json"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/i18n"
	"github.com/reoring/bindkit/json5"
)

// Options configures a Decoder.
type Options struct {
	// MaxDepth bounds object/array nesting. Zero selects
	// bindkit.DefaultMaxDepth; negative disables the check.
	MaxDepth int
	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

func (o Options) maxDepth() int {
	if o.MaxDepth == 0 {
		return bindkit.DefaultMaxDepth
	}
	return o.MaxDepth
}

// SyntaxError is a malformed-input failure with the byte offset the
// decoder had reached.
type SyntaxError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("json: offset %d: %s", e.Offset, e.Msg) }
func (e *SyntaxError) Unwrap() error { return e.Err }

// Issue projects the error onto bindkit's Issue model.
func (e *SyntaxError) Issue() bindkit.Issue {
	params := map[string]string{"detail": e.Msg}
	return bindkit.Issue{
		Path:    "/",
		Code:    bindkit.CodeParseError,
		Message: i18n.T(bindkit.CodeParseError, params),
		Offset:  e.Offset,
		Params:  params,
		Cause:   e.Err,
	}
}

// Decoder reads JSON values from a stream.
type Decoder struct {
	dec    *j.Decoder
	limit  int
	logger *slog.Logger
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, o Options) *Decoder {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Decoder{dec: dec, limit: o.maxDepth(), logger: logger}
}

// More reports whether another top-level value follows.
func (d *Decoder) More() bool { return d.dec.More() }

// Produce pushes the next value of the stream into s. It returns io.EOF
// when the stream holds no further value.
func (d *Decoder) Produce(s bindkit.Sink) error {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return d.syntax(err, "%v", err)
	}
	return d.value(tok, s, 0)
}

// Finish fails unless the stream is exhausted.
func (d *Decoder) Finish() error {
	tok, err := d.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return d.syntax(err, "%v", err)
	}
	return d.syntax(nil, "unexpected %v after top-level value", tok)
}

func (d *Decoder) syntax(err error, format string, args ...any) error {
	return &SyntaxError{Offset: d.dec.InputOffset(), Msg: fmt.Sprintf(format, args...), Err: err}
}

func (d *Decoder) next() (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, d.syntax(io.ErrUnexpectedEOF, "unexpected end of input")
		}
		return nil, d.syntax(err, "%v", err)
	}
	return tok, nil
}

func (d *Decoder) value(tok any, s bindkit.Sink, depth int) error {
	switch v := tok.(type) {
	case j.Delim:
		if d.limit >= 0 && depth >= d.limit {
			return d.syntax(nil, "maximum nesting depth %d exceeded", d.limit)
		}
		switch v {
		case '{':
			return d.object(s, depth+1)
		case '[':
			return d.array(s, depth+1)
		}
		return d.syntax(nil, "unexpected %q", rune(v))
	case string:
		return s.Scalar(bindkit.String(v))
	case bool:
		return s.Scalar(bindkit.Bool(v))
	case j.Number:
		n, err := json5.ParseNumber(string(v))
		if err != nil {
			return d.syntax(err, "invalid number %q", string(v))
		}
		return s.Scalar(n)
	case float64:
		return s.Scalar(bindkit.Double(v))
	case nil:
		return s.Scalar(bindkit.Null())
	}
	d.logger.Debug("jsonsrc: unhandled token", slog.Any("token", tok))
	return d.syntax(nil, "unexpected token %T", tok)
}

func (d *Decoder) object(s bindkit.Sink, depth int) error {
	obj, err := s.Object()
	if err != nil {
		return err
	}
	for d.dec.More() {
		tok, err := d.next()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return d.syntax(nil, "object key must be a string")
		}
		member, err := obj.Put(key)
		if err != nil {
			return err
		}
		tok, err = d.next()
		if err != nil {
			return err
		}
		if err := d.value(tok, member, depth); err != nil {
			return err
		}
	}
	if err := d.closer('}'); err != nil {
		return err
	}
	return obj.End()
}

func (d *Decoder) array(s bindkit.Sink, depth int) error {
	arr, err := s.Array()
	if err != nil {
		return err
	}
	for d.dec.More() {
		tok, err := d.next()
		if err != nil {
			return err
		}
		el, err := arr.Add()
		if err != nil {
			return err
		}
		if err := d.value(tok, el, depth); err != nil {
			return err
		}
	}
	if err := d.closer(']'); err != nil {
		return err
	}
	return arr.End()
}

func (d *Decoder) closer(want j.Delim) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	if tok != want {
		return d.syntax(nil, "expected %q", rune(want))
	}
	return nil
}

// Produce pushes the single JSON document in r into s.
func Produce(r io.Reader, s bindkit.Sink, o Options) error {
	d := NewDecoder(r, o)
	if err := d.Produce(s); err != nil {
		if errors.Is(err, io.EOF) {
			return d.syntax(err, "empty content")
		}
		return err
	}
	return d.Finish()
}

// Bind converts the JSON document in r into a T.
func Bind[T any](reg *bindkit.Registry, r io.Reader, o Options) (T, error) {
	var out T
	s, err := reg.RootSink(bindkit.TypeOf[T](), func(v any) error {
		if v == nil {
			return nil
		}
		t, ok := v.(T)
		if !ok {
			return fmt.Errorf("%w: factory for %s built %T", bindkit.ErrInternal, bindkit.TypeOf[T](), v)
		}
		out = t
		return nil
	})
	if err != nil {
		return out, err
	}
	if err := Produce(r, s, o); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// BindBytes converts data into a T.
func BindBytes[T any](reg *bindkit.Registry, data []byte, o Options) (T, error) {
	return Bind[T](reg, bytes.NewReader(data), o)
}
