// Package yamlsrc connects gopkg.in/yaml.v3 documents to bindkit.
//
// ProduceNode walks a *yaml.Node and pushes it into any Sink; Register
// installs an adapter that builds *yaml.Node trees, so a registry can convert
// any registered value into YAML and back.
package yamlsrc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/i18n"
	"github.com/reoring/bindkit/json5"
)

// Error is a YAML structure bindkit cannot represent, such as a mapping key
// that is not a scalar.
type Error struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "yaml: " + e.Msg
	}
	return fmt.Sprintf("yaml: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Issue projects the error onto bindkit's Issue model.
func (e *Error) Issue() bindkit.Issue {
	params := map[string]string{"detail": e.Msg}
	return bindkit.Issue{
		Path:    "/",
		Code:    bindkit.CodeParseError,
		Message: i18n.T(bindkit.CodeParseError, params),
		Offset:  -1,
		Line:    e.Line,
		Params:  params,
		Cause:   e.Err,
	}
}

func nodeError(n *yaml.Node, err error, format string, args ...any) error {
	return &Error{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Options configures decoding.
type Options struct {
	// Strict rejects mappings that repeat a key with *DuplicateKeyError.
	Strict bool
}

// DuplicateKeyError reports a key repeated within one mapping, with the
// positions of both occurrences.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Issue projects the error onto bindkit's Issue model.
func (e *DuplicateKeyError) Issue() bindkit.Issue {
	params := map[string]string{"key": e.Key}
	return bindkit.Issue{
		Path:    "/",
		Code:    bindkit.CodeDuplicateKey,
		Message: i18n.T(bindkit.CodeDuplicateKey, params),
		Offset:  -1,
		Line:    e.Line,
		Params:  params,
	}
}

// Decoder reads a stream of YAML documents.
type Decoder struct {
	dec *yaml.Decoder
	o   Options
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, o Options) *Decoder {
	return &Decoder{dec: yaml.NewDecoder(r), o: o}
}

// Produce pushes the next document into s. It returns io.EOF when the
// stream is exhausted.
func (d *Decoder) Produce(s bindkit.Sink) error {
	var doc yaml.Node
	if err := d.dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return &Error{Msg: err.Error(), Err: err}
	}
	return newWalker(d.o).produce(&doc, s, 0)
}

// Produce decodes the first document of r and pushes it into s.
func Produce(r io.Reader, s bindkit.Sink, o Options) error {
	err := NewDecoder(r, o).Produce(s)
	if errors.Is(err, io.EOF) {
		return &Error{Msg: "empty content", Err: err}
	}
	return err
}

// Bind converts the first YAML document of r into a T.
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

// ProduceNode pushes n into s. Aliases are followed; merge keys are not
// expanded.
func ProduceNode(n *yaml.Node, s bindkit.Sink) error {
	return newWalker(Options{}).produce(n, s, 0)
}

// maxAliasDepth bounds alias chains so a self-referencing document fails
// instead of recursing forever.
const maxAliasDepth = 1000

// Expansion budget, as in yaml.v3's decoder: once a document has produced
// more than 1000 nodes, the share reached through aliases may not exceed a
// ratio that shrinks from 99% (up to 400k nodes) to 10% (4M nodes and more).
const (
	aliasRatioLow  = 400000
	aliasRatioHigh = 4000000
)

func allowedAliasRatio(produced int) float64 {
	switch {
	case produced <= aliasRatioLow:
		return 0.99
	case produced >= aliasRatioHigh:
		return 0.10
	}
	return 0.99 - 0.89*(float64(produced-aliasRatioLow)/(aliasRatioHigh-aliasRatioLow))
}

// walker produces one document, counting nodes to bound alias expansion.
type walker struct {
	o        Options
	produced int
	aliased  int
}

func newWalker(o Options) *walker { return &walker{o: o} }

func (w *walker) produce(n *yaml.Node, s bindkit.Sink, aliases int) error {
	if n == nil {
		return s.Scalar(bindkit.Null())
	}
	w.produced++
	if aliases > 0 {
		w.aliased++
	}
	if w.aliased > 100 && w.produced > 1000 && float64(w.aliased)/float64(w.produced) > allowedAliasRatio(w.produced) {
		return nodeError(n, nil, "document contains excessive aliasing")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return s.Scalar(bindkit.Null())
		}
		return w.produce(n.Content[0], s, aliases)
	case yaml.AliasNode:
		if aliases >= maxAliasDepth {
			return nodeError(n, nil, "alias chain exceeds %d levels", maxAliasDepth)
		}
		return w.produce(n.Alias, s, aliases+1)
	case yaml.MappingNode:
		obj, err := s.Object()
		if err != nil {
			return err
		}
		var first map[string]*yaml.Node
		if w.o.Strict {
			first = make(map[string]*yaml.Node, len(n.Content)/2)
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nodeError(k, nil, "mapping key must be a scalar")
			}
			if first != nil {
				if f, dup := first[k.Value]; dup {
					return &DuplicateKeyError{Key: k.Value, FirstLine: f.Line, FirstCol: f.Column, Line: k.Line, Col: k.Column}
				}
				first[k.Value] = k
			}
			member, err := obj.Put(k.Value)
			if err != nil {
				return err
			}
			if err := w.produce(n.Content[i+1], member, aliases); err != nil {
				return err
			}
		}
		return obj.End()
	case yaml.SequenceNode:
		arr, err := s.Array()
		if err != nil {
			return err
		}
		for _, c := range n.Content {
			el, err := arr.Add()
			if err != nil {
				return err
			}
			if err := w.produce(c, el, aliases); err != nil {
				return err
			}
		}
		return arr.End()
	case yaml.ScalarNode:
		v, err := scalar(n)
		if err != nil {
			return err
		}
		return s.Scalar(v)
	}
	return nodeError(n, nil, "unsupported node kind %d", n.Kind)
}

// scalar resolves a scalar node by its tag. Numbers keep full precision;
// tags without a bindkit kind (timestamps, binary) are read as strings.
func scalar(n *yaml.Node) (bindkit.Scalar, error) {
	switch n.ShortTag() {
	case "!!null":
		return bindkit.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return bindkit.Scalar{}, nodeError(n, err, "invalid bool %q", n.Value)
		}
		return bindkit.Bool(b), nil
	case "!!int":
		return integer(n)
	case "!!float":
		return floating(n)
	}
	return bindkit.String(n.Value), nil
}

func integer(n *yaml.Node) (bindkit.Scalar, error) {
	text := n.Value
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return bindkit.Long(v), nil
	}
	if b, ok := new(big.Int).SetString(text, 0); ok {
		return bindkit.BigInt(b), nil
	}
	return bindkit.Scalar{}, nodeError(n, nil, "invalid integer %q", n.Value)
}

func floating(n *yaml.Node) (bindkit.Scalar, error) {
	switch strings.ToLower(n.Value) {
	case ".inf", "+.inf":
		return bindkit.Double(math.Inf(1)), nil
	case "-.inf":
		return bindkit.Double(math.Inf(-1)), nil
	case ".nan":
		return bindkit.Double(math.NaN()), nil
	}
	v, err := json5.ParseNumber(strings.ReplaceAll(n.Value, "_", ""))
	if err != nil {
		return bindkit.Scalar{}, nodeError(n, err, "invalid float %q", n.Value)
	}
	return v, nil
}
