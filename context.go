package bindkit

import (
	"errors"
	"fmt"
)

// Context couples a Location with the Registry that synthesizes nested sinks.
// A root Context is created per transform; children are derived at every
// key, index and nested target boundary and never mutated.
type Context struct {
	reg  *Registry
	loc  *Location
	opts Options
}

// NewContext returns a root Context for target.
func (r *Registry) NewContext(target TypeDesc) *Context {
	return &Context{reg: r, loc: RootLocation(target), opts: r.opts}
}

func (c *Context) Registry() *Registry  { return c.reg }
func (c *Context) Location() *Location  { return c.loc }
func (c *Context) Options() Options     { return c.opts }
func (c *Context) TargetType() TypeDesc { return c.loc.TargetType() }

func (c *Context) derive(l *Location) *Context { return &Context{reg: c.reg, loc: l, opts: c.opts} }

// Key returns the child Context for an object member.
func (c *Context) Key(key string) *Context { return c.derive(c.loc.Key(key)) }

// Index returns the child Context for an array element.
func (c *Context) Index(i int) *Context { return c.derive(c.loc.Index(i)) }

// Target returns a Context that converts to t at the same position.
func (c *Context) Target(t TypeDesc) *Context {
	if c.loc.elem.Kind == ElemTarget && c.loc.elem.Target == t {
		return c
	}
	return c.derive(c.loc.Target(t))
}

// NewSink looks up the factory for t and returns a Sink that hands the value
// it builds to save. A missing registration is an UnsupportedType failure.
func (c *Context) NewSink(t TypeDesc, save func(any) error) (Sink, error) {
	f := c.reg.LookupFactory(t)
	if f == nil {
		return nil, c.UnsupportedType("no factory registered for %s", t)
	}
	return &valueSink{ctx: c.Target(t), f: f, save: save}, nil
}

// NewKindSink returns a Sink that narrows scalars into kind k using the
// registry's primitive factory and hands them to save.
func (c *Context) NewKindSink(k Kind, save func(Scalar) error) (Sink, error) {
	if !k.IsPrimitive() {
		return nil, c.UnsupportedType("%s is not a primitive kind", k)
	}
	return &kindSink{ctx: c, f: c.reg.prims[k.slot()], save: save}, nil
}

// UnsupportedType builds an *UnsupportedTypeError at the current Location.
func (c *Context) UnsupportedType(format string, args ...any) error {
	return &UnsupportedTypeError{Location: c.loc, Code: CodeUnsupportedType, Msg: fmt.Sprintf(format, args...)}
}

// Overflow reports a value outside the range of kind k.
func (c *Context) Overflow(s Scalar, k Kind) error {
	return &UnsupportedTypeError{Location: c.loc, Code: CodeOverflow, Msg: fmt.Sprintf("%s is out of range for %s", s, k)}
}

// UnknownKey reports that the consumer rejects the key of the current
// Location.
func (c *Context) UnknownKey() error {
	loc, key := c.loc, ""
	for loc != nil && loc.elem.Kind == ElemTarget {
		loc = loc.parent
	}
	if loc != nil && loc.elem.Kind == ElemKey {
		key = loc.elem.Key
		loc = loc.parent
	}
	if loc == nil {
		loc = c.loc
	}
	return &UnknownKeyError{Location: loc, Key: key, Target: loc.TargetType()}
}

// Wrap annotates a foreign error with the current Location. Errors that
// already carry a location pass through unchanged.
func (c *Context) Wrap(err error) error {
	if err == nil {
		return nil
	}
	var carrier IssueCarrier
	var iss Issues
	if errors.As(err, &carrier) || errors.As(err, &iss) || errors.Is(err, ErrInternal) {
		return err
	}
	return &UnsupportedTypeError{Location: c.loc, Code: CodeUnsupportedType, Msg: err.Error(), Err: err}
}

// checkDepth enforces Options.MaxDepth on key/index nesting.
func (c *Context) checkDepth() error {
	limit := c.opts.maxDepth()
	if limit < 0 || c.loc.depth <= limit {
		return nil
	}
	return &UnsupportedTypeError{Location: c.loc, Code: CodeDepthExceeded, Msg: fmt.Sprintf("nesting exceeds %d levels", limit)}
}
