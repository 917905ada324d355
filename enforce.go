package bindkit

import (
	"errors"
	"fmt"

	"github.com/reoring/bindkit/i18n"
	eng "github.com/reoring/bindkit/internal/engine"
)

// Enforce wraps s so that duplicate object keys and container nesting are
// checked as the producer pushes them. Failures are reported as Issues;
// Warn-level duplicates go to o.OnIssue instead. r resolves producers for
// values pushed through Sink.Value.
func Enforce(r *Registry, s Sink, o Options) Sink {
	dup := eng.DupIgnore
	switch o.Duplicates {
	case Warn:
		dup = eng.DupWarn
	case Error:
		dup = eng.DupError
	}
	e := &enforcer{reg: r, onIssue: o.OnIssue}
	maxDepth := o.maxDepth()
	if maxDepth < 0 {
		maxDepth = 0
	}
	e.t = eng.NewTracker(eng.EnforceOptions{
		OnDuplicate: dup,
		MaxDepth:    maxDepth,
		IssueSink: func(si eng.SimpleIssue) {
			if e.onIssue != nil {
				e.onIssue(toIssue(si))
			}
		},
	})
	return &enforcedSink{e: e, inner: s}
}

type enforcer struct {
	reg     *Registry
	t       *eng.Tracker
	onIssue func(Issue)
}

func toIssue(si eng.SimpleIssue) Issue {
	params := map[string]string{"detail": si.Message}
	return Issue{Path: si.Path, Code: si.Code, Message: i18n.T(si.Code, params), Offset: -1, Params: params}
}

func (e *enforcer) fail(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{toIssue(ie.SimpleIssue)}
	}
	return err
}

type enforcedSink struct {
	e     *enforcer
	inner Sink
	path  string
}

func (s *enforcedSink) Scalar(sc Scalar) error { return s.inner.Scalar(sc) }

// contextual is implemented by the sinks a Context hands out.
type contextual interface{ sinkContext() *Context }

// Value resolves the producer through the inner sink's Context when it has
// one, so failures carry its Location. Other sinks get the tracked path.
func (s *enforcedSink) Value(v any) error {
	if c, ok := s.inner.(contextual); ok {
		return c.sinkContext().produce(v, s)
	}
	err := Produce(s.e.reg, v, s)
	if err != nil && errors.Is(err, ErrUnsupportedType) {
		path := s.path
		if path == "" {
			path = "/"
		}
		return fmt.Errorf("at %s: %w", path, err)
	}
	return err
}

func (s *enforcedSink) Object() (ObjectSink, error) {
	if err := s.e.t.BeginObject(s.path); err != nil {
		s.e.t.End()
		return nil, s.e.fail(err)
	}
	obj, err := s.inner.Object()
	if err != nil {
		s.e.t.End()
		return nil, err
	}
	return &enforcedObject{e: s.e, inner: obj}, nil
}

func (s *enforcedSink) Array() (ArraySink, error) {
	if err := s.e.t.BeginArray(s.path); err != nil {
		s.e.t.End()
		return nil, s.e.fail(err)
	}
	arr, err := s.inner.Array()
	if err != nil {
		s.e.t.End()
		return nil, err
	}
	return &enforcedArray{e: s.e, inner: arr}, nil
}

type enforcedObject struct {
	e     *enforcer
	inner ObjectSink
}

func (o *enforcedObject) Put(key string) (Sink, error) {
	path, err := o.e.t.Key(key)
	if err != nil {
		return nil, o.e.fail(err)
	}
	child, err := o.inner.Put(key)
	if err != nil {
		return nil, err
	}
	return &enforcedSink{e: o.e, inner: child, path: path}, nil
}

func (o *enforcedObject) End() error {
	o.e.t.End()
	return o.inner.End()
}

type enforcedArray struct {
	e     *enforcer
	inner ArraySink
}

func (a *enforcedArray) Add() (Sink, error) {
	path := a.e.t.Index()
	child, err := a.inner.Add()
	if err != nil {
		return nil, err
	}
	return &enforcedSink{e: a.e, inner: child, path: path}, nil
}

func (a *enforcedArray) End() error {
	a.e.t.End()
	return a.inner.End()
}
