package bindkit

// RootSink returns a Sink for target positioned at the root Location. When
// the registry's Options ask for duplicate detection the sink is wrapped with
// Enforce. save receives the finished value.
func (r *Registry) RootSink(target TypeDesc, save func(any) error) (Sink, error) {
	ctx := r.NewContext(target)
	s, err := ctx.NewSink(target, save)
	if err != nil {
		return nil, err
	}
	if r.opts.Duplicates != Ignore {
		s = Enforce(r, s, Options{Duplicates: r.opts.Duplicates, OnIssue: r.opts.OnIssue, MaxDepth: -1})
	}
	return s, nil
}

// Transform converts in to target by driving the producer registered for the
// runtime type of in into the factory registered for target.
func (r *Registry) Transform(in any, target TypeDesc) (any, error) {
	var (
		out  any
		done bool
	)
	s, err := r.RootSink(target, func(v any) error {
		out, done = v, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.Value(in); err != nil {
		return nil, err
	}
	if !done {
		return nil, r.NewContext(target).UnsupportedType("producer for %T pushed no complete value", in)
	}
	return out, nil
}

// Transform is the typed form of Registry.Transform.
func Transform[T any](r *Registry, in any) (T, error) {
	v, err := r.Transform(in, TypeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v)
}
