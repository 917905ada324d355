package bindkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
)

// Resolver is anything a Registry can delegate lookups to. *Registry is the
// usual implementation; package collection supplies a Resolver that derives
// factories for composite Go types on demand.
type Resolver interface {
	LookupFactory(t TypeDesc) Factory
	LookupProducer(t TypeDesc) Producer
}

// Registry maps type descriptors to factories and producers. It is immutable
// once built except for its lookup cache, which is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[TypeDesc]Factory
	producers map[TypeDesc]Producer
	prims     [len(PrimitiveKinds)]PrimitiveFactory
	delegates []Resolver
	opts      Options
	log       *slog.Logger
}

// Builder assembles a Registry. It is not safe for concurrent use and may be
// built once.
type Builder struct {
	reg  *Registry
	errs []error
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))

// NewBuilder returns a Builder preloaded with the built-in adapters and the
// default primitive factories.
func NewBuilder() *Builder {
	r := &Registry{
		factories: make(map[TypeDesc]Factory),
		producers: make(map[TypeDesc]Producer),
		log:       discardLogger,
	}
	for _, k := range PrimitiveKinds {
		r.prims[k.slot()] = defaultPrimitive(k)
	}
	b := &Builder{reg: r}
	registerBuiltins(b)
	return b
}

// RegisterType installs factory and producer for t. Either may be nil. A later
// registration for the same descriptor replaces the earlier one.
func (b *Builder) RegisterType(t TypeDesc, f Factory, p Producer) *Builder {
	if b.reg == nil {
		b.errs = append(b.errs, errors.New("bindkit: builder already built"))
		return b
	}
	if t.IsWildcard() {
		b.errs = append(b.errs, fmt.Errorf("bindkit: cannot register wildcard %s", t))
		return b
	}
	if f != nil {
		b.reg.factories[t] = f
	}
	if p != nil {
		b.reg.producers[t] = p
	}
	return b
}

// RegisterKind replaces the factory used for primitive kind k.
func (b *Builder) RegisterKind(k Kind, f PrimitiveFactory) *Builder {
	switch {
	case b.reg == nil:
		b.errs = append(b.errs, errors.New("bindkit: builder already built"))
	case !k.IsPrimitive():
		b.errs = append(b.errs, fmt.Errorf("bindkit: %s is not a primitive kind", k))
	case f == nil:
		b.errs = append(b.errs, fmt.Errorf("bindkit: nil factory for %s", k))
	default:
		b.reg.prims[k.slot()] = f
	}
	return b
}

// AddDelegate attaches a Resolver consulted when a lookup misses locally.
// Delegates added later take precedence. The registry under construction is
// only reachable after Build, which closes the Builder, so a registry can
// never delegate to itself.
func (b *Builder) AddDelegate(d Resolver) *Builder {
	switch {
	case b.reg == nil:
		b.errs = append(b.errs, errors.New("bindkit: builder already built"))
	case d == nil:
		b.errs = append(b.errs, errors.New("bindkit: nil delegate"))
	default:
		b.reg.delegates = append(b.reg.delegates, d)
	}
	return b
}

// WithLogger sets the logger used to trace delegate resolution.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if b.reg != nil && l != nil {
		b.reg.log = l
	}
	return b
}

// WithOptions sets the Options copied into every root Context.
func (b *Builder) WithOptions(o Options) *Builder {
	if b.reg != nil {
		b.reg.opts = o
	}
	return b
}

// Build freezes the registry. The Builder cannot be used afterwards.
func (b *Builder) Build() (*Registry, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if b.reg == nil {
		return nil, errors.New("bindkit: builder already built")
	}
	r := b.reg
	b.reg = nil
	r.log.Debug("registry built", "types", len(r.factories), "delegates", len(r.delegates))
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Options returns the registry-wide options.
func (r *Registry) Options() Options { return r.opts }

// Primitive returns the factory installed for primitive kind k.
func (r *Registry) Primitive(k Kind) PrimitiveFactory {
	if !k.IsPrimitive() {
		return nil
	}
	return r.prims[k.slot()]
}

// LookupFactory resolves t to a factory, or nil.
func (r *Registry) LookupFactory(t TypeDesc) Factory {
	return lookup(r, r.factories, t, Resolver.LookupFactory, func(f Factory) bool { return f != nil }, "factory")
}

// LookupProducer resolves t to a producer, or nil.
func (r *Registry) LookupProducer(t TypeDesc) Producer {
	return lookup(r, r.producers, t, Resolver.LookupProducer, func(p Producer) bool { return p != nil }, "producer")
}

// lookup reads the cache under the shared lock and, on a miss, searches the
// delegates newest first under the exclusive lock. Only hits are cached so
// that a type can still resolve later through a different path.
func lookup[V any](r *Registry, cache map[TypeDesc]V, t TypeDesc, find func(Resolver, TypeDesc) V, found func(V) bool, what string) V {
	var zero V
	if t.IsWildcard() {
		t = t.Bound()
	}
	r.mu.RLock()
	v, ok := cache[t]
	r.mu.RUnlock()
	if ok {
		return v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := cache[t]; ok {
		return v
	}
	for i := len(r.delegates) - 1; i >= 0; i-- {
		if v := find(r.delegates[i], t); found(v) {
			cache[t] = v
			r.log.Debug("delegate resolved", "kind", what, "type", t.String(), "delegate", i)
			return v
		}
	}
	if r.log.Enabled(context.Background(), slog.LevelDebug) {
		r.log.Debug("lookup missed", "kind", what, "type", t.String())
	}
	return zero
}
