package hostrt

import "github.com/graphyne/graphyne/internal/hostval"

// Shape tags the parameter list a resolver was registered with. The variants
// are fixed at registration so dispatch needs no introspection.
type Shape int

const (
	ShapeSelfOnly Shape = iota
	ShapeSelfAndContext
	ShapeSelfAndArgs
	ShapeSelfContextAndArgs
)

// callFunc is the normalized resolver form. It always runs under the token;
// unused parameters are zero for narrower shapes.
type callFunc func(tk *hostval.Token, self any, rctx any, args map[string]any) (any, error)

// Coercer transforms one argument value on the host side before the resolver
// sees it.
type Coercer func(tk *hostval.Token, v any) (any, error)

// Entry is one registered resolver: the callable, its parameter shape, the
// async-iterator flag marking subscription sources, and optional per-argument
// coercers.
type Entry struct {
	Shape       Shape
	IsAsyncIter bool
	ArgCoercers map[string]Coercer
	call        callFunc
}

// SelfOnly registers a resolver invoked with the parent value alone.
func SelfOnly(fn func(tk *hostval.Token, self any) (any, error)) *Entry {
	return &Entry{Shape: ShapeSelfOnly, call: func(tk *hostval.Token, self, _ any, _ map[string]any) (any, error) {
		return fn(tk, self)
	}}
}

// SelfAndContext registers a resolver invoked with the parent value and the
// per-invocation context object.
func SelfAndContext(fn func(tk *hostval.Token, self, rctx any) (any, error)) *Entry {
	return &Entry{Shape: ShapeSelfAndContext, call: func(tk *hostval.Token, self, rctx any, _ map[string]any) (any, error) {
		return fn(tk, self, rctx)
	}}
}

// SelfAndArgs registers a resolver invoked with the parent value and the
// coerced field arguments.
func SelfAndArgs(fn func(tk *hostval.Token, self any, args map[string]any) (any, error)) *Entry {
	return &Entry{Shape: ShapeSelfAndArgs, call: func(tk *hostval.Token, self, _ any, args map[string]any) (any, error) {
		return fn(tk, self, args)
	}}
}

// SelfContextAndArgs registers a resolver invoked with the parent value, the
// context object, and the coerced field arguments.
func SelfContextAndArgs(fn func(tk *hostval.Token, self, rctx any, args map[string]any) (any, error)) *Entry {
	return &Entry{Shape: ShapeSelfContextAndArgs, call: fn}
}

// AsyncIterator marks the entry as producing an async iterator rather than a
// coroutine. Required for subscription root fields.
func (e *Entry) AsyncIterator() *Entry {
	e.IsAsyncIter = true
	return e
}

// CoerceArg attaches a host-side coercer for the named argument.
func (e *Entry) CoerceArg(name string, c Coercer) *Entry {
	if e.ArgCoercers == nil {
		e.ArgCoercers = make(map[string]Coercer)
	}
	e.ArgCoercers[name] = c
	return e
}

func (e *Entry) needsContext() bool {
	return e.Shape == ShapeSelfAndContext || e.Shape == ShapeSelfContextAndArgs
}

// ScalarBinding routes instances of a host type through a custom serializer.
// Matches runs without the token and must be a cheap type check; Serialize
// runs under it.
type ScalarBinding struct {
	Name      string
	Matches   func(v any) bool
	Serialize func(tk *hostval.Token, v any) (any, error)
}

// ContextFactory builds the host-visible context object handed to resolvers
// whose shape requests one. Runs under the token.
type ContextFactory func(tk *hostval.Token, c *Context) any

// Registry collects everything the host contributes to a runtime: resolver
// entries keyed by the schema's resolver strings, scalar bindings, and an
// optional context factory.
type Registry struct {
	entries    map[string]*Entry
	scalars    []*ScalarBinding
	newContext ContextFactory
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register binds a resolver entry to a key referenced by field records.
func (r *Registry) Register(key string, e *Entry) *Registry {
	r.entries[key] = e
	return r
}

// BindScalar appends a scalar binding. Bindings are consulted in registration
// order; the first match wins.
func (r *Registry) BindScalar(b *ScalarBinding) *Registry {
	r.scalars = append(r.scalars, b)
	return r
}

// SetContextFactory replaces the default context object construction.
func (r *Registry) SetContextFactory(f ContextFactory) *Registry {
	r.newContext = f
	return r
}

// Entry returns the resolver registered under key, or nil.
func (r *Registry) Entry(key string) *Entry { return r.entries[key] }
