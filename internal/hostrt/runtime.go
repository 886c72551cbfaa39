// Package hostrt implements the executor's Runtime over the host runtime:
// resolver registry and dispatch, the bidirectional value codec, abstract
// type resolution, leaf serialization, and the subscription stream adapter.
//
// The split of responsibilities is strict. The executor owns selection
// walking, batching and error paths; this package owns everything that
// touches host values, and every such touch happens under the host loop's
// execution token.
package hostrt

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventbus "github.com/graphyne/graphyne/internal/eventbus"
	events "github.com/graphyne/graphyne/internal/events"
	executor "github.com/graphyne/graphyne/internal/executor"
	hostval "github.com/graphyne/graphyne/internal/hostval"
	schema "github.com/graphyne/graphyne/internal/schema"
	value "github.com/graphyne/graphyne/internal/value"
)

// defaultWorkerThreads bounds the per-batch fan-out when no explicit worker
// count is configured.
const defaultWorkerThreads = 8

// Options configures how resolver batches are scheduled.
type Options struct {
	// UseCurrentThread runs each batch sequentially on the calling goroutine.
	UseCurrentThread bool
	// WorkerThreads caps the per-batch worker pool. Zero selects the default.
	// Setting it together with UseCurrentThread is a configuration conflict.
	WorkerThreads int
}

// fieldContext is the immutable per-field descriptor assembled at runtime
// construction: resolver entry (nil for resolverless fields), source
// attribute name, output type and precomputed hint.
type fieldContext struct {
	objectType string
	name       string
	source     string
	typ        *schema.TypeRef
	hint       schema.Hint
	entry      *Entry
}

func (fc *fieldContext) label() string { return fc.objectType + "." + fc.name }

// Runtime binds a built schema to a resolver registry over one host loop.
// It is immutable after construction and safe for concurrent requests.
type Runtime struct {
	loop     *hostval.Loop
	schema   *schema.Schema
	registry *Registry
	scalars  []*ScalarBinding
	abstract map[string]bool
	fields   map[string]*fieldContext
	opts     Options
	workers  int
}

// NewRuntime wires the schema's fields to the registry's entries. Every
// field record naming a resolver must have a registered entry.
func NewRuntime(loop *hostval.Loop, sch *schema.Schema, reg *Registry, opts Options) (*Runtime, error) {
	if opts.UseCurrentThread && opts.WorkerThreads > 0 {
		return nil, ErrRuntimeThreadsConflict
	}
	if reg == nil {
		reg = NewRegistry()
	}
	workers := opts.WorkerThreads
	if workers <= 0 {
		workers = defaultWorkerThreads
	}
	r := &Runtime{
		loop:     loop,
		schema:   sch,
		registry: reg,
		scalars:  reg.scalars,
		abstract: sch.AbstractTypes(),
		fields:   make(map[string]*fieldContext),
		opts:     opts,
		workers:  workers,
	}
	for _, t := range sch.Types {
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			continue
		}
		for _, f := range t.Fields {
			fc := &fieldContext{
				objectType: t.Name,
				name:       f.Name,
				source:     f.Source,
				typ:        f.Type,
				hint:       f.Hint,
			}
			if f.Resolver != "" {
				e := reg.Entry(f.Resolver)
				if e == nil {
					return nil, fmt.Errorf("no resolver registered for key %q (field %s)", f.Resolver, fc.label())
				}
				fc.entry = e
			}
			r.fields[fc.label()] = fc
		}
	}
	return r, nil
}

// Loop returns the host loop the runtime executes on.
func (r *Runtime) Loop() *hostval.Loop { return r.loop }

// ToValue converts a host value to canonical form using the runtime's scalar
// bindings. Used for request variables.
func (r *Runtime) ToValue(ctx context.Context, v any) (value.Value, error) {
	out, err := r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		return toValue(tk, r.scalars, v, true)
	})
	if err != nil {
		return value.Null(), err
	}
	return out.(value.Value), nil
}

// ResolveSync resolves a resolverless field by attribute access on the parent
// value, falling back to the request root at the top level. A missing
// attribute yields null, never an error.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	fc := r.fields[objectType+"."+field]
	if fc == nil {
		return nil, fmt.Errorf("unknown field %s.%s", objectType, field)
	}
	parent := source
	if parent == nil {
		if rd := executor.RequestDataFrom(ctx); rd != nil {
			parent = rd.Root
		}
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: field %s", ErrNoParentValue, fc.label())
	}
	return r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		attr, ok := attrOf(tk, parent, fc.source)
		if !ok || attr == nil {
			return nil, nil
		}
		return r.fieldValueForType(tk, attr, fc.typ, fc.hint)
	})
}

// BatchResolveAsync dispatches one depth's resolver-backed tasks. Tasks fan
// out on a bounded worker pool unless current-thread mode is configured; the
// token is only ever held inside individual host calls, so workers interleave
// at await points exactly like the host's own tasks.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	labels := make([]string, len(tasks))
	for i, t := range tasks {
		labels[i] = t.ObjectType + "." + t.Field
	}
	eventbus.Publish(ctx, events.ResolveStart{Fields: labels})
	started := time.Now()

	run := func(i int) {
		v, err := r.resolveAsync(ctx, tasks[i])
		results[i] = executor.AsyncResolveResult{Value: v, Error: err}
	}
	if r.opts.UseCurrentThread || len(tasks) == 1 {
		for i := range tasks {
			run(i)
		}
	} else {
		workers := r.workers
		if workers > len(tasks) {
			workers = len(tasks)
		}
		idx := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					run(i)
				}
			}()
		}
		for i := range tasks {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	errs := make([]error, len(results))
	for i := range results {
		errs[i] = results[i].Error
	}
	eventbus.Publish(ctx, events.ResolveFinish{Fields: labels, Errors: errs, Duration: time.Since(started)})
	return results
}

func (r *Runtime) resolveAsync(ctx context.Context, task executor.AsyncResolveTask) (any, error) {
	fc := r.fields[task.ObjectType+"."+task.Field]
	if fc == nil {
		return nil, fmt.Errorf("unknown field %s.%s", task.ObjectType, task.Field)
	}
	if fc.entry == nil {
		return nil, fmt.Errorf("field %s has no resolver", fc.label())
	}
	if fc.entry.IsAsyncIter {
		return nil, fmt.Errorf("resolver for %s produces an async iterator; only subscription fields may stream", fc.label())
	}
	rd := executor.RequestDataFrom(ctx)
	self := task.Source
	if self == nil && rd != nil {
		self = rd.Root
	}

	res, err := r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		return r.invoke(tk, fc, self, rd, task.Args, task.Lookahead)
	})
	if err != nil {
		return nil, err
	}
	if aw, ok := res.(hostval.Awaitable); ok {
		res, err = hostval.AwaitBridge(ctx, r.loop, aw)
		if err != nil {
			return nil, err
		}
	}
	return r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		return r.fieldValueForType(tk, res, fc.typ, fc.hint)
	})
}

// invoke runs a resolver entry under the token: argument coercion, optional
// context construction, then the call with the shape's parameter list.
func (r *Runtime) invoke(tk *hostval.Token, fc *fieldContext, self any, rd *executor.RequestData, args map[string]any, lookahead func() *executor.Lookahead) (any, error) {
	e := fc.entry
	hargs := args
	if len(e.ArgCoercers) > 0 {
		hargs = make(map[string]any, len(args))
		for k, v := range args {
			hargs[k] = v
		}
		for name, coerce := range e.ArgCoercers {
			v, ok := hargs[name]
			if !ok {
				continue
			}
			cv, err := coerce(tk, v)
			if err != nil {
				return nil, err
			}
			hargs[name] = cv
		}
	}
	var rctx any
	if e.needsContext() {
		c := &Context{ObjectType: fc.objectType, Field: fc.name, lookahead: lookahead}
		if rd != nil {
			c.Root = rd.Root
			c.Value = rd.Context
		}
		if r.registry.newContext != nil {
			rctx = r.registry.newContext(tk, c)
		} else {
			rctx = c
		}
	}
	return e.call(tk, bindSelf(tk, self), rctx, hargs)
}

// bindSelf strips the handle layer so resolvers see the host object itself.
func bindSelf(tk *hostval.Token, self any) any {
	switch x := self.(type) {
	case *hostval.Handle:
		return x.Bind(tk)
	case typedHandle:
		return x.handle.Bind(tk)
	}
	return self
}

// ResolveType reads the concrete type tag attached during field-value
// translation of abstract-typed results.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, v any) (string, error) {
	if th, ok := v.(typedHandle); ok {
		return th.typeName, nil
	}
	return "", fmt.Errorf("%w: %s field received %T", ErrAbstractTypeRequiresObject, abstractType, v)
}

// ResolveUnionConcreteValue unwraps a tagged union value for completion.
func (r *Runtime) ResolveUnionConcreteValue(ctx context.Context, unionTypeName string, v any) (any, error) {
	if th, ok := v.(typedHandle); ok {
		return th.handle, nil
	}
	return v, nil
}

// ResolveInterfaceConcreteValue unwraps a tagged interface value for
// completion.
func (r *Runtime) ResolveInterfaceConcreteValue(ctx context.Context, interfaceTypeName string, v any) (any, error) {
	if th, ok := v.(typedHandle); ok {
		return th.handle, nil
	}
	return v, nil
}

// SerializeLeafValue serializes a scalar or enum value: scalar bindings
// first, then enum metadata, then native passthrough with bytes as base64.
// A matched binding's result is finished without consulting bindings again.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	for _, b := range r.scalars {
		if b.Matches(v) {
			serialize := b.Serialize
			sv, err := r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
				return serialize(tk, v)
			})
			if err != nil {
				return nil, err
			}
			return serializeLeaf(sv)
		}
	}
	return serializeLeaf(v)
}

// ResolveSubscription produces the pull-driven stream behind a subscription
// root field. The resolver result (or, for resolverless fields, the source
// attribute) must implement the async-iterable or async-iterator protocol.
func (r *Runtime) ResolveSubscription(ctx context.Context, objectType string, field string, source any, args map[string]any, lookahead func() *executor.Lookahead) (executor.SubscriptionSource, error) {
	fc := r.fields[objectType+"."+field]
	if fc == nil {
		return nil, fmt.Errorf("unknown field %s.%s", objectType, field)
	}
	rd := executor.RequestDataFrom(ctx)
	self := source
	if self == nil && rd != nil {
		self = rd.Root
	}

	var raw any
	var err error
	if fc.entry != nil {
		raw, err = r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
			return r.invoke(tk, fc, self, rd, args, lookahead)
		})
	} else {
		if self == nil {
			return nil, fmt.Errorf("%w: field %s", ErrNoParentValue, fc.label())
		}
		raw, err = r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
			attr, _ := attrOf(tk, self, fc.source)
			return attr, nil
		})
	}
	if err != nil {
		return nil, err
	}
	if aw, ok := raw.(hostval.Awaitable); ok && (fc.entry == nil || !fc.entry.IsAsyncIter) {
		raw, err = hostval.AwaitBridge(ctx, r.loop, aw)
		if err != nil {
			return nil, err
		}
	}

	h, err := r.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		switch x := raw.(type) {
		case hostval.AsyncIterable:
			it, err := x.AsyncIter(tk)
			if err != nil {
				return nil, err
			}
			return hostval.NewHandle(tk, it), nil
		case hostval.AsyncIterator:
			return hostval.NewHandle(tk, x), nil
		}
		return nil, fmt.Errorf("%w: field %s returned %T", ErrSubscriptionRequiresAsyncIterator, fc.label(), raw)
	})
	if err != nil {
		return nil, err
	}
	return newStreamSource(r, fc, h.(*hostval.Handle)), nil
}
