package hostval

import (
	"context"
	"errors"
	"sync"
)

// ErrStopIteration signals normal exhaustion of a host async iterator.
var ErrStopIteration = errors.New("stop iteration")

// Awaitable is a host coroutine: work that completes at most once with a
// value or an error. Await registers the completion callback and is always
// called under the token; the callback itself may fire on any goroutine and
// must therefore be thread-safe. The returned cancel drops the callback
// without stopping the host work (fire-and-forget).
type Awaitable interface {
	Await(tk *Token, complete func(v any, err error)) (cancel func())
}

// AsyncIterator yields one awaitable per element. Exhaustion is reported by
// returning ErrStopIteration from NextItem or by completing the awaitable
// with it.
type AsyncIterator interface {
	NextItem(tk *Token) (Awaitable, error)
}

// AsyncIterable produces an AsyncIterator, mirroring the "get async iterator"
// protocol of cooperative host runtimes.
type AsyncIterable interface {
	AsyncIter(tk *Token) (AsyncIterator, error)
}

// Promise is a resolvable awaitable. Resolve/Reject may be called from any
// goroutine; the first call wins and later calls are no-ops.
type Promise struct {
	mu       sync.Mutex
	done     bool
	v        any
	err      error
	waiters  map[int]func(any, error)
	nextWait int
}

func NewPromise() *Promise {
	return &Promise{waiters: make(map[int]func(any, error))}
}

func (p *Promise) Resolve(v any)      { p.complete(v, nil) }
func (p *Promise) Reject(err error)   { p.complete(nil, err) }

func (p *Promise) complete(v any, err error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.v, p.err = v, err
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()
	for _, w := range waiters {
		w(v, err)
	}
}

func (p *Promise) Await(tk *Token, complete func(any, error)) (cancel func()) {
	p.mu.Lock()
	if p.done {
		v, err := p.v, p.err
		p.mu.Unlock()
		complete(v, err)
		return func() {}
	}
	id := p.nextWait
	p.nextWait++
	p.waiters[id] = complete
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.waiters, id)
		p.mu.Unlock()
	}
}

// Resolved returns an awaitable already completed with v.
func Resolved(v any) Awaitable {
	p := NewPromise()
	p.Resolve(v)
	return p
}

// Failed returns an awaitable already completed with err.
func Failed(err error) Awaitable {
	p := NewPromise()
	p.Reject(err)
	return p
}

// Go wraps a plain function as an awaitable. The function starts on its own
// goroutine when first awaited, so it must not touch host objects.
func Go(fn func() (any, error)) Awaitable {
	return &goAwaitable{fn: fn}
}

type goAwaitable struct {
	fn   func() (any, error)
	once sync.Once
	p    *Promise
}

func (g *goAwaitable) Await(tk *Token, complete func(any, error)) (cancel func()) {
	g.once.Do(func() {
		g.p = NewPromise()
		fn := g.fn
		go func() {
			v, err := fn()
			if err != nil {
				g.p.Reject(err)
				return
			}
			g.p.Resolve(v)
		}()
	})
	return g.p.Await(tk, complete)
}

// AwaitBridge converts a host awaitable into a synchronous engine wait.
// Registration happens under the token; the token is not held while waiting.
// Cancellation via ctx drops the registered waker and leaves the host task to
// its own termination rules.
func AwaitBridge(ctx context.Context, loop *Loop, aw Awaitable) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	var cancel func()
	err := loop.Do(ctx, func(tk *Token) error {
		cancel = aw.Await(tk, func(v any, err error) {
			select {
			case ch <- result{v: v, err: err}:
			default:
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		if cancel != nil {
			go loop.submit(func(*Token) { cancel() })
		}
		return nil, ctx.Err()
	}
}

// IterOf returns an async iterator over a fixed sequence of values.
func IterOf(values ...any) AsyncIterator {
	return &sliceIterator{values: values}
}

type sliceIterator struct {
	mu     sync.Mutex
	values []any
	pos    int
}

func (s *sliceIterator) NextItem(tk *Token) (Awaitable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.values) {
		return nil, ErrStopIteration
	}
	v := s.values[s.pos]
	s.pos++
	return Resolved(v), nil
}

// IterFromChan adapts a Go channel to the async-iterator protocol. A closed
// channel ends the iteration.
func IterFromChan(ch <-chan any) AsyncIterator {
	return &chanIterator{ch: ch}
}

type chanIterator struct {
	ch <-chan any
}

func (c *chanIterator) NextItem(tk *Token) (Awaitable, error) {
	ch := c.ch
	return Go(func() (any, error) {
		v, ok := <-ch
		if !ok {
			return nil, ErrStopIteration
		}
		return v, nil
	}), nil
}
