// Package hostval provides the host runtime boundary: a cooperatively
// scheduled loop that owns the exclusive execution token, ownership-safe
// handles around host objects, and the awaitable bridge that lets engine
// goroutines wait on host work without holding the token.
//
// The discipline mirrors a reference-counted, single-threaded host: a Handle
// may travel freely between goroutines, but every dereference takes a *Token,
// and only the loop goroutine ever holds one.
package hostval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrLoopClosed = errors.New("host loop closed")

// Token is proof of exclusive access to the host runtime. It cannot be
// constructed outside this package; host-facing APIs take it as a parameter
// so that calling them off-loop is a compile-time impossibility.
type Token struct {
	loop *Loop
}

// Loop is the host runtime's scheduler. A single goroutine owns the token and
// executes submitted jobs one at a time.
type Loop struct {
	jobs      chan func(*Token)
	done      chan struct{}
	closeOnce sync.Once
}

func NewLoop() *Loop {
	l := &Loop{
		jobs: make(chan func(*Token)),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	tk := &Token{loop: l}
	for {
		select {
		case job := <-l.jobs:
			job(tk)
		case <-l.done:
			return
		}
	}
}

// Close stops the loop. Jobs submitted after Close fail with ErrLoopClosed;
// a job already running completes.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// submit hands a job to the loop without waiting for it to run.
func (l *Loop) submit(job func(*Token)) bool {
	select {
	case l.jobs <- job:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn under the execution token and waits for it to finish. Must not
// be called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func(*Token) error) error {
	_, err := l.Eval(ctx, func(tk *Token) (any, error) {
		return nil, fn(tk)
	})
	return err
}

// Eval runs fn under the execution token and returns its result. If ctx is
// cancelled before the job is picked up or while it runs, Eval returns the
// context error and the job, once started, finishes on its own.
func (l *Loop) Eval(ctx context.Context, fn func(*Token) (any, error)) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	job := func(tk *Token) {
		v, err := fn(tk)
		ch <- result{v: v, err: err}
	}
	select {
	case l.jobs <- job:
	case <-l.done:
		return nil, ErrLoopClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HostCloser is implemented by host objects that hold resources needing
// deterministic release. The hook runs on the loop, under the token.
type HostCloser interface {
	HostClose(tk *Token)
}

// Handle is an ownership-safe wrapper around a host object. The handle itself
// is safe to move and store across goroutines; the wrapped object may only be
// touched under the token.
type Handle struct {
	loop *Loop
	obj  any
	refs atomic.Int64
}

// NewHandle wraps obj in a handle with one owned reference.
func NewHandle(tk *Token, obj any) *Handle {
	h := &Handle{loop: tk.loop, obj: obj}
	h.refs.Store(1)
	return h
}

// Bind returns a transient reference to the wrapped object. The caller must
// not retain it beyond the token's scope.
func (h *Handle) Bind(tk *Token) any {
	if tk.loop != h.loop {
		panic("hostval: handle bound with a foreign token")
	}
	return h.obj
}

// CloneRef takes an additional owned reference.
func (h *Handle) CloneRef(tk *Token) *Handle {
	if tk.loop != h.loop {
		panic("hostval: handle cloned with a foreign token")
	}
	h.refs.Add(1)
	return h
}

// Release drops one owned reference. The final release runs the object's
// HostClose hook under the token; Release itself never blocks and is safe
// from any goroutine, including the loop itself.
func (h *Handle) Release() {
	if h.refs.Add(-1) != 0 {
		return
	}
	closer, ok := h.obj.(HostCloser)
	if !ok {
		return
	}
	go h.loop.submit(func(tk *Token) { closer.HostClose(tk) })
}

// ReleaseLocal drops one owned reference while already holding the token,
// running the close hook inline.
func (h *Handle) ReleaseLocal(tk *Token) {
	if tk.loop != h.loop {
		panic("hostval: handle released with a foreign token")
	}
	if h.refs.Add(-1) != 0 {
		return
	}
	if closer, ok := h.obj.(HostCloser); ok {
		closer.HostClose(tk)
	}
}

// Refs reports the current reference count. Test hook.
func (h *Handle) Refs() int64 { return h.refs.Load() }
