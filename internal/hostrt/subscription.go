package hostrt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	eventbus "github.com/graphyne/graphyne/internal/eventbus"
	events "github.com/graphyne/graphyne/internal/events"
	executor "github.com/graphyne/graphyne/internal/executor"
	hostval "github.com/graphyne/graphyne/internal/hostval"
)

// streamSource adapts a retained host async iterator to the executor's
// pull-driven stream. Pulls are strictly serial; Close is idempotent, wakes a
// pull blocked on the host awaitable so pending and future pulls report
// end-of-stream, and releases the iterator handle under the token.
type streamSource struct {
	runtime *Runtime
	fc      *fieldContext
	handle  *hostval.Handle

	pullMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
	stop   sync.Once
}

func newStreamSource(r *Runtime, fc *fieldContext, h *hostval.Handle) *streamSource {
	return &streamSource{runtime: r, fc: fc, handle: h, done: make(chan struct{})}
}

func (s *streamSource) Next(ctx context.Context) (any, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()
	started := time.Now()
	v, err := s.pull(ctx)
	ev := events.SubscriptionEvent{Field: s.fc.label(), Duration: time.Since(started)}
	if errors.Is(err, executor.ErrEndOfStream) {
		ev.End = true
	} else {
		ev.Err = err
	}
	eventbus.Publish(ctx, ev)
	return v, err
}

func (s *streamSource) pull(ctx context.Context) (any, error) {
	if s.closed.Load() {
		return nil, executor.ErrEndOfStream
	}

	// Close may overlap a pull blocked on an unresolved host awaitable; the
	// pull context is canceled when the done channel closes so the wait wakes.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	raw, err := s.runtime.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		iter := s.handle.Bind(tk).(hostval.AsyncIterator)
		return iter.NextItem(tk)
	})
	if s.closed.Load() {
		return nil, executor.ErrEndOfStream
	}
	if err != nil {
		return nil, s.finish(err)
	}
	v, err := hostval.AwaitBridge(ctx, s.runtime.loop, raw.(hostval.Awaitable))
	if s.closed.Load() {
		return nil, executor.ErrEndOfStream
	}
	if err != nil {
		return nil, s.finish(err)
	}
	return s.runtime.loop.Eval(ctx, func(tk *hostval.Token) (any, error) {
		return s.runtime.fieldValueForType(tk, v, s.fc.typ, s.fc.hint)
	})
}

// finish terminates the stream, mapping host exhaustion to end-of-stream and
// keeping any other error as the stream's final event.
func (s *streamSource) finish(err error) error {
	s.terminate()
	if errors.Is(err, hostval.ErrStopIteration) {
		return executor.ErrEndOfStream
	}
	return err
}

func (s *streamSource) Close() {
	s.terminate()
}

func (s *streamSource) terminate() {
	s.stop.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.handle.Release()
	})
}
