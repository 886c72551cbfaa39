package graphyne

import (
	"context"
	"errors"

	executor "github.com/graphyne/graphyne/internal/executor"
	language "github.com/graphyne/graphyne/internal/language"
)

// ErrDone reports that a subscription has no further events.
var ErrDone = errors.New("graphyne: subscription done")

// Subscription is a pull-driven stream of responses for one subscription
// operation. Next calls are serialized internally.
type Subscription struct {
	stream *executor.SubscriptionStream
}

// Subscribe starts a subscription operation. The query must select exactly
// one root subscription field whose resolver yields an async iterator.
func (e *Engine) Subscribe(ctx context.Context, query string, opts ...RequestOption) (*Subscription, error) {
	var ro requestOptions
	for _, f := range opts {
		f(&ro)
	}

	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, err
	}

	vars, err := e.convertVariables(ctx, ro.variables)
	if err != nil {
		return nil, err
	}

	ctx = e.requestContext(ctx, &ro)
	stream, err := e.exec.ExecuteSubscription(ctx, doc, ro.operationName, vars, ro.root)
	if err != nil {
		return nil, err
	}
	return &Subscription{stream: stream}, nil
}

// Next pulls the next event and completes it into a response. Per-event
// resolver failures come back as a response carrying the error; Next returns
// ErrDone once the source ends or the subscription is closed.
func (s *Subscription) Next(ctx context.Context) (*Response, error) {
	result, err := s.stream.Next(ctx)
	if err != nil {
		if errors.Is(err, executor.ErrEndOfStream) {
			return nil, ErrDone
		}
		return nil, err
	}
	return toResponse(result), nil
}

// Close releases the event source. Idempotent and safe to call while a Next
// is blocked; that pull reports ErrDone.
func (s *Subscription) Close() error {
	s.stream.Close()
	return nil
}
