package hostrt

import "errors"

var (
	// ErrUnsupportedValueType reports a host value the codec cannot represent.
	ErrUnsupportedValueType = errors.New("unsupported value type")

	// ErrExpectedList reports a non-sequence value for a list-typed field.
	ErrExpectedList = errors.New("expected list value")

	// ErrAbstractTypeRequiresObject reports a value without type metadata
	// returned for an interface- or union-typed field.
	ErrAbstractTypeRequiresObject = errors.New("abstract type requires an object with type metadata")

	// ErrSubscriptionRequiresAsyncIterator reports a subscription source that
	// implements neither the async-iterable nor the async-iterator protocol.
	ErrSubscriptionRequiresAsyncIterator = errors.New("subscription requires an async iterator")

	// ErrNoParentValue reports a resolverless field with no parent value and
	// no request root to fall back to.
	ErrNoParentValue = errors.New("no parent value and no request root")

	// ErrRuntimeThreadsConflict reports options that select the current-thread
	// mode and an explicit worker count at the same time.
	ErrRuntimeThreadsConflict = errors.New("current-thread mode excludes an explicit worker thread count")
)

// HostError preserves the textual form of a host-side failure as it crosses
// the runtime boundary. Clients see exactly "Kind: Message".
type HostError struct {
	Kind    string
	Message string
}

func (e *HostError) Error() string { return e.Kind + ": " + e.Message }
