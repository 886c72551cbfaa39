package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	language "github.com/graphyne/graphyne/internal/language"
	schema "github.com/graphyne/graphyne/internal/schema"
)

// SubscriptionStream is a pull-driven stream of execution results for one
// subscription operation. Pulls are strictly serial; Close is idempotent,
// may overlap an in-flight pull, and causes pending and future pulls to
// report end-of-stream.
type SubscriptionStream struct {
	executor     *Executor
	document     *language.QueryDocument
	variables    map[string]any
	source       SubscriptionSource
	fieldType    *schema.TypeRef
	fields       []*language.Field
	responseName string

	pullMu    sync.Mutex
	closed    atomic.Bool
	done      atomic.Bool
	closeOnce sync.Once
}

// ExecuteSubscription resolves the single root field of a subscription
// operation into an event source and returns the stream over it.
func (e *Executor) ExecuteSubscription(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) (*SubscriptionStream, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		return nil, errors.New("operation not found")
	}
	if operation.Operation != language.Subscription {
		return nil, fmt.Errorf("operation %q is not a subscription", operation.Operation)
	}

	rootType := e.schema.GetSubscriptionType()
	if rootType == nil {
		return nil, errors.New("schema does not define a subscription root type")
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return nil, err
	}

	state := e.newState(ctx, document, coercedVariableValues)
	grouped := collectFields(state, rootType, operation.SelectionSet).orderedFields()
	if len(grouped) != 1 {
		return nil, fmt.Errorf("subscription operations must select exactly one root field, got %d", len(grouped))
	}
	fields := grouped[0].Fields
	fieldName := fields[0].Name

	fieldDef := rootType.GetField(fieldName)
	if fieldDef == nil {
		return nil, fmt.Errorf("cannot subscribe to field %q on type %q", fieldName, rootType.Name)
	}

	path := Path{grouped[0].ResponseName}
	argumentValues := coerceArgumentValues(fieldDef, fields[0].Arguments, coercedVariableValues, state, path)
	if len(state.errors) > 0 {
		return nil, errors.New(state.errors[0].Message)
	}

	source, err := e.runtime.ResolveSubscription(ctx, rootType.Name, fieldName, initialValue, argumentValues, lookaheadBuilder(document, fields))
	if err != nil {
		return nil, err
	}

	return &SubscriptionStream{
		executor:     e,
		document:     document,
		variables:    coercedVariableValues,
		source:       source,
		fieldType:    fieldDef.Type,
		fields:       fields,
		responseName: grouped[0].ResponseName,
	}, nil
}

// Next pulls the next event from the source and completes it into an
// execution result. A source error is emitted as an error result and the
// stream terminates; afterwards Next returns ErrEndOfStream.
func (s *SubscriptionStream) Next(ctx context.Context) (*ExecutionResult, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()
	if s.closed.Load() || s.done.Load() {
		return nil, ErrEndOfStream
	}

	value, err := s.source.Next(ctx)
	if s.closed.Load() {
		return nil, ErrEndOfStream
	}
	if err != nil {
		s.done.Store(true)
		if errors.Is(err, ErrEndOfStream) {
			return nil, ErrEndOfStream
		}
		return &ExecutionResult{
			Data:   nil,
			Errors: []GraphQLError{{Message: err.Error(), Path: Path{s.responseName}}},
		}, nil
	}

	state := s.executor.newState(ctx, s.document, s.variables)
	path := Path{s.responseName}
	responseRoot := make(map[string]any)

	completed := completeValue(state, s.fieldType, s.fields, value, path)
	if isNullish(completed) {
		responseRoot[s.responseName] = nil
	} else {
		responseRoot[s.responseName] = completed
	}
	state.drainAsyncTasks(responseRoot)

	return &ExecutionResult{Data: responseRoot, Errors: state.errors}, nil
}

// Close releases the underlying source. Safe to call multiple times and
// concurrently with Next.
func (s *SubscriptionStream) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.source.Close()
	})
}
