package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/graphyne/graphyne/internal/executor"
	schema "github.com/graphyne/graphyne/internal/schema"
)

func newSubscriptionSchema() *schema.Schema {
	sch := newSchemaWithQueryType(
		newObjectType("Query", syncField("ok", schema.NamedType("Boolean"))),
		newObjectType("Subscription",
			asyncField("Subscription", "ticks", schema.NonNullType(schema.NamedType("Int"))),
		),
		newScalarType("Int"),
		newScalarType("Boolean"),
	)
	sch.SetSubscriptionType("Subscription")
	return sch
}

type blockingSource struct {
	closed chan struct{}
}

func (s *blockingSource) Next(ctx context.Context) (any, error) {
	select {
	case <-s.closed:
		return nil, executor.ErrEndOfStream
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingSource) Close() { close(s.closed) }

func TestSubscription_YieldsEventsThenEndOfStream(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "ticks", func(ctx context.Context, source any, args map[string]any) (executor.SubscriptionSource, error) {
		return newMockSubscriptionSourceForTest(int64(0), int64(1)), nil
	})

	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { ticks }")

	stream, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.NoError(t, err)
	defer stream.Close()

	for _, want := range []int64{0, 1} {
		res, err := stream.Next(context.Background())
		require.NoError(t, err)
		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"ticks": want},
			Errors: []executor.GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, res, ignoreLocations); diff != "" {
			t.Fatalf("event mismatch (-want +got):\n%s", diff)
		}
	}

	_, err = stream.Next(context.Background())
	require.ErrorIs(t, err, executor.ErrEndOfStream)
}

func TestSubscription_CloseIsIdempotentAndEndsStream(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "ticks", func(ctx context.Context, source any, args map[string]any) (executor.SubscriptionSource, error) {
		return newMockSubscriptionSourceForTest(int64(0), int64(1), int64(2)), nil
	})

	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { ticks }")

	stream, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.NoError(t, err)

	_, err = stream.Next(context.Background())
	require.NoError(t, err)

	stream.Close()
	stream.Close()

	for i := 0; i < 3; i++ {
		_, err = stream.Next(context.Background())
		require.ErrorIs(t, err, executor.ErrEndOfStream)
	}
}

func TestSubscription_CloseWakesBlockedPull(t *testing.T) {
	src := &blockingSource{closed: make(chan struct{})}
	rt := executor.NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "ticks", func(ctx context.Context, source any, args map[string]any) (executor.SubscriptionSource, error) {
		return src, nil
	})

	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { ticks }")

	stream, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next(context.Background())
		done <- err
	}()

	stream.Close()
	require.ErrorIs(t, <-done, executor.ErrEndOfStream)
}

func TestSubscription_SourceErrorEmitsErrorResultThenEnds(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	rt.SetSubscriber("Subscription", "ticks", func(ctx context.Context, source any, args map[string]any) (executor.SubscriptionSource, error) {
		return &erroringSource{err: errors.New("ValueError: boom")}, nil
	})

	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { ticks }")

	stream, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.NoError(t, err)

	res, err := stream.Next(context.Background())
	require.NoError(t, err)
	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "ValueError: boom", res.Errors[0].Message)
	require.Equal(t, executor.Path{"ticks"}, res.Errors[0].Path)

	_, err = stream.Next(context.Background())
	require.ErrorIs(t, err, executor.ErrEndOfStream)
}

func TestSubscription_RequiresSingleRootField(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { a: ticks b: ticks }")

	_, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.Error(t, err)
}

func TestSubscription_UnknownSourceFails(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	exec := executor.NewExecutor(rt, newSubscriptionSchema())
	doc := mustParseQuery(t, "subscription { ticks }")

	_, err := exec.ExecuteSubscription(context.Background(), doc, "", nil, nil)
	require.Error(t, err)
}

// erroringSource fails on the first pull.
type erroringSource struct {
	err error
}

func (s *erroringSource) Next(ctx context.Context) (any, error) { return nil, s.err }
func (s *erroringSource) Close()                                {}

// newMockSubscriptionSourceForTest yields the given values then ends.
func newMockSubscriptionSourceForTest(values ...any) executor.SubscriptionSource {
	return &sliceSource{values: values}
}

type sliceSource struct {
	values []any
	pos    int
}

func (s *sliceSource) Next(ctx context.Context) (any, error) {
	if s.pos >= len(s.values) {
		return nil, executor.ErrEndOfStream
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

func (s *sliceSource) Close() {}
