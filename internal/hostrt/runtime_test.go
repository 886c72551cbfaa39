package hostrt

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	executor "github.com/graphyne/graphyne/internal/executor"
	hostval "github.com/graphyne/graphyne/internal/hostval"
	schema "github.com/graphyne/graphyne/internal/schema"
)

const queryDoc = `
schema:
  query: Query
types:
  - kind: object
    name: Query
    fields:
      - name: greet
        type: String!
        resolver: greet
        args:
          - name: name
            type: String!
      - name: value
        type: Int!
      - name: pair
        type: "[Int!]"
        resolver: pair
      - name: whoami
        type: String
        resolver: whoami
      - name: fail
        type: String
        resolver: fail
`

func buildTestSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	d, err := schema.DecodeYAML([]byte(doc))
	require.NoError(t, err)
	s, err := schema.Build(d)
	require.NoError(t, err)
	return s
}

func queryRegistry() *Registry {
	return NewRegistry().
		Register("greet", SelfAndArgs(func(tk *hostval.Token, self any, args map[string]any) (any, error) {
			name := args["name"].(string)
			return hostval.Go(func() (any, error) { return "hi " + name, nil }), nil
		})).
		Register("pair", SelfOnly(func(tk *hostval.Token, self any) (any, error) {
			return []int{3, 4}, nil
		})).
		Register("whoami", SelfAndContext(func(tk *hostval.Token, self, rctx any) (any, error) {
			c := rctx.(*Context)
			return c.ObjectType + "." + c.Field, nil
		})).
		Register("fail", SelfOnly(func(tk *hostval.Token, self any) (any, error) {
			return nil, &HostError{Kind: "ValueError", Message: "boom"}
		}))
}

func newQueryRuntime(t *testing.T, loop *hostval.Loop, opts Options) *Runtime {
	t.Helper()
	rt, err := NewRuntime(loop, buildTestSchema(t, queryDoc), queryRegistry(), opts)
	require.NoError(t, err)
	return rt
}

func TestNewRuntimeThreadsConflict(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	_, err := NewRuntime(loop, buildTestSchema(t, queryDoc), queryRegistry(), Options{
		UseCurrentThread: true,
		WorkerThreads:    2,
	})
	require.ErrorIs(t, err, ErrRuntimeThreadsConflict)
}

func TestNewRuntimeRequiresRegisteredResolvers(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	_, err := NewRuntime(loop, buildTestSchema(t, queryDoc), NewRegistry(), Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "greet")
}

func TestResolveSyncRootFallback(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()
	rt := newQueryRuntime(t, loop, Options{})

	ctx := executor.WithRequestData(context.Background(), &executor.RequestData{
		Root: map[string]any{"value": 5},
	})
	got, err := rt.ResolveSync(ctx, "Query", "value", nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), got)
}

func TestResolveSyncMissingAttributeIsNull(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()
	rt := newQueryRuntime(t, loop, Options{})

	ctx := executor.WithRequestData(context.Background(), &executor.RequestData{
		Root: map[string]any{},
	})
	got, err := rt.ResolveSync(ctx, "Query", "value", nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestResolveSyncNoParentNoRoot(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()
	rt := newQueryRuntime(t, loop, Options{})

	_, err := rt.ResolveSync(context.Background(), "Query", "value", nil, nil)
	require.ErrorIs(t, err, ErrNoParentValue)
}

func TestResolveSyncStructParent(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()
	rt := newQueryRuntime(t, loop, Options{})

	type root struct{ Value int }
	got, err := rt.ResolveSync(context.Background(), "Query", "value", root{Value: 9}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(9), got)
}

func TestBatchResolveAsyncShapes(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	for _, opts := range []Options{{}, {UseCurrentThread: true}, {WorkerThreads: 2}} {
		rt := newQueryRuntime(t, loop, opts)
		tasks := []executor.AsyncResolveTask{
			{ObjectType: "Query", Field: "greet", Args: map[string]any{"name": "Ada"}},
			{ObjectType: "Query", Field: "pair"},
			{ObjectType: "Query", Field: "whoami"},
			{ObjectType: "Query", Field: "fail"},
		}
		results := rt.BatchResolveAsync(context.Background(), tasks)
		require.Len(t, results, len(tasks))

		require.NoError(t, results[0].Error)
		require.Equal(t, "hi Ada", results[0].Value)

		require.NoError(t, results[1].Error)
		require.Equal(t, []any{int64(3), int64(4)}, results[1].Value)

		require.NoError(t, results[2].Error)
		require.Equal(t, "Query.whoami", results[2].Value)

		require.EqualError(t, results[3].Error, "ValueError: boom")
		require.Nil(t, results[3].Value)
	}
}

func TestBatchResolveAsyncArgCoercer(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	reg := queryRegistry()
	reg.Register("greet", SelfAndArgs(func(tk *hostval.Token, self any, args map[string]any) (any, error) {
		return "hi " + args["name"].(string), nil
	}).CoerceArg("name", func(tk *hostval.Token, v any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	}))
	rt, err := NewRuntime(loop, buildTestSchema(t, queryDoc), reg, Options{})
	require.NoError(t, err)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "greet", Args: map[string]any{"name": "ada"}},
	})
	require.NoError(t, results[0].Error)
	require.Equal(t, "hi ADA", results[0].Value)
}

func TestSerializeLeafValue(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	reg := queryRegistry().BindScalar(moneyBinding())
	rt, err := NewRuntime(loop, buildTestSchema(t, queryDoc), reg, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	got, err := rt.SerializeLeafValue(ctx, "Money", money{cents: 250})
	require.NoError(t, err)
	require.Equal(t, "2.50", got)

	got, err = rt.SerializeLeafValue(ctx, "Role", Enum("Role", "ADMIN"))
	require.NoError(t, err)
	require.Equal(t, "ADMIN", got)

	got, err = rt.SerializeLeafValue(ctx, "Bytes", []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), got)

	got, err = rt.SerializeLeafValue(ctx, "String", "plain")
	require.NoError(t, err)
	require.Equal(t, "plain", got)
}

func TestResolveTypeAndConcreteUnwrap(t *testing.T) {
	loop := hostval.NewLoop()
	defer loop.Close()

	r := &Runtime{loop: loop, abstract: map[string]bool{"Search": true}}
	ctx := context.Background()

	var tagged any
	withToken(t, loop, func(tk *hostval.Token) {
		v, err := r.fieldValueForType(tk, Object("Post", map[string]any{"id": "1"}), schema.NamedType("Search"), schema.HintObject)
		require.NoError(t, err)
		tagged = v
	})

	name, err := r.ResolveType(ctx, "Search", tagged)
	require.NoError(t, err)
	require.Equal(t, "Post", name)

	_, err = r.ResolveType(ctx, "Search", map[string]any{"id": "1"})
	require.ErrorIs(t, err, ErrAbstractTypeRequiresObject)

	concrete, err := r.ResolveUnionConcreteValue(ctx, "Search", tagged)
	require.NoError(t, err)
	withToken(t, loop, func(tk *hostval.Token) {
		id, ok := attrOf(tk, concrete, "id")
		require.True(t, ok)
		require.Equal(t, "1", id)
	})
}
