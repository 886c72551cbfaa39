package graphyne_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	graphyne "github.com/graphyne/graphyne"
	hostval "github.com/graphyne/graphyne/internal/hostval"
)

const blogSchema = `
schema:
  query: Query
  subscription: Subscription
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
        type: "[Int!]!"
        resolver: pair
      - name: search
        type: SearchResult
        resolver: search
        args:
          - name: tagged
            type: Boolean!
      - name: fail
        type: String
        resolver: fail
  - kind: object
    name: Post
    fields:
      - name: title
        type: String!
  - kind: object
    name: User
    fields:
      - name: nickname
        type: String!
  - kind: subscription
    name: Subscription
    fields:
      - name: ticks
        type: Int!
        resolver: ticks
unions:
  - name: SearchResult
    types:
      - Post
      - User
`

func newBlogEngine(t *testing.T, opts ...graphyne.Option) *graphyne.Engine {
	t.Helper()
	doc, err := graphyne.ParseSchema([]byte(blogSchema))
	require.NoError(t, err)

	reg := graphyne.NewRegistry().
		Register("greet", graphyne.SelfAndArgs(func(tk *graphyne.Token, self any, args map[string]any) (any, error) {
			name := args["name"].(string)
			return hostval.Go(func() (any, error) {
				return "hi " + name, nil
			}), nil
		})).
		Register("pair", graphyne.SelfOnly(func(tk *graphyne.Token, self any) (any, error) {
			return []int{3, 4}, nil
		})).
		Register("search", graphyne.SelfAndArgs(func(tk *graphyne.Token, self any, args map[string]any) (any, error) {
			post := map[string]any{"title": "Go"}
			if args["tagged"].(bool) {
				return graphyne.Object("Post", post), nil
			}
			return post, nil
		})).
		Register("fail", graphyne.SelfOnly(func(tk *graphyne.Token, self any) (any, error) {
			return nil, &graphyne.HostError{Kind: "ValueError", Message: "boom"}
		})).
		Register("ticks", graphyne.SelfOnly(func(tk *graphyne.Token, self any) (any, error) {
			return hostval.IterOf(0, 1), nil
		}).AsyncIterator())

	eng, err := graphyne.New(doc, reg, opts...)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func TestExecuteAsyncResolver(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(), `{ greet(name: "Ada") }`)
	require.NoError(t, err)
	require.NotNil(t, resp.Errors)
	require.NotNil(t, resp.Extensions)
	require.Empty(t, resp.Errors)
	require.Empty(t, resp.Extensions)
	if diff := cmp.Diff(map[string]any{"greet": "hi Ada"}, resp.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteVariables(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(),
		`query($n: String!) { greet(name: $n) }`,
		graphyne.WithVariables(map[string]any{"n": "Ada"}))
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"greet": "hi Ada"}, resp.Data)
}

func TestExecuteAttributeFallback(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(), `{ value }`,
		graphyne.WithRoot(map[string]any{"value": 5}))
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"value": int64(5)}, resp.Data)
}

func TestExecuteSliceForListField(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(), `{ pair }`)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"pair": []any{int64(3), int64(4)}}, resp.Data)
}

func TestExecuteUnionWithTypeMetadata(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(),
		`{ search(tagged: true) { ... on Post { title } } }`)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"search": map[string]any{"title": "Go"}}, resp.Data)
}

func TestExecuteUnionWithoutTypeMetadata(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(),
		`{ search(tagged: false) { ... on Post { title } } }`)
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	require.Contains(t, resp.Errors[0].Message, "abstract type requires an object with type metadata")
	require.Equal(t, []any{"search"}, resp.Errors[0].Path)
	require.Equal(t, map[string]any{"search": nil}, resp.Data)
}

func TestExecuteHostError(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(), `{ fail }`)
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "ValueError: boom", resp.Errors[0].Message)
	require.Equal(t, []any{"fail"}, resp.Errors[0].Path)
	require.Equal(t, map[string]any{"fail": nil}, resp.Data)
}

func TestExecuteSyntaxError(t *testing.T) {
	eng := newBlogEngine(t)

	resp, err := eng.Execute(context.Background(), `{ greet(`)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Errors)
	require.Nil(t, resp.Data)
}

func TestSubscriptionLifecycle(t *testing.T) {
	eng := newBlogEngine(t)

	sub, err := eng.Subscribe(context.Background(), `subscription { ticks }`)
	require.NoError(t, err)

	resp, err := sub.Next(context.Background())
	require.NoError(t, err)
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"ticks": int64(0)}, resp.Data)

	resp, err = sub.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ticks": int64(1)}, resp.Data)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, err = sub.Next(context.Background())
	require.ErrorIs(t, err, graphyne.ErrDone)
}

func TestEngineOptions(t *testing.T) {
	t.Run("current thread", func(t *testing.T) {
		eng := newBlogEngine(t, graphyne.WithCurrentThread())
		resp, err := eng.Execute(context.Background(), `{ greet(name: "Ada") }`)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"greet": "hi Ada"}, resp.Data)
	})

	t.Run("worker threads", func(t *testing.T) {
		eng := newBlogEngine(t, graphyne.WithWorkerThreads(2))
		resp, err := eng.Execute(context.Background(), `{ pair }`)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"pair": []any{int64(3), int64(4)}}, resp.Data)
	})

	t.Run("conflicting options", func(t *testing.T) {
		doc, err := graphyne.ParseSchema([]byte(blogSchema))
		require.NoError(t, err)
		_, err = graphyne.New(doc, graphyne.NewRegistry(),
			graphyne.WithCurrentThread(), graphyne.WithWorkerThreads(2))
		require.Error(t, err)
	})

	t.Run("external loop stays open", func(t *testing.T) {
		loop := hostval.NewLoop()
		defer loop.Close()
		eng := newBlogEngine(t, graphyne.WithLoop(loop))
		eng.Close()
		resp, err := eng.Execute(context.Background(), `{ pair }`)
		require.NoError(t, err)
		require.Empty(t, resp.Errors)
	})
}

func TestSDL(t *testing.T) {
	eng := newBlogEngine(t)
	sdl := eng.SDL()
	require.Contains(t, sdl, "type Query")
	require.Contains(t, sdl, "union SearchResult")
	require.Contains(t, sdl, "type Subscription")
}
