package executor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	executor "github.com/graphyne/graphyne/internal/executor"
	schema "github.com/graphyne/graphyne/internal/schema"
)

var ignoreLocations = cmpopts.IgnoreFields(executor.GraphQLError{}, "Locations")

// Pattern: Result comparison
func TestCompleteValue_NonNull_Propagation_Result(t *testing.T) {
	newSchema := func() *schema.Schema {
		return newSchemaWithQueryType(
			newObjectType("Query", asyncField("Query", "obj", schema.NonNullType(schema.NamedType("Obj")))),
			newObjectType("Obj",
				asyncField("Obj", "a", schema.NonNullType(schema.NamedType("String"))),
				asyncField("Obj", "b", schema.NonNullType(schema.NamedType("String"))),
			),
			newScalarType("String"),
		)
	}

	t.Run("Resolver error", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.obj": executor.NewMockValueResolver(map[string]any{}),
			"Obj.a":     executor.NewMockErrorResolver(fmt.Errorf("boom")),
			"Obj.b":     executor.NewMockValueResolver("B"),
		})

		exec := executor.NewExecutor(rt, newSchema())
		doc := mustParseQuery(t, "{ obj { a b } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"obj": nil},
			Errors: []executor.GraphQLError{
				{Message: "boom", Path: executor.Path{"obj", "a"}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Resolver returns null", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.obj": executor.NewMockValueResolver(map[string]any{}),
			"Obj.a":     executor.NewMockValueResolver(nil),
			"Obj.b":     executor.NewMockValueResolver("B"),
		})

		exec := executor.NewExecutor(rt, newSchema())
		doc := mustParseQuery(t, "{ obj { a b } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"obj": nil},
			Errors: []executor.GraphQLError{
				{Message: "Cannot return null for non-nullable field obj.a", Path: executor.Path{"obj", "a"}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestCompleteValue_List_Nullability_Result(t *testing.T) {
	newListSchema := func(itemType *schema.TypeRef) *schema.Schema {
		return newSchemaWithQueryType(
			newObjectType("Query", asyncField("Query", "list", schema.ListType(itemType))),
			newScalarType("String"),
		)
	}

	t.Run("List contains values", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.list": executor.NewMockValueResolver([]any{"A", "B"}),
		})
		exec := executor.NewExecutor(rt, newListSchema(schema.NamedType("String")))
		doc := mustParseQuery(t, "{ list }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"list": []any{"A", "B"}},
			Errors: []executor.GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List contains null", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.list": executor.NewMockValueResolver([]any{"A", nil, "B"}),
		})
		exec := executor.NewExecutor(rt, newListSchema(schema.NamedType("String")))
		doc := mustParseQuery(t, "{ list }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"list": []any{"A", nil, "B"}},
			Errors: []executor.GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Non-list value", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.list": executor.NewMockValueResolver(42),
		})
		exec := executor.NewExecutor(rt, newListSchema(schema.NamedType("String")))
		doc := mustParseQuery(t, "{ list }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"list": nil},
			Errors: []executor.GraphQLError{
				{Message: "Expected list value, got int", Path: executor.Path{"list"}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Item non-null violation", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.list": executor.NewMockValueResolver([]any{"A", nil, "B"}),
		})
		exec := executor.NewExecutor(rt, newListSchema(schema.NonNullType(schema.NamedType("String"))))
		doc := mustParseQuery(t, "{ list }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"list": nil},
			Errors: []executor.GraphQLError{
				{Message: "Cannot return null for non-nullable field list.[1]", Path: executor.Path{"list", 1}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestCompleteValue_Leaf_Serialization_Result(t *testing.T) {
	newLeafSchema := func() *schema.Schema {
		return newSchemaWithQueryType(
			newObjectType("Query", asyncField("Query", "a", schema.NamedType("String"))),
			newScalarType("String"),
		)
	}

	t.Run("SerializeLeafValue success", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.a": executor.NewMockValueResolver("ok"),
		})
		executor.SetSerializer(rt, func(val any, t schema.TypeRef) (any, error) {
			if s, ok := val.(string); ok {
				return fmt.Sprintf("%s!", s), nil
			}
			return nil, fmt.Errorf("not string")
		})
		exec := executor.NewExecutor(rt, newLeafSchema())
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"a": "ok!"},
			Errors: []executor.GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SerializeLeafValue error", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.a": executor.NewMockValueResolver("bad"),
		})
		executor.SetSerializer(rt, func(val any, t schema.TypeRef) (any, error) {
			return nil, fmt.Errorf("serialize error")
		})
		exec := executor.NewExecutor(rt, newLeafSchema())
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"a": nil},
			Errors: []executor.GraphQLError{{Message: "serialize error", Path: executor.Path{"a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result + call-log comparison
func TestCompleteValue_Object_And_MixedSyncAsync_Result(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", asyncField("Query", "obj", schema.NamedType("Obj"))),
		newObjectType("Obj",
			syncField("a", schema.NamedType("String")),
			asyncField("Obj", "b", schema.NamedType("String")),
		),
		newScalarType("String"),
	)

	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.obj": executor.NewMockValueResolver(map[string]any{"a": "A"}),
		"Obj.a": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return source.(map[string]any)["a"], nil
		},
		"Obj.b": executor.NewMockValueResolver("B"),
	})

	exec := executor.NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ obj { a b } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	gotCalls := rt.GetCalls()

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"obj": map[string]any{"a": "A", "b": "B"}},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []executor.Call{
		{Kind: "async", ObjectType: "Query", Field: "obj", Source: nil, Args: map[string]any{}, BatchID: 1},
		{Kind: "sync", ObjectType: "Obj", Field: "a", Source: map[string]any{"a": "A"}, Args: map[string]any{}, BatchID: 0},
		{Kind: "async", ObjectType: "Obj", Field: "b", Source: map[string]any{"a": "A"}, Args: map[string]any{}, BatchID: 2},
	}
	if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestCompleteValue_Abstract_ResolveType_Result(t *testing.T) {
	newAbstractSchema := func() *schema.Schema {
		node := schema.NewType("Node", schema.TypeKindInterface, "")
		node.AddPossibleType("Obj")
		obj := newObjectType("Obj", asyncField("Obj", "a", schema.NamedType("String")))
		obj.AddInterface("Node")
		return newSchemaWithQueryType(
			newObjectType("Query", asyncField("Query", "iface", schema.NamedType("Node"))),
			node, obj, newScalarType("String"),
		)
	}

	t.Run("ResolveType returns concrete subtype", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.iface": executor.NewMockValueResolver(map[string]any{"val": "A"}),
			"Obj.a":       executor.NewMockValueResolver("A"),
		})
		executor.SetTypeResolver(rt, func(value any) (string, error) { return "Obj", nil })
		exec := executor.NewExecutor(rt, newAbstractSchema())
		doc := mustParseQuery(t, "{ iface { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"iface": map[string]any{"a": "A"}},
			Errors: []executor.GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResolveType error", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.iface": executor.NewMockValueResolver(map[string]any{}),
		})
		executor.SetTypeResolver(rt, func(value any) (string, error) { return "", fmt.Errorf("boom") })
		exec := executor.NewExecutor(rt, newAbstractSchema())
		doc := mustParseQuery(t, "{ iface { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"iface": nil},
			Errors: []executor.GraphQLError{{Message: "boom", Path: executor.Path{"iface"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResolveType invalid type name", func(t *testing.T) {
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.iface": executor.NewMockValueResolver(map[string]any{}),
		})
		executor.SetTypeResolver(rt, func(value any) (string, error) { return "Unknown", nil })
		exec := executor.NewExecutor(rt, newAbstractSchema())
		doc := mustParseQuery(t, "{ iface { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"iface": nil},
			Errors: []executor.GraphQLError{{Message: "Abstract type Node must resolve to an Object type at runtime. Got: Unknown", Path: executor.Path{"iface"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}
