package executor_test

import (
	"testing"

	language "github.com/graphyne/graphyne/internal/language"
	schema "github.com/graphyne/graphyne/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

func newScalarType(name string) *schema.Type {
	return schema.NewType(name, schema.TypeKindScalar, "")
}

// syncField declares a resolverless field resolved by attribute access.
func syncField(name string, typ *schema.TypeRef) *schema.Field {
	return schema.NewField(name, "", typ)
}

// asyncField declares a resolver-backed field; the resolver key follows the
// mock runtime's "ObjectType.Field" convention.
func asyncField(objectType, name string, typ *schema.TypeRef) *schema.Field {
	return schema.NewField(name, "", typ).SetResolver(objectType + "." + name)
}
