package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const blogDoc = `
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
      - name: search
        type: "[Search!]"
        resolver: search
  - kind: object
    name: Post
    implements: [Node]
    fields:
      - name: id
        type: ID!
      - name: title
        type: String
        source: headline
  - kind: object
    name: Author
    implements: [Node]
    fields:
      - name: id
        type: ID!
  - kind: interface
    name: Node
    fields:
      - name: id
        type: ID!
  - kind: subscription
    name: Subscription
    fields:
      - name: ticks
        type: Int!
        resolver: ticks
enums:
  - name: Role
    values: [ADMIN, USER]
unions:
  - name: Search
    types: [Post, Author]
`

func buildBlog(t *testing.T) *Schema {
	t.Helper()
	doc, err := DecodeYAML([]byte(blogDoc))
	require.NoError(t, err)
	s, err := Build(doc)
	require.NoError(t, err)
	return s
}

func TestDecodeRequiresQueryRoot(t *testing.T) {
	_, err := Decode(map[string]any{"schema": map[string]any{}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "schema.query", verr.Path)
}

func TestDecodeFieldDefaults(t *testing.T) {
	doc, err := DecodeYAML([]byte(blogDoc))
	require.NoError(t, err)

	var post *TypeRecord
	for i := range doc.Types {
		if doc.Types[i].Name == "Post" {
			post = &doc.Types[i]
		}
	}
	require.NotNil(t, post)
	require.Equal(t, "id", post.Fields[0].Source)
	require.Equal(t, "headline", post.Fields[1].Source)
	require.Empty(t, post.Fields[0].Resolver)
}

func TestDecodeTypeRefForms(t *testing.T) {
	compact, err := decodeTypeRef("t", "[Int!]!")
	require.NoError(t, err)

	record, err := decodeTypeRef("t", map[string]any{
		"kind":     "list",
		"nullable": false,
		"of_type":  map[string]any{"kind": "named", "name": "Int", "nullable": false},
	})
	require.NoError(t, err)

	if diff := cmp.Diff(compact, record); diff != "" {
		t.Fatalf("type ref forms disagree (-compact +record):\n%s", diff)
	}
	require.True(t, compact.IsNonNull())
	require.True(t, compact.IsList())
	require.Equal(t, "Int", compact.GetNamedType())
}

func TestDecodeRejectsMalformedTypeRef(t *testing.T) {
	_, err := decodeTypeRef("t", "[Int")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBuildComputesHints(t *testing.T) {
	s := buildBlog(t)
	q := s.GetQueryType()
	require.Equal(t, HintString, q.GetField("greet").Hint)
	require.Equal(t, HintInt, q.GetField("value").Hint)
	require.Equal(t, HintObject, q.GetField("search").Hint)
	require.Equal(t, HintID, s.Types["Post"].GetField("id").Hint)
}

func TestBuildAbstractTypes(t *testing.T) {
	s := buildBlog(t)
	abstract := s.AbstractTypes()
	require.True(t, abstract["Search"])
	require.True(t, abstract["Node"])
	require.False(t, abstract["Post"])
	require.Equal(t, []string{"Author", "Post"}, s.Types["Node"].PossibleTypes)
}

func TestBuildRejectsDanglingReference(t *testing.T) {
	doc := &Document{
		Schema: RootTypes{Query: "Query"},
		Types: []TypeRecord{{
			Kind: "object",
			Name: "Query",
			Fields: []FieldRecord{{
				Name: "thing", Source: "thing", Type: NamedType("Missing"),
			}},
		}},
	}
	_, err := Build(doc)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
}

func TestBuildRejectsNonObjectUnionMember(t *testing.T) {
	doc := &Document{
		Schema: RootTypes{Query: "Query"},
		Types: []TypeRecord{{
			Kind: "object",
			Name: "Query",
			Fields: []FieldRecord{{
				Name: "s", Source: "s", Type: NamedType("S"),
			}},
		}},
		Enums:  []EnumRecord{{Name: "E", Values: []EnumValueRecord{{Name: "A"}}}},
		Unions: []UnionRecord{{Name: "S", Types: []string{"E"}}},
	}
	_, err := Build(doc)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
}

func TestBuildRejectsDuplicateTypeName(t *testing.T) {
	doc := &Document{
		Schema: RootTypes{Query: "Query"},
		Types: []TypeRecord{
			{Kind: "object", Name: "Query", Fields: []FieldRecord{{Name: "v", Source: "v", Type: NamedType("Int")}}},
			{Kind: "object", Name: "Query", Fields: []FieldRecord{{Name: "v", Source: "v", Type: NamedType("Int")}}},
		},
	}
	_, err := Build(doc)
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
}

func TestRenderRoundsDeterministically(t *testing.T) {
	s := buildBlog(t)
	first := Render(s)
	second := Render(s)
	require.Equal(t, first, second)
	require.Contains(t, first, "type Query {")
	require.Contains(t, first, "greet(name: String!): String!")
	require.Contains(t, first, "union Search = Post | Author")
	require.Contains(t, first, "interface Node {")
	require.Contains(t, first, "enum Role {")
	require.NotContains(t, first, "scalar String")
}
