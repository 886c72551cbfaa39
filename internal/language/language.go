package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Error is the located error type produced by the parser. The server reuses
// it so error locations survive to the response.
type Error = gqlerror.Error

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseTypeRef parses a compact type reference such as "Thing", "Thing!",
// "[Thing]" or "[Thing!]!" into an AST type. The declarative schema decoder
// accepts these as a shorthand for the record form.
func ParseTypeRef(compact string) (*Type, error) {
	src := "type Q { f: " + compact + " }"
	doc, err := parser.ParseSchema(&ast.Source{Input: src})
	if err != nil {
		return nil, err
	}
	if len(doc.Definitions) != 1 || len(doc.Definitions[0].Fields) != 1 {
		return nil, gqlerror.Errorf("malformed type reference %q", compact)
	}
	return doc.Definitions[0].Fields[0].Type, nil
}
