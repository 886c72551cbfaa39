package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/graphyne/graphyne/internal/language"
)

// Document is the decoded form of a declarative schema description. It is the
// input to Build and carries no executor-facing state of its own.
type Document struct {
	Schema  RootTypes
	Types   []TypeRecord
	Scalars []ScalarRecord
	Enums   []EnumRecord
	Unions  []UnionRecord
}

type RootTypes struct {
	Query        string
	Mutation     string
	Subscription string
}

type TypeRecord struct {
	Kind        string // object, input, subscription, interface
	Name        string
	Description string
	Implements  []string
	OneOf       bool
	Fields      []FieldRecord
}

type FieldRecord struct {
	Name        string
	Source      string // defaults to Name
	Type        *TypeRef
	Resolver    string
	Description string
	Deprecation string
	Default     any
	Args        []ArgRecord
}

type ArgRecord struct {
	Name        string
	Type        *TypeRef
	Default     any
	Description string
}

type ScalarRecord struct {
	Name           string
	Description    string
	SpecifiedByURL string
}

type EnumRecord struct {
	Name        string
	Description string
	Values      []EnumValueRecord
}

type EnumValueRecord struct {
	Name        string
	Description string
	Deprecation string
}

type UnionRecord struct {
	Name        string
	Description string
	Types       []string
}

// DecodeYAML decodes a YAML schema document.
func DecodeYAML(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, validationErrorf("", "not a mapping: %v", err)
	}
	return Decode(raw)
}

// Decode converts a generic mapping (parsed YAML or JSON, or a literal map)
// into a Document, reporting the first missing or malformed record field.
func Decode(raw map[string]any) (*Document, error) {
	doc := &Document{}

	schemaRaw, ok := raw["schema"].(map[string]any)
	if !ok {
		return nil, validationErrorf("schema", "required mapping is missing")
	}
	query, ok := schemaRaw["query"].(string)
	if !ok || query == "" {
		return nil, validationErrorf("schema.query", "required string is missing")
	}
	doc.Schema.Query = query
	doc.Schema.Mutation, _ = schemaRaw["mutation"].(string)
	doc.Schema.Subscription, _ = schemaRaw["subscription"].(string)

	for i, item := range seqOf(raw["types"]) {
		path := fmt.Sprintf("types[%d]", i)
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(path, "type record must be a mapping")
		}
		tr, err := decodeTypeRecord(path, rec)
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, *tr)
	}

	for i, item := range seqOf(raw["scalars"]) {
		path := fmt.Sprintf("scalars[%d]", i)
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(path, "scalar record must be a mapping")
		}
		name, ok := rec["name"].(string)
		if !ok || name == "" {
			return nil, validationErrorf(path+".name", "required string is missing")
		}
		desc, _ := rec["description"].(string)
		url, _ := rec["specified_by"].(string)
		doc.Scalars = append(doc.Scalars, ScalarRecord{Name: name, Description: desc, SpecifiedByURL: url})
	}

	for i, item := range seqOf(raw["enums"]) {
		path := fmt.Sprintf("enums[%d]", i)
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(path, "enum record must be a mapping")
		}
		er, err := decodeEnumRecord(path, rec)
		if err != nil {
			return nil, err
		}
		doc.Enums = append(doc.Enums, *er)
	}

	for i, item := range seqOf(raw["unions"]) {
		path := fmt.Sprintf("unions[%d]", i)
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(path, "union record must be a mapping")
		}
		name, ok := rec["name"].(string)
		if !ok || name == "" {
			return nil, validationErrorf(path+".name", "required string is missing")
		}
		desc, _ := rec["description"].(string)
		var members []string
		for j, m := range seqOf(rec["types"]) {
			ms, ok := m.(string)
			if !ok {
				return nil, validationErrorf(fmt.Sprintf("%s.types[%d]", path, j), "union member must be a type name")
			}
			members = append(members, ms)
		}
		if len(members) == 0 {
			return nil, validationErrorf(path+".types", "required sequence is missing")
		}
		doc.Unions = append(doc.Unions, UnionRecord{Name: name, Description: desc, Types: members})
	}

	return doc, nil
}

func decodeTypeRecord(path string, rec map[string]any) (*TypeRecord, error) {
	kind, ok := rec["kind"].(string)
	if !ok {
		return nil, validationErrorf(path+".kind", "required string is missing")
	}
	switch kind {
	case "object", "input", "subscription", "interface":
	default:
		return nil, validationErrorf(path+".kind", "unknown kind %q", kind)
	}
	name, ok := rec["name"].(string)
	if !ok || name == "" {
		return nil, validationErrorf(path+".name", "required string is missing")
	}
	tr := &TypeRecord{Kind: kind, Name: name}
	tr.Description, _ = rec["description"].(string)
	tr.OneOf, _ = rec["one_of"].(bool)
	for i, impl := range seqOf(rec["implements"]) {
		s, ok := impl.(string)
		if !ok {
			return nil, validationErrorf(fmt.Sprintf("%s.implements[%d]", path, i), "must be an interface name")
		}
		tr.Implements = append(tr.Implements, s)
	}
	for i, item := range seqOf(rec["fields"]) {
		fpath := fmt.Sprintf("%s.fields[%d]", path, i)
		frec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(fpath, "field record must be a mapping")
		}
		fr, err := decodeFieldRecord(fpath, frec)
		if err != nil {
			return nil, err
		}
		tr.Fields = append(tr.Fields, *fr)
	}
	return tr, nil
}

func decodeFieldRecord(path string, rec map[string]any) (*FieldRecord, error) {
	name, ok := rec["name"].(string)
	if !ok || name == "" {
		return nil, validationErrorf(path+".name", "required string is missing")
	}
	typRaw, ok := rec["type"]
	if !ok {
		return nil, validationErrorf(path+".type", "required type reference is missing")
	}
	typ, err := decodeTypeRef(path+".type", typRaw)
	if err != nil {
		return nil, err
	}
	fr := &FieldRecord{Name: name, Source: name, Type: typ}
	if src, ok := rec["source"].(string); ok && src != "" {
		fr.Source = src
	}
	fr.Resolver, _ = rec["resolver"].(string)
	fr.Description, _ = rec["description"].(string)
	fr.Deprecation, _ = rec["deprecation"].(string)
	fr.Default = rec["default"]
	for i, item := range seqOf(rec["args"]) {
		apath := fmt.Sprintf("%s.args[%d]", path, i)
		arec, ok := item.(map[string]any)
		if !ok {
			return nil, validationErrorf(apath, "argument record must be a mapping")
		}
		aname, ok := arec["name"].(string)
		if !ok || aname == "" {
			return nil, validationErrorf(apath+".name", "required string is missing")
		}
		atypRaw, ok := arec["type"]
		if !ok {
			return nil, validationErrorf(apath+".type", "required type reference is missing")
		}
		atyp, err := decodeTypeRef(apath+".type", atypRaw)
		if err != nil {
			return nil, err
		}
		adesc, _ := arec["description"].(string)
		fr.Args = append(fr.Args, ArgRecord{Name: aname, Type: atyp, Default: arec["default"], Description: adesc})
	}
	return fr, nil
}

func decodeEnumRecord(path string, rec map[string]any) (*EnumRecord, error) {
	name, ok := rec["name"].(string)
	if !ok || name == "" {
		return nil, validationErrorf(path+".name", "required string is missing")
	}
	er := &EnumRecord{Name: name}
	er.Description, _ = rec["description"].(string)
	values := seqOf(rec["values"])
	if len(values) == 0 {
		return nil, validationErrorf(path+".values", "required sequence is missing")
	}
	for i, item := range values {
		vpath := fmt.Sprintf("%s.values[%d]", path, i)
		switch v := item.(type) {
		case string:
			er.Values = append(er.Values, EnumValueRecord{Name: v})
		case map[string]any:
			vname, ok := v["name"].(string)
			if !ok || vname == "" {
				return nil, validationErrorf(vpath+".name", "required string is missing")
			}
			desc, _ := v["description"].(string)
			dep, _ := v["deprecation"].(string)
			er.Values = append(er.Values, EnumValueRecord{Name: vname, Description: desc, Deprecation: dep})
		default:
			return nil, validationErrorf(vpath, "enum value must be a name or a mapping")
		}
	}
	return er, nil
}

// decodeTypeRef accepts either the compact string form ("Thing", "Thing!",
// "[Thing]", "[Thing!]!") or the record form
// {kind: named|list, nullable, name|of_type}.
func decodeTypeRef(path string, raw any) (*TypeRef, error) {
	switch v := raw.(type) {
	case string:
		astType, err := language.ParseTypeRef(v)
		if err != nil {
			return nil, validationErrorf(path, "malformed type reference %q", v)
		}
		return fromASTType(astType), nil
	case map[string]any:
		kind, ok := v["kind"].(string)
		if !ok {
			return nil, validationErrorf(path+".kind", "required string is missing")
		}
		nullable := true
		if n, ok := v["nullable"].(bool); ok {
			nullable = n
		}
		var inner *TypeRef
		switch kind {
		case "named":
			name, ok := v["name"].(string)
			if !ok || name == "" {
				return nil, validationErrorf(path+".name", "required string is missing")
			}
			inner = NamedType(name)
		case "list":
			ofRaw, ok := v["of_type"]
			if !ok {
				return nil, validationErrorf(path+".of_type", "required type reference is missing")
			}
			of, err := decodeTypeRef(path+".of_type", ofRaw)
			if err != nil {
				return nil, err
			}
			inner = ListType(of)
		default:
			return nil, validationErrorf(path+".kind", "unknown kind %q", kind)
		}
		if !nullable {
			inner = NonNullType(inner)
		}
		return inner, nil
	default:
		return nil, validationErrorf(path, "type reference must be a string or a mapping")
	}
}

func fromASTType(t *language.Type) *TypeRef {
	var inner *TypeRef
	if t.Elem != nil {
		inner = ListType(fromASTType(t.Elem))
	} else {
		inner = NamedType(t.NamedType)
	}
	if t.NonNull {
		inner = NonNullType(inner)
	}
	return inner
}

func seqOf(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return nil
	}
}
