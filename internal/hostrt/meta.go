package hostrt

import "github.com/graphyne/graphyne/internal/hostval"

// MetaKind classifies the schema role a host value declares through its
// metadata: a concrete object type, an enum member, or an input object.
type MetaKind int

const (
	MetaObject MetaKind = iota
	MetaEnum
	MetaInput
)

// TypeMeta ties a host value to its declared schema type. The codec checks a
// single interface on the hot path instead of scanning the value's shape.
type TypeMeta struct {
	Kind   MetaKind
	Name   string // schema type name
	Member string // enum member name, MetaEnum only
}

// Meta is implemented by host values declared through the schema layer.
type Meta interface {
	GraphMeta() TypeMeta
}

// Tagged pairs a plain host value with schema type metadata, for hosts whose
// values cannot implement Meta themselves.
type Tagged struct {
	Value any
	Meta  TypeMeta
}

func (t Tagged) GraphMeta() TypeMeta { return t.Meta }

// Object tags v as an instance of the named concrete object type.
func Object(typeName string, v any) Tagged {
	return Tagged{Value: v, Meta: TypeMeta{Kind: MetaObject, Name: typeName}}
}

// Enum tags a value as a member of the named enum type.
func Enum(enumName, member string) Tagged {
	return Tagged{Meta: TypeMeta{Kind: MetaEnum, Name: enumName, Member: member}}
}

// Input tags a field dictionary as an instance of the named input object type.
func Input(typeName string, fields map[string]any) Tagged {
	return Tagged{Value: fields, Meta: TypeMeta{Kind: MetaInput, Name: typeName}}
}

// Getter lets opaque host objects expose attributes to resolverless fields.
type Getter interface {
	GetAttr(name string) (any, bool)
}

// hostMeta reads the type metadata of a host value, binding handles under the
// token first. The second result is the value with the handle layer removed.
func hostMeta(tk *hostval.Token, v any) (TypeMeta, any, bool) {
	if h, ok := v.(*hostval.Handle); ok {
		v = h.Bind(tk)
	}
	if m, ok := v.(Meta); ok {
		return m.GraphMeta(), v, true
	}
	return TypeMeta{}, v, false
}
