package schema

// Hint classifies a field's output type so the value codec can take a fast
// extraction path without re-inspecting the type reference on every value.
type Hint int

const (
	HintUnknown Hint = iota
	HintString
	HintInt
	HintFloat
	HintBoolean
	HintID
	HintObject
)

func (h Hint) String() string {
	switch h {
	case HintString:
		return "String"
	case HintInt:
		return "Int"
	case HintFloat:
		return "Float"
	case HintBoolean:
		return "Boolean"
	case HintID:
		return "ID"
	case HintObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// hintFor derives the hint from the innermost named type. Object-like types
// (objects, interfaces, unions) yield HintObject; custom scalars and enums
// stay Unknown and take the codec's full dispatch.
func hintFor(t *TypeRef, types map[string]*Type) Hint {
	name := t.GetNamedType()
	switch name {
	case "String":
		return HintString
	case "Int":
		return HintInt
	case "Float":
		return HintFloat
	case "Boolean":
		return HintBoolean
	case "ID":
		return HintID
	}
	if named, ok := types[name]; ok {
		switch named.Kind {
		case TypeKindObject, TypeKindInterface, TypeKindUnion:
			return HintObject
		}
	}
	return HintUnknown
}
