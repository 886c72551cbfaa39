package schema

import "sort"

// Build assembles an executable schema from a decoded document. Builtin
// scalars and the skip/include directives are always present. The assembled
// schema is validated before it is returned.
func Build(doc *Document) (*Schema, error) {
	s := NewSchema("")
	s.SetQueryType(doc.Schema.Query).
		SetMutationType(doc.Schema.Mutation).
		SetSubscriptionType(doc.Schema.Subscription)
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective)

	for _, rec := range doc.Scalars {
		t := NewType(rec.Name, TypeKindScalar, rec.Description)
		if rec.SpecifiedByURL != "" {
			url := rec.SpecifiedByURL
			t.SpecifiedByURL = &url
		}
		if err := addType(s, t); err != nil {
			return nil, err
		}
	}
	for _, rec := range doc.Enums {
		t := NewType(rec.Name, TypeKindEnum, rec.Description)
		for _, v := range rec.Values {
			ev := NewEnumValue(v.Name, v.Description)
			if v.Deprecation != "" {
				ev.Deprecate(v.Deprecation)
			}
			t.AddEnumValue(ev)
		}
		if err := addType(s, t); err != nil {
			return nil, err
		}
	}
	for _, rec := range doc.Unions {
		t := NewType(rec.Name, TypeKindUnion, rec.Description)
		for _, member := range rec.Types {
			t.AddPossibleType(member)
		}
		if err := addType(s, t); err != nil {
			return nil, err
		}
	}
	for i := range doc.Types {
		t, err := buildType(&doc.Types[i])
		if err != nil {
			return nil, err
		}
		if err := addType(s, t); err != nil {
			return nil, err
		}
	}

	if err := validate(s); err != nil {
		return nil, err
	}

	// Hints need the full type map, so they are filled in last.
	for _, t := range s.Types {
		for _, f := range t.Fields {
			f.SetHint(hintFor(f.Type, s.Types))
		}
	}
	linkPossibleTypes(s)
	return s, nil
}

func addType(s *Schema, t *Type) error {
	if _, exists := s.Types[t.Name]; exists {
		return buildErrorf("duplicate type name %q", t.Name)
	}
	s.AddType(t)
	return nil
}

func buildType(rec *TypeRecord) (*Type, error) {
	kind := TypeKindObject
	switch rec.Kind {
	case "input":
		kind = TypeKindInputObject
	case "interface":
		kind = TypeKindInterface
	}
	t := NewType(rec.Name, kind, rec.Description)
	for _, iface := range rec.Implements {
		t.AddInterface(iface)
	}
	if kind == TypeKindInputObject {
		t.SetOneOf(rec.OneOf)
		for i := range rec.Fields {
			fr := &rec.Fields[i]
			iv := NewInputValue(fr.Name, fr.Description, fr.Type).SetDefault(fr.Default)
			if fr.Deprecation != "" {
				iv.Deprecate(fr.Deprecation)
			}
			t.AddInputField(iv)
		}
		return t, nil
	}
	for i := range rec.Fields {
		fr := &rec.Fields[i]
		f := NewField(fr.Name, fr.Description, fr.Type).
			SetSource(fr.Source).
			SetResolver(fr.Resolver)
		if fr.Deprecation != "" {
			f.Deprecate(fr.Deprecation)
		}
		for _, arg := range fr.Args {
			f.AddArgument(NewInputValue(arg.Name, arg.Description, arg.Type).SetDefault(arg.Default))
		}
		t.AddField(f)
	}
	return t, nil
}

func validate(s *Schema) error {
	root := s.GetQueryType()
	if root == nil {
		return buildErrorf("query root type %q is not defined", s.QueryType)
	}
	if root.Kind != TypeKindObject {
		return buildErrorf("query root type %q must be an object type", s.QueryType)
	}
	if s.MutationType != "" {
		if t := s.GetMutationType(); t == nil || t.Kind != TypeKindObject {
			return buildErrorf("mutation root type %q must be a defined object type", s.MutationType)
		}
	}
	if s.SubscriptionType != "" {
		if t := s.GetSubscriptionType(); t == nil || t.Kind != TypeKindObject {
			return buildErrorf("subscription root type %q must be a defined object type", s.SubscriptionType)
		}
	}
	for _, t := range s.Types {
		for _, iface := range t.Interfaces {
			it, ok := s.Types[iface]
			if !ok {
				return buildErrorf("type %q implements undefined interface %q", t.Name, iface)
			}
			if it.Kind != TypeKindInterface {
				return buildErrorf("type %q implements %q which is not an interface", t.Name, iface)
			}
		}
		for _, member := range t.PossibleTypes {
			if t.Kind != TypeKindUnion {
				continue
			}
			mt, ok := s.Types[member]
			if !ok {
				return buildErrorf("union %q references undefined type %q", t.Name, member)
			}
			if mt.Kind != TypeKindObject {
				return buildErrorf("union %q member %q must be an object type", t.Name, member)
			}
		}
		for _, f := range t.Fields {
			if err := checkRef(s, t.Name, f.Name, f.Type); err != nil {
				return err
			}
			for _, arg := range f.Arguments {
				if err := checkRef(s, t.Name, f.Name+"("+arg.Name+")", arg.Type); err != nil {
					return err
				}
			}
		}
		for _, in := range t.InputFields {
			if err := checkRef(s, t.Name, in.Name, in.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkRef(s *Schema, typeName, fieldName string, ref *TypeRef) error {
	name := ref.GetNamedType()
	if name == "" {
		return buildErrorf("%s.%s has an empty type reference", typeName, fieldName)
	}
	if _, ok := s.Types[name]; !ok {
		return buildErrorf("%s.%s references undefined type %q", typeName, fieldName, name)
	}
	return nil
}

// linkPossibleTypes fills interface PossibleTypes from the objects that
// declare the interface. Sorted for deterministic output.
func linkPossibleTypes(s *Schema) {
	for _, t := range s.Types {
		if t.Kind != TypeKindObject {
			continue
		}
		for _, iface := range t.Interfaces {
			it := s.Types[iface]
			it.PossibleTypes = append(it.PossibleTypes, t.Name)
		}
	}
	for _, t := range s.Types {
		if t.Kind == TypeKindInterface {
			sort.Strings(t.PossibleTypes)
		}
	}
}
