package hostrt

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	hostval "github.com/graphyne/graphyne/internal/hostval"
	schema "github.com/graphyne/graphyne/internal/schema"
	value "github.com/graphyne/graphyne/internal/value"
)

// typedHandle carries the concrete type tag for a value resolved under an
// abstract-typed field. The executor reads the tag through ResolveType and
// descends into the handle after the concrete-value unwrap.
type typedHandle struct {
	typeName string
	handle   *hostval.Handle
}

// toValue converts a host value to the canonical form used for variables,
// argument defaults and input coercion.
//
// Precedence, first match wins: scalar bindings (when allowScalar), enum
// metadata, input-object metadata, then the natural shape of the value.
// Binding results re-enter with allowScalar=false so serializers cannot
// route into each other.
func toValue(tk *hostval.Token, scalars []*ScalarBinding, v any, allowScalar bool) (value.Value, error) {
	if allowScalar {
		for _, b := range scalars {
			if b.Matches(v) {
				sv, err := b.Serialize(tk, v)
				if err != nil {
					return value.Null(), err
				}
				return toValue(tk, scalars, sv, false)
			}
		}
	}
	if meta, inner, ok := hostMeta(tk, v); ok {
		switch meta.Kind {
		case MetaEnum:
			return value.Enum(meta.Member), nil
		case MetaInput:
			fields, ok := innerFields(inner)
			if !ok {
				return value.Null(), fmt.Errorf("%w: input object %s carries %T, want a field map", ErrUnsupportedValueType, meta.Name, inner)
			}
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			obj := value.NewObject()
			for _, k := range keys {
				fv, err := toValue(tk, scalars, fields[k], allowScalar)
				if err != nil {
					return value.Null(), err
				}
				obj.Set(k, fv)
			}
			return value.ObjectOf(obj), nil
		case MetaObject:
			if t, ok := inner.(Tagged); ok {
				v = t.Value
			} else {
				v = inner
			}
		}
	}
	switch x := v.(type) {
	case nil:
		return value.Null(), nil
	case value.Value:
		return x, nil
	case *hostval.Handle:
		return toValue(tk, scalars, x.Bind(tk), allowScalar)
	case bool:
		return value.Bool(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, _, err := intOf(x)
		if err != nil {
			return value.Null(), err
		}
		return value.Int(n), nil
	case float32:
		return value.Float(float64(x)), nil
	case float64:
		return value.Float(x), nil
	case string:
		return value.String(x), nil
	case []byte:
		return value.Bytes(x), nil
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			cv, err := toValue(tk, scalars, item, allowScalar)
			if err != nil {
				return value.Null(), err
			}
			items[i] = cv
		}
		return value.List(items), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := value.NewObject()
		for _, k := range keys {
			cv, err := toValue(tk, scalars, x[k], allowScalar)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(k, cv)
		}
		return value.ObjectOf(obj), nil
	case *value.Object:
		return value.ObjectOf(x), nil
	}
	if items, ok := reflectSequence(v); ok {
		return toValue(tk, scalars, items, allowScalar)
	}
	return value.Null(), fmt.Errorf("%w: %T", ErrUnsupportedValueType, v)
}

// innerFields extracts the field dictionary of an input-object value.
func innerFields(v any) (map[string]any, bool) {
	if t, ok := v.(Tagged); ok {
		v = t.Value
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// fromValue converts a canonical value back to a plain host value. Bytes stay
// raw on the host side; base64 is a response-serialization concern.
func fromValue(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindInt:
		return v.Int()
	case value.KindFloat:
		return v.Float()
	case value.KindString:
		return v.Str()
	case value.KindBytes:
		return v.BytesVal()
	case value.KindEnum:
		return v.EnumName()
	case value.KindList:
		items := v.ListVal()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromValue(item)
		}
		return out
	case value.KindObject:
		out := make(map[string]any, v.Object().Len())
		v.Object().Range(func(key string, item value.Value) bool {
			out[key] = fromValue(item)
			return true
		})
		return out
	default:
		return nil
	}
}

// fieldValueForType translates a resolver result into the executor's value
// space directed by the field's output type and precomputed hint. A nil host
// value is always a GraphQL null; non-null enforcement happens up-stack.
func (r *Runtime) fieldValueForType(tk *hostval.Token, v any, typ *schema.TypeRef, hint schema.Hint) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ.Kind {
	case schema.TypeRefKindNonNull:
		return r.fieldValueForType(tk, v, typ.OfType, hint)
	case schema.TypeRefKindList:
		items, ok := sequenceOf(tk, v)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrExpectedList, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			fv, err := r.fieldValueForType(tk, item, typ.OfType, hint)
			if err != nil {
				return nil, err
			}
			out[i] = fv
		}
		return out, nil
	}

	name := typ.Named
	if r.abstract[name] {
		meta, _, ok := hostMeta(tk, v)
		if !ok || meta.Kind != MetaObject {
			return nil, fmt.Errorf("%w: %s field received %T", ErrAbstractTypeRequiresObject, name, v)
		}
		return typedHandle{typeName: meta.Name, handle: wrapHandle(tk, v)}, nil
	}

	switch hint {
	case schema.HintString, schema.HintID:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.HintInt:
		n, ok, err := intOf(v)
		if err != nil {
			return nil, err
		}
		if ok {
			return n, nil
		}
	case schema.HintFloat:
		f, ok, err := floatOf(v)
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}
	case schema.HintBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.HintObject:
		return wrapHandle(tk, v), nil
	}

	// Unknown hints and fast-path misses reach the leaf serializer as they
	// are; bindings, enum metadata and bytes are handled there.
	return v, nil
}

// intOf widens any native integer to int64. The unsigned widths that can
// exceed the signed range are guarded; everything else widens losslessly.
func intOf(v any) (int64, bool, error) {
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int8:
		return int64(n), true, nil
	case int16:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case uint8:
		return int64(n), true, nil
	case uint16:
		return int64(n), true, nil
	case uint32:
		return int64(n), true, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false, fmt.Errorf("%w: integer %d overflows the 64-bit signed range", ErrUnsupportedValueType, n)
		}
		return int64(n), true, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, false, fmt.Errorf("%w: integer %d overflows the 64-bit signed range", ErrUnsupportedValueType, n)
		}
		return int64(n), true, nil
	}
	return 0, false, nil
}

// floatOf accepts native floats and any integer intOf accepts.
func floatOf(v any) (float64, bool, error) {
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	}
	n, ok, err := intOf(v)
	if err != nil || !ok {
		return 0, false, err
	}
	return float64(n), true, nil
}

// wrapHandle reuses an existing handle and wraps anything else. No ownership
// is taken: field-value handles live as long as the response tree.
func wrapHandle(tk *hostval.Token, v any) *hostval.Handle {
	if h, ok := v.(*hostval.Handle); ok {
		return h
	}
	return hostval.NewHandle(tk, v)
}

// sequenceOf flattens a host sequence into []any. Strings and byte slices are
// scalars, never sequences.
func sequenceOf(tk *hostval.Token, v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case *hostval.Handle:
		return sequenceOf(tk, x.Bind(tk))
	case string, []byte:
		return nil, false
	}
	return reflectSequence(v)
}

func reflectSequence(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// attrOf fetches the attribute named by a field's source from a host parent
// value. A missing attribute is not an error; the field resolves to null.
func attrOf(tk *hostval.Token, obj any, name string) (any, bool) {
	switch x := obj.(type) {
	case *hostval.Handle:
		return attrOf(tk, x.Bind(tk), name)
	case typedHandle:
		return attrOf(tk, x.handle, name)
	case Tagged:
		return attrOf(tk, x.Value, name)
	case map[string]any:
		v, ok := x[name]
		return v, ok
	case Getter:
		return x.GetAttr(name)
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Name == name || strings.EqualFold(f.Name, name) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// serializeLeaf finishes a leaf value after binding dispatch: enum metadata
// becomes the member name, bytes become base64, canonical values flatten to
// their JSON form.
func serializeLeaf(v any) (any, error) {
	if m, ok := v.(Meta); ok {
		meta := m.GraphMeta()
		if meta.Kind == MetaEnum {
			return meta.Member, nil
		}
		if t, ok := v.(Tagged); ok {
			v = t.Value
		}
	}
	switch x := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case value.Value:
		return x.ToAny(), nil
	}
	return v, nil
}
