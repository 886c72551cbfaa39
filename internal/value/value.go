// Package value defines the engine's canonical value representation used for
// request variables, argument defaults and input coercion. Result values flow
// through the executor as plain Go values; the canonical form exists so enums
// and binary payloads stay distinguishable from strings until output time.
package value

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindEnum
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the canonical value space.
// The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string // string and enum name
	bytes []byte
	list  []Value
	obj   *Object
}

func Null() Value               { return Value{kind: KindNull} }
func Bool(v bool) Value         { return Value{kind: KindBool, b: v} }
func Int(v int64) Value         { return Value{kind: KindInt, i: v} }
func Float(v float64) Value     { return Value{kind: KindFloat, f: v} }
func String(v string) Value     { return Value{kind: KindString, s: v} }
func Bytes(v []byte) Value      { return Value{kind: KindBytes, bytes: v} }
func Enum(name string) Value    { return Value{kind: KindEnum, s: name} }
func List(items []Value) Value  { return Value{kind: KindList, list: items} }
func ObjectOf(o *Object) Value  { return Value{kind: KindObject, obj: o} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }
func (v Value) Bool() bool      { return v.b }
func (v Value) Int() int64      { return v.i }
func (v Value) Float() float64  { return v.f }
func (v Value) Str() string     { return v.s }
func (v Value) EnumName() string { return v.s }
func (v Value) BytesVal() []byte { return v.bytes }
func (v Value) ListVal() []Value { return v.list }
func (v Value) Object() *Object  { return v.obj }

// Object is an ordered name→Value mapping. Insertion order is preserved so
// responses keep the document's field order.
type Object struct {
	keys  []string
	index map[string]int
	vals  []Value
}

func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Null(), false
	}
	return o.vals[i], true
}

func (o *Object) Len() int { return len(o.keys) }

// Range visits entries in insertion order.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for i, k := range o.keys {
		if !fn(k, o.vals[i]) {
			return
		}
	}
}

// FromAny converts a JSON-compatible Go value (nil, bool, numeric, string,
// []byte, []any, map[string]any) into a canonical Value. Map keys are sorted
// to make the conversion deterministic; ordered input arrives as *Object.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Null(), fmt.Errorf("integer %d overflows 64-bit signed range", x)
		}
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Null(), fmt.Errorf("integer %d overflows 64-bit signed range", x)
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			cv, err := FromAny(item)
			if err != nil {
				return Null(), err
			}
			items[i] = cv
		}
		return List(items), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			cv, err := FromAny(x[k])
			if err != nil {
				return Null(), err
			}
			obj.Set(k, cv)
		}
		return ObjectOf(obj), nil
	case *Object:
		return ObjectOf(x), nil
	default:
		return Null(), fmt.Errorf("cannot represent %T as a canonical value", v)
	}
}

// ToAny converts a canonical Value back to a plain Go value. Bytes become
// base64 strings, matching the wire encoding of binary scalars; enums become
// their member name.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.bytes)
	case KindEnum:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(key string, item Value) bool {
			out[key] = item.ToAny()
			return true
		})
		return out
	default:
		return nil
	}
}
