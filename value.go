package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over the shapes a settings document can
// hold. The zero Value is Null.
//
// Numbers keep their decimal literal so integers and floats survive a
// decode/encode cycle without coercion.
type Value struct {
	kind   Kind
	b      bool
	num    string
	str    string
	array  []Value
	object map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindNumber, num: strconv.FormatInt(i, 10)} }

// Uint wraps an unsigned integer.
func Uint(u uint64) Value { return Value{kind: KindNumber, num: strconv.FormatUint(u, 10)} }

// Float wraps a floating point number. Integral floats keep a ".0" suffix so
// they are not read back as integers.
func Float(f float64) Value {
	literal := strconv.FormatFloat(f, 'g', -1, 64)
	if !math.IsNaN(f) && !math.IsInf(f, 0) && !strings.ContainsAny(literal, ".eE") {
		literal += ".0"
	}
	return Value{kind: KindNumber, num: literal}
}

// Number wraps a decimal literal as produced by a JSON decoder. The literal is
// not validated here; Encode rejects malformed numbers.
func Number(literal json.Number) Value {
	return Value{kind: KindNumber, num: string(literal)}
}

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps the given elements. The slice is copied.
func Array(elems ...Value) Value {
	out := make([]Value, len(elems))
	for i, elem := range elems {
		out[i] = elem.Clone()
	}
	return Value{kind: KindArray, array: out}
}

// Object wraps fields. The map is copied; a nil map yields an empty object.
func Object(fields map[string]Value) Value {
	out := make(map[string]Value, len(fields))
	for key, field := range fields {
		out[key] = field.Clone()
	}
	return Value{kind: KindObject, object: out}
}

// EmptyObject returns an object with no fields.
func EmptyObject() Value {
	return Value{kind: KindObject, object: map[string]Value{}}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsObject reports whether v is an Object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the number literal.
func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.num), true
}

// IsInteger reports whether v is a number written without fraction or
// exponent.
func (v Value) IsInteger() bool {
	if v.kind != KindNumber || v.num == "" {
		return false
	}
	return !strings.ContainsAny(v.num, ".eE")
}

// AsInt returns the number as int64 when it is an integer literal in range.
func (v Value) AsInt() (int64, bool) {
	if !v.IsInteger() {
		return 0, false
	}
	i, err := strconv.ParseInt(v.num, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// AsFloat returns the number as float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Elems returns a copy of the array elements.
func (v Value) Elems() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]Value, len(v.array))
	for i, elem := range v.array {
		out[i] = elem.Clone()
	}
	return out, true
}

// Len returns the number of array elements or object fields.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.array)
	case KindObject:
		return len(v.object)
	default:
		return 0
	}
}

// Field returns the named field of an object.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	field, ok := v.object[name]
	return field, ok
}

// Fields returns the sorted field names of an object.
func (v Value) Fields() []string {
	if v.kind != KindObject {
		return nil
	}
	names := make([]string, 0, len(v.object))
	for name := range v.object {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.array))
		for i, elem := range v.array {
			out[i] = elem.Clone()
		}
		return Value{kind: KindArray, array: out}
	case KindObject:
		out := make(map[string]Value, len(v.object))
		for key, field := range v.object {
			out[key] = field.Clone()
		}
		return Value{kind: KindObject, object: out}
	default:
		return v
	}
}

// Equal reports deep equality. Numbers compare by literal, so 1 and 1.0 are
// different values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for key, field := range v.object {
			otherField, ok := other.object[key]
			if !ok || !field.Equal(otherField) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v as compact JSON. Values that cannot be encoded render as
// a Go-syntax fallback.
func (v Value) String() string {
	data, err := json.Marshal(v.Any())
	if err != nil {
		return fmt.Sprintf("%s(%s)", v.kind, v.num)
	}
	return string(data)
}
