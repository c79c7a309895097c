package settings

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// DefaultMaxDepth bounds nesting accepted by decoders and FromAny.
const DefaultMaxDepth = 64

// Any converts v into plain Go values suitable for encoding/json: nil, bool,
// json.Number, string, []any and map[string]any.
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.num)
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.array))
		for i, elem := range v.array {
			out[i] = elem.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.object))
		for key, field := range v.object {
			out[key] = field.Any()
		}
		return out
	default:
		return nil
	}
}

// Native is like Any but converts numbers into int64, uint64 or float64 so
// expression engines and non-JSON encoders can operate on them.
func (v Value) Native() any {
	switch v.kind {
	case KindNumber:
		if v.IsInteger() {
			if i, err := strconv.ParseInt(v.num, 10, 64); err == nil {
				return i
			}
			if u, err := strconv.ParseUint(v.num, 10, 64); err == nil {
				return u
			}
		}
		f, _ := strconv.ParseFloat(v.num, 64)
		return f
	case KindArray:
		out := make([]any, len(v.array))
		for i, elem := range v.array {
			out[i] = elem.Native()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.object))
		for key, field := range v.object {
			out[key] = field.Native()
		}
		return out
	default:
		return v.Any()
	}
}

// FromAny converts decoded Go data into a Value. Nesting deeper than
// DefaultMaxDepth fails with ErrDepthExceeded.
func FromAny(in any) (Value, error) {
	return fromAny(in, 0, DefaultMaxDepth)
}

func fromAny(in any, depth, maxDepth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, fmt.Errorf("%w: limit %d", ErrDepthExceeded, maxDepth)
	}
	switch typed := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed.Clone(), nil
	case bool:
		return Bool(typed), nil
	case json.Number:
		return Number(typed), nil
	case string:
		return String(typed), nil
	case int:
		return Int(int64(typed)), nil
	case int8:
		return Int(int64(typed)), nil
	case int16:
		return Int(int64(typed)), nil
	case int32:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case uint:
		return Uint(uint64(typed)), nil
	case uint8:
		return Uint(uint64(typed)), nil
	case uint16:
		return Uint(uint64(typed)), nil
	case uint32:
		return Uint(uint64(typed)), nil
	case uint64:
		return Uint(typed), nil
	case float32:
		return Float(float64(typed)), nil
	case float64:
		return Float(typed), nil
	case []any:
		elems := make([]Value, len(typed))
		for i, elem := range typed {
			converted, err := fromAny(elem, depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			elems[i] = converted
		}
		return Value{kind: KindArray, array: elems}, nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, field := range typed {
			converted, err := fromAny(field, depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			fields[key] = converted
		}
		return Value{kind: KindObject, object: fields}, nil
	case map[any]any:
		fields := make(map[string]Value, len(typed))
		for key, field := range typed {
			name, ok := key.(string)
			if !ok {
				name = fmt.Sprint(key)
			}
			converted, err := fromAny(field, depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			fields[name] = converted
		}
		return Value{kind: KindObject, object: fields}, nil
	}
	return fromReflect(reflect.ValueOf(in), depth, maxDepth)
}

func fromReflect(rv reflect.Value, depth, maxDepth int) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return fromAny(rv.Elem().Interface(), depth, maxDepth)
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			converted, err := fromAny(rv.Index(i).Interface(), depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			elems[i] = converted
		}
		return Value{kind: KindArray, array: elems}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("settings: map key type %s unsupported", rv.Type().Key())
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted, err := fromAny(iter.Value().Interface(), depth+1, maxDepth)
			if err != nil {
				return Value{}, err
			}
			fields[iter.Key().String()] = converted
		}
		return Value{kind: KindObject, object: fields}, nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	default:
		return Value{}, fmt.Errorf("settings: unsupported value type %s", rv.Type())
	}
}

// MustFromAny is FromAny for literals known to be convertible. It panics on
// error.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}
	return v
}
