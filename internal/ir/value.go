package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing constrained value types.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray and IRObject implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents an absent value.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating point value. Always float64.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Type names accepted by Coerce. They are also the names used in schema
// configuration for typed fields.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
)

// ValidTypes lists the field types a schema may declare.
var ValidTypes = map[string]bool{
	TypeString: true,
	TypeInt:    true,
	TypeFloat:  true,
	TypeBool:   true,
}

// SortedKeys returns keys in UTF-16 code unit order (RFC 8785).
// Go's sort.Strings uses UTF-8 byte order, which differs for some inputs.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// FromNative converts a Go value produced by a backend driver (or written by
// a caller) into an IRValue.
//
// Supported inputs: nil, IRValue, string, []byte, bool, all integer kinds,
// float32/float64, json.Number, []any and map[string]any (recursively).
// Unsigned values above math.MaxInt64 are rejected.
func FromNative(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case []byte:
		return IRString(string(val)), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case float64:
		return IRFloat(val), nil
	case float32:
		return IRFloat(val), nil
	case json.Number:
		return numberToIR(val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	}

	// Remaining integer kinds (int8, uint16, ...) go through reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IRInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", u)
		}
		return IRInt(int64(u)), nil
	}

	return nil, fmt.Errorf("unsupported type: %T", v)
}

// MustFromNative is like FromNative but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromNative(v any) IRValue {
	irv, err := FromNative(v)
	if err != nil {
		panic(err)
	}
	return irv
}

// numberToIR keeps integral JSON numbers as IRInt and everything else as IRFloat.
func numberToIR(n json.Number) (IRValue, error) {
	if i, err := n.Int64(); err == nil {
		return IRInt(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n, err)
	}
	return IRFloat(f), nil
}

// ToNative converts an IRValue into the Go primitive a backend driver expects.
// IRNull becomes nil, IRArray becomes []any and IRObject becomes map[string]any.
func ToNative(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRBool:
		return bool(val)
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToNative(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToNative(elem)
		}
		return out
	default:
		return nil
	}
}

// IsNull reports whether v is nil or IRNull.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// IsNumeric reports whether v is an IRInt or IRFloat.
func IsNumeric(v IRValue) bool {
	switch v.(type) {
	case IRInt, IRFloat:
		return true
	}
	return false
}

// AsFloat returns the numeric value of an IRInt or IRFloat.
func AsFloat(v IRValue) (float64, bool) {
	switch val := v.(type) {
	case IRInt:
		return float64(val), true
	case IRFloat:
		return float64(val), true
	}
	return 0, false
}

// Format renders a value for use as an identity or display string.
// Strings are returned verbatim, numbers in their shortest form.
func Format(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return ""
	case IRString:
		return string(val)
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRFloat:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case IRBool:
		return strconv.FormatBool(bool(val))
	default:
		b, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// Coerce converts v into the declared field type. A nil or IRNull value is
// returned unchanged. An empty type name means "keep as is".
func Coerce(v IRValue, typ string) (IRValue, error) {
	if IsNull(v) || typ == "" {
		return v, nil
	}

	switch typ {
	case TypeString:
		return IRString(Format(v)), nil
	case TypeInt:
		switch val := v.(type) {
		case IRInt:
			return val, nil
		case IRFloat:
			if math.Trunc(float64(val)) != float64(val) {
				return nil, fmt.Errorf("cannot coerce %v to int: fractional part", val)
			}
			return IRInt(int64(val)), nil
		case IRString:
			i, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to int: %w", val, err)
			}
			return IRInt(i), nil
		case IRBool:
			if val {
				return IRInt(1), nil
			}
			return IRInt(0), nil
		}
	case TypeFloat:
		switch val := v.(type) {
		case IRFloat:
			return val, nil
		case IRInt:
			return IRFloat(float64(val)), nil
		case IRString:
			f, err := strconv.ParseFloat(string(val), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to float: %w", val, err)
			}
			return IRFloat(f), nil
		}
	case TypeBool:
		switch val := v.(type) {
		case IRBool:
			return val, nil
		case IRInt:
			return IRBool(val != 0), nil
		case IRFloat:
			return IRBool(val != 0), nil
		case IRString:
			b, err := strconv.ParseBool(string(val))
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to bool: %w", val, err)
			}
			return IRBool(b), nil
		}
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}

	return nil, fmt.Errorf("cannot coerce %T to %s", v, typ)
}

// DecodeJSON decodes a JSON document into an IRValue, keeping integral
// numbers as IRInt. Used by backends that hand records back as JSON text.
func DecodeJSON(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromNative(raw)
}

// DecodeJSONObject decodes a JSON object into an IRObject.
func DecodeJSONObject(data []byte) (IRObject, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(IRObject)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}
