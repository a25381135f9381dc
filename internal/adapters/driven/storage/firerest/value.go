package firerest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindTimestamp
	KindArray
	KindMap
)

// Value is one Firestore wire value: exactly one variant is active,
// selected by Kind. The zero Value is null.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Double float64
	Str    string
	Time   time.Time
	Array  []Value
	Map    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Double wraps a float.
func Double(f float64) Value { return Value{Kind: KindDouble, Double: f} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Timestamp wraps a point in time. The zero time encodes as null.
func Timestamp(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return Value{Kind: KindTimestamp, Time: t.UTC()}
}

// Array wraps a list of values.
func Array(values []Value) Value { return Value{Kind: KindArray, Array: values} }

// Map wraps a field map.
func Map(fields map[string]Value) Value { return Value{Kind: KindMap, Map: fields} }

// Strings wraps a string slice as an array of string values.
func Strings(items []string) Value {
	values := make([]Value, len(items))
	for i, item := range items {
		values[i] = String(item)
	}
	return Array(values)
}

// Ints wraps an int slice as an array of integer values.
func Ints(items []int) Value {
	values := make([]Value, len(items))
	for i, item := range items {
		values[i] = Int(int64(item))
	}
	return Array(values)
}

// StringOr returns the string variant, or empty when the value is any
// other kind.
func (v Value) StringOr() string {
	if v.Kind == KindString {
		return v.Str
	}
	return ""
}

// BoolOr returns the boolean variant, or false for any other kind.
func (v Value) BoolOr() bool {
	return v.Kind == KindBool && v.Bool
}

// TimeOr returns the timestamp variant, or the zero time for any other
// kind.
func (v Value) TimeOr() time.Time {
	if v.Kind == KindTimestamp {
		return v.Time
	}
	return time.Time{}
}

// MarshalJSON encodes the active variant in Firestore wire form.
// Integers travel as decimal strings, per the REST protocol's int64
// representation.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte(`{"nullValue":null}`), nil
	case KindBool:
		return json.Marshal(map[string]bool{"booleanValue": v.Bool})
	case KindInt:
		return json.Marshal(map[string]string{"integerValue": strconv.FormatInt(v.Int, 10)})
	case KindDouble:
		return json.Marshal(map[string]float64{"doubleValue": v.Double})
	case KindString:
		return json.Marshal(map[string]string{"stringValue": v.Str})
	case KindTimestamp:
		return json.Marshal(map[string]string{"timestampValue": v.Time.UTC().Format(time.RFC3339Nano)})
	case KindArray:
		values := v.Array
		if values == nil {
			values = []Value{}
		}
		return json.Marshal(map[string]any{"arrayValue": map[string]any{"values": values}})
	case KindMap:
		fields := v.Map
		if fields == nil {
			fields = map[string]Value{}
		}
		return json.Marshal(map[string]any{"mapValue": map[string]any{"fields": fields}})
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// UnmarshalJSON decodes a Firestore wire value into the union.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case hasKey(raw, "nullValue"):
		*v = Null()
		return nil

	case hasKey(raw, "booleanValue"):
		var b bool
		if err := json.Unmarshal(raw["booleanValue"], &b); err != nil {
			return fmt.Errorf("booleanValue: %w", err)
		}
		*v = Bool(b)
		return nil

	case hasKey(raw, "integerValue"):
		// Accepts both the canonical string form and a bare number.
		var s string
		if err := json.Unmarshal(raw["integerValue"], &s); err != nil {
			var i int64
			if err := json.Unmarshal(raw["integerValue"], &i); err != nil {
				return fmt.Errorf("integerValue: %w", err)
			}
			*v = Int(i)
			return nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("integerValue: %w", err)
		}
		*v = Int(i)
		return nil

	case hasKey(raw, "doubleValue"):
		var f float64
		if err := json.Unmarshal(raw["doubleValue"], &f); err != nil {
			return fmt.Errorf("doubleValue: %w", err)
		}
		*v = Double(f)
		return nil

	case hasKey(raw, "stringValue"):
		var s string
		if err := json.Unmarshal(raw["stringValue"], &s); err != nil {
			return fmt.Errorf("stringValue: %w", err)
		}
		*v = String(s)
		return nil

	case hasKey(raw, "timestampValue"):
		var s string
		if err := json.Unmarshal(raw["timestampValue"], &s); err != nil {
			return fmt.Errorf("timestampValue: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestampValue: %w", err)
		}
		*v = Value{Kind: KindTimestamp, Time: t}
		return nil

	case hasKey(raw, "arrayValue"):
		var wrapper struct {
			Values []Value `json:"values"`
		}
		if err := json.Unmarshal(raw["arrayValue"], &wrapper); err != nil {
			return fmt.Errorf("arrayValue: %w", err)
		}
		*v = Array(wrapper.Values)
		return nil

	case hasKey(raw, "mapValue"):
		var wrapper struct {
			Fields map[string]Value `json:"fields"`
		}
		if err := json.Unmarshal(raw["mapValue"], &wrapper); err != nil {
			return fmt.Errorf("mapValue: %w", err)
		}
		*v = Map(wrapper.Fields)
		return nil

	default:
		return fmt.Errorf("unrecognised value payload")
	}
}

func hasKey(raw map[string]json.RawMessage, key string) bool {
	_, ok := raw[key]
	return ok
}
