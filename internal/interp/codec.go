package interp

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ToJSONValue lowers a runtime value to the plain Go shapes encoding/json
// understands (nil, bool, int64, float64, string, []any, map[string]any).
// Closures, native funcs and memory handles are not data; they render as
// descriptive strings, matching how they print.
//
// encoding/json serializes map keys in sorted order, so the output is
// deterministic without extra canonicalization.
func ToJSONValue(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Str:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToJSONValue(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ToJSONValue(item)
		}
		return out
	case *Closure, *NativeFunc, MemoryHandle:
		return ToString(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromJSONValue lifts decoded JSON back into the runtime value set.
// Numbers decode as Int when integral (no fraction, within int64 range)
// and Float otherwise, mirroring the lexer's int/decimal classification.
func FromJSONValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool(v)
	case string:
		return Str(v)
	case int64:
		return Int(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) &&
			v >= math.MinInt64 && v <= math.MaxInt64 {
			return Int(int64(v))
		}
		return Float(v)
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if n, err := v.Int64(); err == nil {
				return Int(n)
			}
		}
		f, err := v.Float64()
		if err != nil {
			return Str(v.String())
		}
		return Float(f)
	case []any:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = FromJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(Map, len(v))
		for k, item := range v {
			out[k] = FromJSONValue(item)
		}
		return out
	default:
		return Str(fmt.Sprintf("%v", v))
	}
}

// MarshalValue encodes a runtime value as compact JSON.
func MarshalValue(v Value) ([]byte, error) {
	return json.Marshal(ToJSONValue(v))
}

// UnmarshalValue decodes JSON into a runtime value, preserving the
// int/float distinction via json.Number.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return FromJSONValue(raw), nil
}
