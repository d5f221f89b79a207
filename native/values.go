package native

import (
	"encoding/json"
	"fmt"
	"math"
)

// Normalize rewrites a decoded envelope value into the canonical shapes used
// on both sides of the boundary: int64 for integers, float64 for reals,
// map[string]any for objects and []any for arrays. Envelope codecs disagree
// on integer widths and map key types; after Normalize they do not.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int64, float64:
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uintToValue(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return uintToValue(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	default:
		return x
	}
}

func uintToValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// AsInt64 reads an integral number in any of the shapes a decoder may
// produce. Whole float64 values are accepted since some envelopes carry
// every number as a double.
func AsInt64(v any) (int64, bool) {
	switch n := Normalize(v).(type) {
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

// Arg returns args[i], or nil when i is out of range.
func Arg(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// ArgString returns args[i] when it is a string.
func ArgString(args []any, i int) (string, bool) {
	s, ok := Arg(args, i).(string)
	return s, ok
}

// ArgInt returns args[i] when it is an integral number.
func ArgInt(args []any, i int) (int64, bool) {
	return AsInt64(Arg(args, i))
}
