package domain

import (
	"encoding/json"
	"strconv"
)

// IsFalsy reports whether v carries no indexable content:
// nil, false, zero numbers and empty strings.
func IsFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case int32:
		return t == 0
	case json.Number:
		return t == "" || t == "0"
	default:
		return false
	}
}

// ValueString renders a JSON-shaped value as text.
// Whole floats print without a fractional part; objects and lists render as JSON.
func ValueString(v any) string {
	return toString(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// AsObject returns v as a JSON object, or false when it is not one.
func AsObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case ContentRecord:
		return t, true
	case Document:
		return t, true
	default:
		return nil, false
	}
}

// AsList returns v as a JSON array, or false when it is not one.
func AsList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	default:
		return nil, false
	}
}
