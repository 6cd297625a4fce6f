package socketio

import (
	"encoding/json"
	"strconv"
	"strings"
)

// firstMap returns the first argument as an object.
func firstMap(args []any) (map[string]any, bool) {
	if len(args) == 0 {
		return nil, false
	}
	m, ok := args[0].(map[string]any)
	return m, ok
}

// firstNumber accepts a bare number, a numeric string or {"value": n}.
func firstNumber(args []any) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	if m, ok := args[0].(map[string]any); ok {
		return toNumber(m["value"])
	}
	return toNumber(args[0])
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringField returns m[key] if it is a string, or "".
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
