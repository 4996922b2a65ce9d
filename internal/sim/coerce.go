package sim

import (
	"strconv"
	"strings"
)

// Host arguments arrive loosely typed, so the tool handlers coerce
// instead of rejecting: scalars broadcast to vectors, strings parse as
// numbers, and anything unusable falls back to a default.

func toFloat(v any, def float64) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return def
}

func toInt(v any, def int) int {
	return int(toFloat(v, float64(def)))
}

func toVector3(v any, def [3]float64) [3]float64 {
	switch val := v.(type) {
	case nil:
		return def
	case float64:
		return [3]float64{val, val, val}
	case map[string]any:
		out := def
		for i, key := range []string{"x", "y", "z"} {
			out[i] = toFloat(val[key], def[i])
		}
		return out
	case []any:
		var out [3]float64
		for i := 0; i < 3; i++ {
			if i < len(val) {
				out[i] = toFloat(val[i], def[i])
			}
		}
		return out
	}
	return def
}

func toName(v any, fallback string) string {
	if s, ok := v.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func firstSet(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
