package board

import "math"

// sanitizeValue deep-copies a row value, replacing non-finite floats with nil
// so encoding to JSON can never fail on NaN or infinity. Nested containers
// are copied too; rows are normally flat but inbound payloads are not
// validated for depth.
func sanitizeValue(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = sanitizeValue(inner)
		}
		return out
	default:
		return value
	}
}
