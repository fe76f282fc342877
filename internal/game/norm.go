package game

import "math"

// Clamp helpers sanitize values coming out of persisted saves, which may
// carry zero, negative, or otherwise junk numbers from older versions.

func clampDay(v, fallback int) int {
	if fallback < 1 {
		fallback = 1
	}
	if v < 1 {
		return fallback
	}
	return v
}

func clampDaySpan(v, fallback int) int {
	if fallback < 0 {
		fallback = 0
	}
	if v < 0 {
		return fallback
	}
	return v
}

func clampPositiveInt(v, fallback int) int {
	if fallback < 1 {
		fallback = 1
	}
	if v < 1 {
		return fallback
	}
	return v
}

func clampWeight(v *float64, fallback float64) float64 {
	if fallback < 0 {
		fallback = 0
	}
	if v == nil {
		return fallback
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fallback
	}
	return *v
}

func clampNonNegative(v, fallback float64) float64 {
	if fallback < 0 {
		fallback = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

func clampTimestamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Float and Int build optional fields in authored content and tests.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func floatValue(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func intValue(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// cloneExtra deep-copies free-form metadata payloads so offers never share
// mutable structure with templates or other offers.
func cloneExtra(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneExtra(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}
