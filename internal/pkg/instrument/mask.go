package instrument

import (
	"encoding/json"
	"strings"
)

// Masked replaces the value of every masked key.
const Masked = "***"

// MaskKeys is a case-insensitive set of field names whose values must never be logged.
type MaskKeys map[string]struct{}

// NewMaskKeys builds a MaskKeys set, ignoring blank entries.
func NewMaskKeys(fields []string) MaskKeys {
	keys := make(MaskKeys, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(strings.ToLower(field))
		if field == "" {
			continue
		}
		keys[field] = struct{}{}
	}
	return keys
}

// Has reports whether key is masked.
func (m MaskKeys) Has(key string) bool {
	_, found := m[strings.ToLower(key)]
	return found
}

// Data masks decoded JSON-like data (maps and slices), recursively.
func (m MaskKeys) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Has(k) {
				masked[k] = Masked
			} else {
				masked[k] = m.Data(v2)
			}
		}
		return masked
	case map[string]string:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Has(k) {
				masked[k] = Masked
			} else {
				masked[k] = v2
			}
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = m.Data(v2)
		}
		return res
	default:
		return v
	}
}

// JSON masks a JSON document. ok is false when payload is not a JSON object or array.
func (m MaskKeys) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	out, err := json.Marshal(m.Data(body))
	if err != nil {
		return "", false
	}

	return string(out), true
}
