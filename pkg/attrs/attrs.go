// Package attrs reads values back out of slog-style key/value attribute
// slices so one slice can feed both the log line and the audit event.
package attrs

// ExtractString returns the string value paired with key in a
// [key1, value1, key2, value2, ...] slice, or "" when the key is absent or
// its value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// ExtractMap collects the non-empty string values for keys. It returns nil
// when none are present.
func ExtractMap(attrs []any, keys ...string) map[string]string {
	var out map[string]string
	for _, k := range keys {
		v := ExtractString(attrs, k)
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(keys))
		}
		out[k] = v
	}
	return out
}
