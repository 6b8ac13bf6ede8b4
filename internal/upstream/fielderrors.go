package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseFieldErrors reads a 400 body of the form {"errors": {...}} or a flat
// {"field": ...} object. Values may be strings or lists of strings.
func parseFieldErrors(body []byte) map[string]string {
	var wrapped struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Errors) > 0 {
		if fields := flatten(wrapped.Errors); len(fields) > 0 {
			return fields
		}
	}
	if fields := flatten(body); len(fields) > 0 {
		return fields
	}
	return map[string]string{"non_field_errors": strings.TrimSpace(string(body))}
}

func flatten(raw json.RawMessage) map[string]string {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return map[string]string{"non_field_errors": strings.Join(list, " ")}
		}
		return nil
	}

	out := make(map[string]string, len(fields))
	for name, v := range fields {
		switch val := v.(type) {
		case string:
			out[name] = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[name] = strings.Join(parts, " ")
		default:
			b, _ := json.Marshal(val)
			out[name] = string(b)
		}
	}
	return out
}
