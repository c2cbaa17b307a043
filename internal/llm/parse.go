package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence from a completion.
// Models wrap code and JSON in ```lang blocks even when told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag on the opening fence line
		first := strings.TrimSpace(s[:idx])
		if !strings.ContainsAny(first, " \t{[") {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseBoolField decodes a single boolean field from a JSON completion
func ParseBoolField(resp, field string) (bool, error) {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripFences(resp)), &parsed); err != nil {
		return false, fmt.Errorf("failed to decode completion as JSON object: %w", err)
	}

	raw, ok := parsed[field]
	if !ok {
		return false, fmt.Errorf("completion is missing field %q", field)
	}

	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, fmt.Errorf("field %q is not a boolean: %w", field, err)
	}

	return value, nil
}

// ParseStringList decodes a completion as a JSON array of strings
func ParseStringList(resp string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(StripFences(resp)), &items); err != nil {
		return nil, fmt.Errorf("failed to decode completion as string array: %w", err)
	}
	return items, nil
}
