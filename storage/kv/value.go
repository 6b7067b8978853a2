package kv

import (
	"encoding/json"
	"fmt"
	"strings"
)

// encodeValue renders a value for the wire. Strings and byte slices are written
// as-is; everything else (maps, slices, structs, numbers, bools) is JSON.
func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return string(data), nil
}

// decodeValue opportunistically decodes a stored string. Only JSON objects and
// arrays are decoded; scalars and malformed JSON come back verbatim.
func decodeValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return raw
	}
	return decoded
}
