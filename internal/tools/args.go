package tools

import (
	"encoding/json"
	"fmt"
)

// The helpers below read already-validated arguments. JSON numbers arrive as
// float64.

func stringArg(args map[string]interface{}, name, fallback string) string {
	if val, exists := args[name]; exists {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return fallback
}

func intArg(args map[string]interface{}, name string, fallback int) int {
	if val, exists := args[name]; exists {
		switch num := val.(type) {
		case float64:
			return int(num)
		case int:
			return num
		case json.Number:
			if n, err := num.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return fallback
}

func boolArg(args map[string]interface{}, name string, fallback bool) bool {
	if val, exists := args[name]; exists {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return fallback
}

func stringListArg(args map[string]interface{}, name string) []string {
	val, exists := args[name]
	if !exists || val == nil {
		return nil
	}
	items, ok := val.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// encodeResult serializes a tool result for the model.
func encodeResult(result interface{}) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}
