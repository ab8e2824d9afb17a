package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
)

// validateArgs checks args against schema: every required parameter is
// present, no unknown parameter is passed and each value has the declared
// type. Errors wrap ErrInvalidArguments.
func validateArgs(schema Schema, args map[string]interface{}) error {
	for _, p := range schema.Params {
		if !p.Required {
			continue
		}
		if _, exists := args[p.Name]; !exists {
			return fmt.Errorf("%w: missing required argument '%s'", ErrInvalidArguments, p.Name)
		}
	}

	// Deterministic order for error messages.
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, ok := schema.Param(key)
		if !ok {
			return fmt.Errorf("%w: unexpected argument '%s' (accepted: %v)", ErrInvalidArguments, key, paramNames(schema))
		}
		value := args[key]
		if value == nil && !p.Required {
			continue
		}
		if err := validateType(value, p); err != nil {
			return fmt.Errorf("%w: argument '%s': %v", ErrInvalidArguments, key, err)
		}
	}
	return nil
}

func paramNames(schema Schema) []string {
	names := make([]string, len(schema.Params))
	for i, p := range schema.Params {
		names[i] = p.Name
	}
	return names
}

func validateType(value interface{}, p Param) error {
	switch p.Type {
	case TypeEnum:
		s, ok := value.(string)
		if !ok {
			break
		}
		if !slices.Contains(p.Enum, s) {
			return fmt.Errorf("value %q is not one of %v", s, p.Enum)
		}
		return nil
	case TypeArray:
		items, ok := value.([]interface{})
		if !ok {
			break
		}
		if p.Items == "" {
			return nil
		}
		for i, item := range items {
			if err := validateType(item, Param{Type: p.Items}); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case "", TypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case TypeNumber:
		if isNumber(value) {
			return nil
		}
	case TypeInteger:
		if isInteger(value) {
			return nil
		}
	case TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case TypeObject:
		if _, ok := value.(map[string]interface{}); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", p.Type)
	}
	expected := p.Type
	if expected == TypeEnum {
		expected = TypeString
	}
	return fmt.Errorf("expected %s but got %s", expected, describe(value))
}

func describe(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	if isNumber(value) {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func isNumber(value interface{}) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
