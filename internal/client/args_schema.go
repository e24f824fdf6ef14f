package client

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// compileArgs validates raw arguments against a tool input schema before
// anything is sent: required parameters must be present, undeclared names are
// rejected, and scalar values are coerced to their declared types so string
// input from a CLI or chat model still matches the schema.
func compileArgs(raw map[string]any, schemaRaw json.RawMessage) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	if len(schemaRaw) == 0 {
		return raw, nil
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return nil, fmt.Errorf("parsing input schema: %w", err)
	}
	if len(schema) == 0 {
		return raw, nil
	}

	props, _ := schema["properties"].(map[string]any)

	if len(props) > 0 {
		for key := range raw {
			if _, ok := props[key]; !ok {
				return nil, invalidArgsError("unknown argument %q", key)
			}
		}
	}
	for key := range requiredSet(schema) {
		if _, ok := raw[key]; !ok {
			return nil, invalidArgsError("missing required argument %q", key)
		}
	}

	out := make(map[string]any, len(raw))
	for key, value := range raw {
		propSchema, _ := props[key].(map[string]any)
		if propSchema == nil {
			out[key] = value
			continue
		}
		coerced, err := coerceValue(value, propSchema, key)
		if err != nil {
			return nil, err
		}
		out[key] = coerced
	}
	return out, nil
}

func coerceValue(value any, schema map[string]any, name string) (any, error) {
	if schema == nil || value == nil {
		return value, nil
	}

	switch schemaType(schema) {
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, invalidArgsError("argument %q must be string, got %T", name, value)
		}
		return s, nil
	case "integer":
		return coerceInteger(value, name)
	case "number":
		return coerceNumber(value, name)
	case "boolean":
		return coerceBoolean(value, name)
	default:
		return value, nil
	}
}

func coerceInteger(value any, name string) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if math.Trunc(v) != v {
			return 0, invalidArgsError("argument %q must be integer", name)
		}
		return int64(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, invalidArgsError("argument %q must be integer: %v", name, err)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalidArgsError("argument %q must be integer: %v", name, err)
		}
		return i, nil
	default:
		return 0, invalidArgsError("argument %q must be integer, got %T", name, value)
	}
}

func coerceNumber(value any, name string) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, invalidArgsError("argument %q must be number: %v", name, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalidArgsError("argument %q must be number: %v", name, err)
		}
		return f, nil
	default:
		return 0, invalidArgsError("argument %q must be number, got %T", name, value)
	}
}

func coerceBoolean(value any, name string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, invalidArgsError("argument %q must be boolean: %v", name, err)
		}
		return b, nil
	default:
		return false, invalidArgsError("argument %q must be boolean, got %T", name, value)
	}
}

func requiredSet(schema map[string]any) map[string]struct{} {
	out := map[string]struct{}{}

	switch v := schema["required"].(type) {
	case []string:
		for _, name := range v {
			out[name] = struct{}{}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out[s] = struct{}{}
			}
		}
	}

	return out
}

func schemaType(schema map[string]any) string {
	if schema == nil {
		return ""
	}
	if t, ok := schema["type"].(string); ok {
		return strings.TrimSpace(strings.ToLower(t))
	}
	if _, ok := schema["properties"]; ok {
		return "object"
	}
	return ""
}

func invalidArgsError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArguments, fmt.Sprintf(format, args...))
}
