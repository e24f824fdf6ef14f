package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseCallArgs parses operation arguments as either one positional JSON
// object or GNU-style flags (--key=value or --key value). A --flag without a
// value becomes boolean true.
func parseCallArgs(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	if len(args) == 1 && !strings.HasPrefix(args[0], "--") {
		return parseJSONObject(args[0])
	}

	result := make(map[string]any)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected positional argument: %s", arg)
		}

		key, value, err := parseLongFlagValue(args, &i, arg)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

func parseJSONObject(raw string) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON arguments must be an object")
	}
	return obj, nil
}

func parseLongFlagValue(args []string, idx *int, token string) (string, any, error) {
	body := strings.TrimPrefix(token, "--")
	if body == "" {
		return "", nil, fmt.Errorf("invalid flag: %s", token)
	}

	if eq := strings.Index(body, "="); eq >= 0 {
		key := body[:eq]
		if key == "" {
			return "", nil, fmt.Errorf("invalid flag: %s", token)
		}
		return key, body[eq+1:], nil
	}

	if *idx+1 < len(args) && !strings.HasPrefix(args[*idx+1], "--") {
		*idx = *idx + 1
		return body, args[*idx], nil
	}

	return body, true, nil
}
