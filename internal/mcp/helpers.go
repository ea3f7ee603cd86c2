package mcpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func requiredString(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// intArg reads a JSON number argument. The second result is false when
// the argument is absent.
func intArg(args map[string]any, key string) (int, bool) {
	switch n := args[key].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func menuArg(args map[string]any) (domain.MenuName, error) {
	switch name := domain.MenuName(stringArg(args, "menu")); name {
	case "":
		return domain.MenuHome, nil
	case domain.MenuHome, domain.MenuSecondary:
		return name, nil
	default:
		return "", fmt.Errorf("unknown menu %q (home or secondary)", name)
	}
}

// timeArg parses an RFC 3339 timestamp or a YYYY-MM-DD date.
func timeArg(args map[string]any, key string) (*time.Time, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: cannot parse %q as a date", key, raw)
}
