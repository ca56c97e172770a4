package forms

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AsString renders a form value as a trimmed string. Missing and nil values
// yield the empty string.
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(jsonString(v))
	}
}

// AsInt converts a form value to an int, accepting the numeric shapes JSON
// decoding produces.
func AsInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		i, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// AsBool converts a form value to a bool, accepting common string spellings.
func AsBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.TrimSpace(strings.ToLower(v)) {
		case "true", "1", "yes", "y", "on":
			return true
		default:
			return false
		}
	case int:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		i, err := v.Int64()
		return err == nil && i != 0
	default:
		return false
	}
}

func jsonString(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}
