package translator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// scalar renders a JSON scalar as a string.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// integer reads a JSON number or numeric string as an integer.
func integer(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	return 0, fmt.Errorf("%v is not a number", v)
}

// str reads a string property, "" when absent or not a scalar.
func str(props map[string]any, key string) string {
	s, _ := scalar(props[key])
	return strings.TrimSpace(s)
}
