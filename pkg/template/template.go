// Package template provides token substitution for dynamic workflow
// configuration. Any {{dotted.path}} token inside a string is replaced with
// the string form of the value resolved from the trigger context; a token
// whose path does not resolve renders as the empty string.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([\w.-]+)\s*\}\}`)

// Render substitutes every {{dotted.path}} token in input with the resolved
// context value. Each token is resolved independently.
func Render(input string, data map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]

		value, ok := ResolvePath(data, path)
		if !ok || value == nil {
			return ""
		}

		return Stringify(value)
	})
}

// RenderConfig returns a copy of config with every string value rendered
// against the context. Nested maps and string slices are rendered
// recursively; other value types pass through unchanged.
func RenderConfig(config map[string]any, data map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	rendered := make(map[string]any, len(config))
	for key, value := range config {
		rendered[key] = renderValue(value, data)
	}

	return rendered
}

func renderValue(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return Render(v, data)
	case map[string]any:
		return RenderConfig(v, data)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = renderValue(item, data)
		}

		return out
	default:
		return value
	}
}

// ResolvePath walks a dot-delimited path through nested maps. A missing
// segment resolves to absent rather than an error.
func ResolvePath(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")

	var current any = data

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Stringify renders a resolved value the way it would appear in a message
// body. Floats that carry no fraction print as integers since JSON decoding
// turns all numbers into float64.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
