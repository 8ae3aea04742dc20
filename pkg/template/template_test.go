package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{"name": "Amy"},
		"item": map[string]any{
			"sku":     "WIDGET-1",
			"on_hand": 42.0,
		},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "Hi {{user.name}}",
			expected: "Hi Amy",
		},
		{
			name:     "unresolved path renders empty",
			input:    "Hi {{user.missing}}!",
			expected: "Hi !",
		},
		{
			name:     "multiple tokens resolved independently",
			input:    "{{item.sku}} has {{item.on_hand}} units",
			expected: "WIDGET-1 has 42 units",
		},
		{
			name:     "whitespace inside token",
			input:    "Hi {{ user.name }}",
			expected: "Hi Amy",
		},
		{
			name:     "no tokens",
			input:    "plain text",
			expected: "plain text",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.input, data))
		})
	}
}

func TestRenderConfig(t *testing.T) {
	data := map[string]any{"order": map[string]any{"number": "PO-1"}}

	config := map[string]any{
		"subject": "Order {{order.number}}",
		"nested": map[string]any{
			"body": "for {{order.number}}",
		},
		"count": 3,
	}

	rendered := RenderConfig(config, data)

	assert.Equal(t, "Order PO-1", rendered["subject"])
	assert.Equal(t, "for PO-1", rendered["nested"].(map[string]any)["body"])
	assert.Equal(t, 3, rendered["count"])
}

func TestResolvePath(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
		},
		"top": nil,
	}

	value, ok := ResolvePath(data, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, "deep", value)

	_, ok = ResolvePath(data, "a.b.missing")
	assert.False(t, ok)

	_, ok = ResolvePath(data, "a.missing.c")
	assert.False(t, ok)

	value, ok = ResolvePath(data, "top")
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "42", Stringify(42.0))
	assert.Equal(t, "42.5", Stringify(42.5))
	assert.Equal(t, "text", Stringify("text"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "", Stringify(nil))
}
