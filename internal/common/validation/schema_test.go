package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["intent", "confidence"],
  "properties": {
    "intent": {"type": "string", "enum": ["generate", "search"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

func TestSchema_Validate(t *testing.T) {
	schema, err := CompileSchema(testSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		field     string
	}{
		{"valid", map[string]interface{}{"intent": "search", "confidence": 0.9}, true, ""},
		{"unknown intent", map[string]interface{}{"intent": "dance", "confidence": 0.9}, false, "intent"},
		{"confidence out of range", map[string]interface{}{"intent": "generate", "confidence": 1.7}, false, "confidence"},
		{"missing confidence", map[string]interface{}{"intent": "generate"}, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.field != "" {
				assert.True(t, result.HasErrors(tt.field), result.GetErrorMessages())
			}
		})
	}
}

func TestSchema_ValidateBytes_BrokenJSON(t *testing.T) {
	schema := MustCompileSchema(testSchema)
	result := schema.ValidateBytes([]byte(`{"intent":`))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://upload.wikimedia.org/logo.png"))
	assert.True(t, ValidateURL("http://example.com/a.jpg"))
	assert.False(t, ValidateURL("ftp://example.com/a.jpg"))
	assert.False(t, ValidateURL("/relative/path.png"))
	assert.False(t, ValidateURL(""))
}
