package llm

import (
	"encoding/json"
	"strings"

	"logo-workers/internal/common/validation"
)

const (
	ActionGenerateImage = "generate_image"
	ActionWebSearch     = "web_search"
)

// ActionEnvelope is the structured object a model may return, either as the
// whole reply or embedded in prose. Classification replies carry Intent and
// Confidence; chat replies carry Action with a Prompt or Query.
type ActionEnvelope struct {
	Action     string   `json:"action,omitempty"`
	Prompt     string   `json:"prompt,omitempty"`
	Query      string   `json:"query,omitempty"`
	Intent     string   `json:"intent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`

	// Remainder is the surrounding prose with the object removed.
	Remainder string `json:"-"`
}

var envelopeSchema = validation.MustCompileSchema(`{
  "type": "object",
  "anyOf": [
    {"required": ["action"]},
    {"required": ["intent"]}
  ],
  "properties": {
    "action": {"type": "string", "enum": ["generate_image", "web_search"]},
    "prompt": {"type": "string"},
    "query": {"type": "string"},
    "intent": {"type": "string", "minLength": 1},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "reasoning": {"type": "string"}
  }
}`)

// ParseStructuredAction extracts an ActionEnvelope from model output. The
// whole body is tried first, then every balanced {...} object embedded in
// the text. Objects failing the envelope schema are ignored.
func ParseStructuredAction(text string) (*ActionEnvelope, bool) {
	body := StripCodeFences(text)
	if env, ok := decodeEnvelope(body); ok {
		return env, true
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		end := matchingBrace(text, start)
		if end < 0 {
			break
		}
		if env, ok := decodeEnvelope(text[start : end+1]); ok {
			env.Remainder = cleanRemainder(text[:start] + text[end+1:])
			return env, true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func decodeEnvelope(candidate string) (*ActionEnvelope, bool) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") {
		return nil, false
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, false
	}
	if !envelopeSchema.Validate(doc).Valid {
		return nil, false
	}

	var env ActionEnvelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		return nil, false
	}
	env.Prompt = strings.TrimSpace(env.Prompt)
	env.Query = strings.TrimSpace(env.Query)

	switch env.Action {
	case ActionGenerateImage:
		if env.Prompt == "" {
			return nil, false
		}
	case ActionWebSearch:
		if env.Query == "" {
			return nil, false
		}
	}
	return &env, true
}

// matchingBrace returns the index of the brace closing the object opened at
// start, honoring JSON string literals, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// StripCodeFences removes a surrounding ```json fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func cleanRemainder(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
