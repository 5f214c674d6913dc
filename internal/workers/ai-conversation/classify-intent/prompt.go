// internal/workers/ai-conversation/classify-intent/prompt.go
package classifyintent

import (
	"fmt"
	"strings"

	"logo-workers/internal/common/llm"
)

const systemPrompt = `You classify messages sent to a logo design assistant.
Choose exactly one intent:
- "generate": the user wants a new logo or image created.
- "search": the user wants to see or use an existing brand logo or photo from the web.
- "confirmation": the user accepts or declines the assistant's last offer (yes, go ahead, no).
- "refinement": the user adjusts a pending preview or search ("make it blue", "not that one, the red version").
- "conversation": anything else, including questions about design.

Rules:
- If the conversation shows a pending search and the user answers with a rejection term plus new details, classify as "refinement".
- A bare yes/no after an offer is "confirmation".
- "find", "show me", "look up" with a brand name is "search"; "create", "design", "make" with "my" or "for my" is "generate".
- When a message asks to search first and create afterwards, use the first action.

Reply with JSON only: {"intent": "<label>", "confidence": <0..1>, "reasoning": "<short reason>"}`

func buildMessages(message string, history []llm.Message, turns int) []llm.Message {
	var b strings.Builder
	recent := llm.LastTurns(history, turns)
	if len(recent) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Current message: %s", message)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}
