// internal/workers/ai-conversation/chat-reply/prompts.go
package chatreply

import "fmt"

const systemPrompt = `You are a friendly logo design assistant. You help people design logos for their
businesses, discuss branding, colors, typography and style, and find existing brand logos for
reference.

When the user clearly asks you to create, generate or design a logo or image, reply with one
short sentence and then this JSON object on its own line:
{"action": "generate_image", "prompt": "<a detailed image generation prompt>"}

When the user asks to see or find an existing brand logo or photo, reply with one short
sentence and then:
{"action": "web_search", "query": "<brand> logo"}

Otherwise answer conversationally and concisely. Never include JSON unless you are taking one of
those two actions.`

// AcknowledgementFallback is used when the model cannot produce one.
const AcknowledgementFallback = "Sure! I'll be generating that for you. This will just take a moment! ✨"

func enhanceRequest(prompt string) string {
	return fmt.Sprintf("Enhance this image generation prompt with more specific details about style, "+
		"colors, composition, and mood. Return ONLY the enhanced prompt, no explanations:\n\n"+
		"Original prompt: %s\n\nEnhanced prompt:", prompt)
}

func acknowledgementRequest(message string) string {
	return fmt.Sprintf(`Based on this user request, write a short, friendly acknowledgment (1-2 sentences) that:
1. Says you'll generate what they asked for
2. Mentions specifically what they requested (e.g., "your logo for a juice company")
3. Adds one emoji
4. Stays brief and natural

User request: %q

Reply with ONLY the acknowledgment:`, message)
}
