// internal/workers/logo-agent/compose-prompt/prompt.go
package composeprompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"logo-workers/internal/models"
)

// MaxPromptLength is the character budget of the diffusion text encoder.
const MaxPromptLength = 300

const (
	fragmentSeparator = ", "
	ellipsis          = "..."

	FallbackPrompt = "Professional logo design, clean minimal, professional modern"
)

var closingQualifiers = []string{"clean minimal", "professional modern"}

// Compose builds the diffusion prompt for a request. The result never
// exceeds MaxPromptLength bytes.
func Compose(req models.ParsedRequest, f models.VisualFeatures) string {
	return composeWithin(req, f, MaxPromptLength, 6)
}

func composeWithin(req models.ParsedRequest, f models.VisualFeatures, limit, keep int) string {
	fragments := Fragments(req, f)
	prompt := strings.Join(fragments, fragmentSeparator)
	if len(prompt) <= limit {
		return prompt
	}

	if keep > 0 && len(fragments) > keep {
		prompt = strings.Join(fragments[:keep], fragmentSeparator)
		if len(prompt) <= limit {
			return prompt
		}
	}

	if fitted := FitBudgetN(prompt, limit); fitted != "" {
		return fitted
	}
	return FitBudgetN(FallbackPrompt, limit)
}

// Fragments returns the ordered clauses of the prompt before budgeting.
func Fragments(req models.ParsedRequest, f models.VisualFeatures) []string {
	var parts []string

	if req.BrandName != "" {
		parts = append(parts, fmt.Sprintf("Logo for '%s'", req.BrandName))
	} else {
		parts = append(parts, "Professional logo design")
	}
	if req.Domain != models.DomainNone {
		parts = append(parts, fmt.Sprintf("for %s industry", req.Domain))
	}
	if len(f.Icons) > 0 {
		parts = append(parts, "featuring "+joinFirst(f.Icons, 3))
	}
	if len(f.Shapes) > 0 {
		parts = append(parts, "with "+joinFirst(f.Shapes, 2)+" shapes")
	}
	if len(f.Colors) > 0 {
		parts = append(parts, "using "+joinFirst(f.Colors, 3)+" colors")
	}
	if len(f.Composition) > 0 {
		parts = append(parts, joinFirst(f.Composition, 2)+" style")
	}
	if len(f.Typography) > 0 {
		parts = append(parts, "with "+f.Typography[0]+" typography")
	}

	return append(parts, closingQualifiers...)
}

func joinFirst(values []string, n int) string {
	if len(values) > n {
		values = values[:n]
	}
	return strings.Join(values, fragmentSeparator)
}

// FitBudget truncates s to MaxPromptLength at a word boundary, marking the
// cut with an ellipsis.
func FitBudget(s string) string {
	return FitBudgetN(s, MaxPromptLength)
}

// FitBudgetN is FitBudget with an explicit limit.
func FitBudgetN(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return truncateRunes(s, limit)
	}

	cut := truncateRunes(s, limit-len(ellipsis))
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	cut = strings.TrimRight(cut, " ,;:.-")
	if cut == "" {
		return truncateRunes(s, limit)
	}
	return cut + ellipsis
}

// truncateRunes returns the longest prefix of s that is at most n bytes and
// ends on a rune boundary.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// DesignQuery picks the web query used to gather design-trend snippets.
func DesignQuery(req models.ParsedRequest) string {
	switch {
	case req.Domain != models.DomainNone:
		return fmt.Sprintf("%s logo design trends", req.Domain)
	case req.BrandName != "":
		return fmt.Sprintf("logo design inspiration for %s", req.BrandName)
	default:
		return "modern logo design trends"
	}
}

// PreviewConfidence is high when the industry was recognised.
func PreviewConfidence(req models.ParsedRequest) string {
	if req.Domain != models.DomainNone {
		return models.ConfidenceHigh
	}
	return models.ConfidenceMedium
}

// FormatPreview renders a preview as markdown for the chat window.
func FormatPreview(p models.GenerationPreview) string {
	var b strings.Builder
	b.WriteString("🎨 **Logo Design Preview**\n\n")

	if p.Request.BrandName != "" {
		fmt.Fprintf(&b, "**Brand:** %s\n", p.Request.BrandName)
	}
	if p.Request.Domain != models.DomainNone {
		fmt.Fprintf(&b, "**Industry:** %s\n", p.Request.Domain.Title())
	}
	line := func(label string, values []string, n int) {
		if len(values) > 0 {
			fmt.Fprintf(&b, "**%s:** %s\n", label, joinFirst(values, n))
		}
	}
	line("Shapes", p.Features.Shapes, 3)
	line("Icons/Symbols", p.Features.Icons, 3)
	line("Colors", p.Features.Colors, 4)
	line("Style", p.Features.Composition, 3)
	line("Typography", p.Features.Typography, 2)

	b.WriteString("\n**Generated Prompt:**\n")
	fmt.Fprintf(&b, "_%s_\n", p.FinalPrompt)
	b.WriteString("\n✅ **Confirm** to generate | ❌ **Refine** to search again")
	return b.String()
}
