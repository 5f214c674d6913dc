// internal/workers/ai-conversation/handle-message/messages.go
package handlemessage

import (
	"fmt"
	"strings"

	"logo-workers/internal/models"
)

const (
	confirmedGenerationText = "Great! Generating your logo now. This will just take a moment! ✨"

	clarifyPreviewText = "No problem! What would you like to change?\n\n" +
		"- **Refine** the design: tell me the colors, style or symbols you want\n" +
		"- **Search** for an existing logo to use as a reference\n" +
		"- **Start over** with a new description"

	askInsteadText = "No problem! What would you like to search for instead?"

	searchFailedHeader = "❌ **Search Failed**\n\n"
)

func quotaExceededText(limit int) string {
	return fmt.Sprintf("Free limit reached (%d/day). Upgrade to Pro! [Upgrade](/upgrade)", limit)
}

func outOfRangeText(count int) string {
	return fmt.Sprintf("Please pick an image between 1 and %d, e.g. \"use image 1\".", count)
}

func referenceSelectedText(r models.SearchResult) string {
	name := r.Title
	if name == "" {
		name = r.Hostname
	}
	if name == "" {
		return "✅ Reference image selected! Now describe the logo you'd like me to create from it."
	}
	return fmt.Sprintf("✅ Reference image selected: _%s_. Now describe the logo you'd like me to create from it.", name)
}

// photoPreviewText renders a result set awaiting the user's pick.
func photoPreviewText(sel models.SearchSelection) string {
	var b strings.Builder
	b.WriteString("🔍 **Photos Found from Web Search**\n\n")
	fmt.Fprintf(&b, "**Found %d results for:** _%s_\n\n", len(sel.Results), sel.Query)
	b.WriteString("Select the best match below:\n")
	for i, r := range sel.Results {
		label := r.Title
		if label == "" {
			label = r.Hostname
		}
		if r.Width > 0 && r.Height > 0 {
			fmt.Fprintf(&b, "\n%d. %s (%dx%d)", i+1, label, r.Width, r.Height)
		} else {
			fmt.Fprintf(&b, "\n%d. %s", i+1, label)
		}
	}
	b.WriteString("\n\nReply \"use image N\" to pick one, or \"no\" to search again.")
	return b.String()
}
