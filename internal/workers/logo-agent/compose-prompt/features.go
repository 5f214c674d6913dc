// internal/workers/logo-agent/compose-prompt/features.go
package composeprompt

import (
	"strings"

	"logo-workers/internal/models"
)

// Extract maps a parsed request and design snippets onto visual features.
// It performs no I/O and is deterministic for identical inputs.
func Extract(req models.ParsedRequest, snippets []models.Snippet) models.VisualFeatures {
	var f models.VisualFeatures

	if p, ok := patternFor(req.Domain); ok {
		f.Shapes = append(f.Shapes, p.shapes...)
		f.Icons = append(f.Icons, p.icons...)
		f.Colors = append(f.Colors, p.colors...)
		f.Typography = append(f.Typography, p.typography...)
		f.Composition = append(f.Composition, p.composition...)
	}

	f.Colors = append(f.Colors, req.Colors...)
	f.Composition = append(f.Composition, req.Style...)

	if len(snippets) > 0 {
		parts := make([]string, 0, len(snippets))
		for _, s := range snippets {
			parts = append(parts, s.Title+" "+s.Description)
		}
		text := strings.ToLower(strings.Join(parts, " "))
		for _, kw := range trendKeywords {
			if containsWord(text, kw) {
				f.Trends = append(f.Trends, kw)
			}
		}
	}

	f.Shapes = dedupe(f.Shapes)
	f.Icons = dedupe(f.Icons)
	f.Colors = dedupe(f.Colors)
	f.Typography = dedupe(f.Typography)
	f.Composition = dedupe(f.Composition)
	f.Trends = dedupe(f.Trends)
	return f
}

// dedupe keeps the first occurrence of each value, case-insensitively, and
// always returns a non-nil slice.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
