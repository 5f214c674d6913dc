// internal/workers/ai-conversation/extract-search-query/brands.go
package extractsearchquery

import (
	"regexp"
	"strings"

	"logo-workers/internal/common/llm"
)

// variantNames maps a generic descriptor to the name a brand uses for it.
var variantNames = map[string]map[string]string{
	"bmw": {
		"performance": "M Performance",
		"sport":       "M Sport",
	},
	"mercedes": {
		"performance": "AMG",
	},
	"mercedes-benz": {
		"performance": "AMG",
	},
	"mercedes benz": {
		"performance": "AMG",
	},
	"audi": {
		"performance": "RS",
		"sport":       "S line",
	},
	"cadillac": {
		"performance": "V-Series",
	},
}

// descriptorWords say which version of a brand, never which brand.
var descriptorWords = map[string]bool{
	"performance": true, "sport": true, "sports": true, "sporty": true, "racing": true,
	"classic": true, "vintage": true, "retro": true, "old": true, "new": true,
	"modern": true, "original": true, "official": true, "electric": true,
	"luxury": true, "premium": true, "3d": true, "flat": true, "minimal": true,
	"minimalist": true, "monochrome": true,
	"red": true, "blue": true, "green": true, "yellow": true, "orange": true,
	"purple": true, "pink": true, "black": true, "white": true, "gold": true,
	"golden": true, "silver": true, "gray": true, "grey": true, "brown": true,
}

var genericWords = map[string]bool{
	"the": true, "a": true, "an": true, "one": true, "ones": true, "version": true,
	"logo": true, "logos": true, "for": true, "of": true, "with": true, "in": true,
	"i": true, "want": true, "me": true, "it": true, "that": true, "this": true,
	"image": true, "photo": true, "picture": true, "brand": true, "some": true,
	"same": true, "again": true, "please": true, "instead": true, "edition": true,
}

var (
	brandMention = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]*)*)\s+(?i:logos?|brand|company)\b`)
	markup       = regexp.MustCompile("[*_`#>\\[\\]]")

	// Capitalised sentence openers that are not brands.
	leadingNonBrand = map[string]bool{
		"The": true, "A": true, "An": true, "I": true, "Show": true, "Find": true,
		"Search": true, "Here": true, "Photos": true, "Found": true, "Use": true,
		"My": true, "Your": true, "This": true, "That": true, "Create": true,
		"Design": true, "Get": true, "Results": true, "Web": true, "Generated": true,
	}
)

// recentBrand scans the last turns, newest first, for a capitalised name
// followed by "logo", "brand" or "company".
func recentBrand(history []llm.Message, turns int) string {
	recent := llm.LastTurns(history, turns)
	for i := len(recent) - 1; i >= 0; i-- {
		text := markup.ReplaceAllString(recent[i].Content, " ")
		matches := brandMention.FindAllStringSubmatch(text, -1)
		for j := len(matches) - 1; j >= 0; j-- {
			if brand := trimNonBrand(matches[j][1]); brand != "" {
				return brand
			}
		}
	}
	return ""
}

func trimNonBrand(candidate string) string {
	words := strings.Fields(candidate)
	for len(words) > 0 && leadingNonBrand[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// descriptorsIn returns the descriptor words of text in order of appearance.
func descriptorsIn(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range wordsOf(text) {
		if descriptorWords[w] && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// isGeneric reports whether every word of text is a descriptor or filler.
func isGeneric(text string) bool {
	words := wordsOf(text)
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !descriptorWords[w] && !genericWords[w] {
			return false
		}
	}
	return true
}

// combine joins a remembered brand with the descriptors, translating
// descriptors the brand has its own name for.
func combine(brand string, descriptors []string) string {
	names := variantNames[strings.ToLower(brand)]
	parts := []string{brand}
	var plain []string
	for _, d := range descriptors {
		if name, ok := names[d]; ok {
			parts = append(parts, name)
			continue
		}
		plain = append(plain, d)
	}
	parts = append(parts, plain...)
	return strings.Join(parts, " ") + " logo"
}
