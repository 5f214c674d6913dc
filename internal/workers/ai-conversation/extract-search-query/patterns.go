// internal/workers/ai-conversation/extract-search-query/patterns.go
package extractsearchquery

import (
	"regexp"
	"strings"

	"logo-workers/internal/common/lexicon"
	"logo-workers/internal/common/llm"
)

const article = `(?:(?:the|a|an|some)\s+)?`

// extractionPatterns are tried in order; the first capture wins.
var extractionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:search|look|google)\s+(?:for|up)\s+` + article + `(.+)$`),
	regexp.MustCompile(`(?i)\bshow\s+me\s+` + article + `(.+)$`),
	regexp.MustCompile(`(?i)\b(?:photo|picture|image)s?\s+of\s+` + article + `(.+)$`),
	regexp.MustCompile(`(?i)\b(?:find|get|fetch)\s+(?:me\s+)?` + article + `(.+)$`),
	regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]*)*\s+[Ll]ogos?)\b`),
	regexp.MustCompile(`(?i)\bthe\s+(.+?\s+logos?)\b`),
}

var continuation = regexp.MustCompile(`(?i)\b(?:search\s+for\s+it|search\s+again|find\s+it|look\s+it\s+up|show\s+me|that\s+one|this\s+one|the\s+same)\b`)

var (
	quoteChars  = "\"'“”‘’`"
	spaceRun    = regexp.MustCompile(`\s+`)
	wordMatcher = regexp.MustCompile(`[a-z0-9&'-]+`)
	logoWord    = regexp.MustCompile(`(?i)\blogos?\b`)
	leadArticle = regexp.MustCompile(`(?i)^(?:the|a|an|some)\s+`)
)

func wordsOf(text string) []string {
	return wordMatcher.FindAllString(strings.ToLower(text), -1)
}

// Normalize strips quotes and filler, collapses whitespace and makes sure the
// query names a logo.
func Normalize(query string) string {
	q := strings.Trim(strings.TrimSpace(query), quoteChars)
	q = strings.ReplaceAll(q, "\n", " ")
	q = lexicon.TrimFiller(q)
	q = strings.Trim(q, quoteChars+" ")
	q = leadArticle.ReplaceAllString(q, "")
	q = strings.TrimSpace(spaceRun.ReplaceAllString(q, " "))
	if q == "" {
		return ""
	}
	if !logoWord.MatchString(q) {
		q += " logo"
	}
	return q
}

func matchPatterns(message string) string {
	for _, p := range extractionPatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			if q := lexicon.TrimFiller(m[1]); q != "" {
				return q
			}
		}
	}
	return ""
}

// fallbackExtract applies the ordered patterns, then brand memory for
// descriptor-only or continuation messages. The second result is the source.
func fallbackExtract(cfg *Config, message string, history []llm.Message) (string, string) {
	candidate := matchPatterns(message)
	if candidate != "" && !isGeneric(candidate) {
		return Normalize(candidate), SourcePattern
	}

	brand := recentBrand(history, cfg.BrandMemoryTurns)
	if brand == "" {
		return "", ""
	}
	if descriptors := descriptorsIn(message); len(descriptors) > 0 {
		return combine(brand, descriptors), SourceHistory
	}
	if candidate != "" || continuation.MatchString(message) {
		return brand + " logo", SourceHistory
	}
	return "", ""
}
