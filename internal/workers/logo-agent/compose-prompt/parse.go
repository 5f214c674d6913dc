// internal/workers/logo-agent/compose-prompt/parse.go
package composeprompt

import (
	"regexp"
	"strings"

	"logo-workers/internal/models"
)

const brandName = `([A-Z][a-zA-Z0-9&]*(?:\s+(?:&\s+)?[A-Z0-9][a-zA-Z0-9&]*)*)`

var brandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:for|called|named)\s+["']?` + brandName),
	regexp.MustCompile(`["']` + brandName + `["']`),
}

// ParseRequest extracts brand, domain, styles and colors from a generation
// request. Keywords match on word boundaries.
func ParseRequest(message string) models.ParsedRequest {
	req := models.ParsedRequest{
		Style:   []string{},
		Colors:  []string{},
		RawText: message,
	}

	for _, p := range brandPatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			req.BrandName = strings.TrimSpace(m[1])
			break
		}
	}

	lower := strings.ToLower(message)
	for _, dk := range domainKeywords {
		if containsWord(lower, dk.keyword) {
			req.Domain = dk.domain
			break
		}
	}

	for _, s := range styleKeywords {
		if containsWord(lower, s) {
			req.Style = append(req.Style, s)
		}
	}
	for _, c := range colorKeywords {
		if containsWord(lower, c) {
			req.Colors = append(req.Colors, c)
		}
	}

	return req
}

var wordPatterns = map[string]*regexp.Regexp{}

func init() {
	lists := [][]string{styleKeywords, colorKeywords, trendKeywords}
	for _, dk := range domainKeywords {
		lists = append(lists, []string{dk.keyword})
	}
	for _, list := range lists {
		for _, w := range list {
			wordPatterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
}

// containsWord reports whether the lowercase text contains keyword as a
// whole word or phrase.
func containsWord(text, keyword string) bool {
	if p, ok := wordPatterns[keyword]; ok {
		return p.MatchString(text)
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`).MatchString(text)
}
