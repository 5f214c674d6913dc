// internal/workers/ai-conversation/classify-intent/patterns.go
package classifyintent

import (
	"regexp"

	"logo-workers/internal/common/lexicon"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
)

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

var searchPatterns = []weightedPattern{
	{regexp.MustCompile(`(?i)\b(?:search|look|find|google)\s+(?:for|up)\b`), 0.9},
	{regexp.MustCompile(`(?i)\bshow\s+me\b.*\blogos?\b`), 0.85},
	{regexp.MustCompile(`(?i)\bwhat\s+does\b.*\blogo\s+look\s+like\b`), 0.85},
	{regexp.MustCompile(`(?i)\b(?:find|get|fetch)\b.*\b(?:logo|image|photo|picture)s?\b`), 0.8},
	{regexp.MustCompile(`(?i)\b(?:photo|picture|image)s?\s+of\b`), 0.75},
	{regexp.MustCompile(`(?i)\b(?:reference|existing|official|real)\b.*\blogos?\b`), 0.7},
	// Case-sensitive: a capitalised brand directly before "logo".
	{regexp.MustCompile(`\b[A-Z][a-zA-Z0-9&'-]*(?:\s+[A-Z][a-zA-Z0-9&'-]*)*\s+[Ll]ogos?\b`), 0.6},
}

var generationPatterns = []weightedPattern{
	{regexp.MustCompile(`(?i)\b(?:create|generate|design|make|build|draw|produce)\b.*\b(?:logo|icon|emblem|brand\s*mark|image)s?\b`), 0.9},
	{regexp.MustCompile(`(?i)\blogo\s+for\s+(?:my|our|a|an)\b`), 0.85},
	{regexp.MustCompile(`(?i)\bi\s+(?:want|need|would\s+like)\s+(?:a|an)\b.*\blogo\b`), 0.85},
	{regexp.MustCompile(`(?i)\b(?:my|our)\s+(?:own\s+)?(?:\w+\s+)?(?:logo|brand)\b`), 0.8},
	{regexp.MustCompile(`(?i)\bnew\s+logo\b`), 0.8},
	{regexp.MustCompile(`(?i)\b(?:create|generate|design|make)\s+(?:it|one|this|that)\b`), 0.8},
}

var (
	historySearchWords     = regexp.MustCompile(`(?i)\b(?:search|find|show|reference|look\s+up|photo)\b`)
	historyGenerationWords = regexp.MustCompile(`(?i)\b(?:create|design|generate|my\s+logo)\b`)

	temporalConnective = regexp.MustCompile(`(?i)\b(?:then|after|afterwards)\b`)
	searchVerb         = regexp.MustCompile(`(?i)\b(?:search|find|look|show|google|fetch|get)\b`)
	generationVerb     = regexp.MustCompile(`(?i)\b(?:create|generate|design|make|build|draw|produce)\b`)
)

const (
	extraMatchBonus        = 0.05
	confirmationConfidence = 0.9
	conversationConfidence = 0.5
)

// score takes the strongest matching weight and adds a small bonus for
// every further match, capped at 1.
func score(message string, patterns []weightedPattern) float64 {
	best, matches := 0.0, 0
	for _, p := range patterns {
		if p.re.MatchString(message) {
			matches++
			if p.weight > best {
				best = p.weight
			}
		}
	}
	if matches > 1 {
		best += float64(matches-1) * extraMatchBonus
	}
	return capScore(best)
}

func capScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// contextLean reports which side the recent turns favour: +1 search, -1
// generation, 0 neither.
func contextLean(history []llm.Message) int {
	searchHits, generationHits := 0, 0
	for _, turn := range llm.LastTurns(history, 3) {
		searchHits += len(historySearchWords.FindAllStringIndex(turn.Content, -1))
		generationHits += len(historyGenerationWords.FindAllStringIndex(turn.Content, -1))
	}
	switch {
	case searchHits > generationHits:
		return 1
	case generationHits > searchHits:
		return -1
	default:
		return 0
	}
}

// FallbackClassify is the deterministic pattern scorer. It is a pure
// function of its inputs.
func (h *Handler) FallbackClassify(message string, history []llm.Message) models.IntentClassification {
	return fallbackClassify(h.config, message, history)
}

func fallbackClassify(cfg *Config, message string, history []llm.Message) models.IntentClassification {
	if polarity := lexicon.ConfirmationPolarity(message); polarity != lexicon.PolarityNone {
		return models.IntentClassification{
			Intent:     models.IntentConfirmation,
			Confidence: confirmationConfidence,
			Source:     models.SourcePattern,
			Polarity:   string(polarity),
			Reasoning:  "short " + string(polarity) + " reply",
		}
	}

	searchScore := score(message, searchPatterns)
	generationScore := score(message, generationPatterns)

	switch contextLean(history) {
	case 1:
		searchScore = capScore(searchScore + cfg.ContextBoost)
	case -1:
		generationScore = capScore(generationScore + cfg.ContextBoost)
	}

	intent, best, reasoning := models.IntentSearch, searchScore, "search patterns"
	if generationScore > searchScore {
		intent, best, reasoning = models.IntentGenerate, generationScore, "generation patterns"
	}

	if searchScore > 0.5 && generationScore > 0.5 && temporalConnective.MatchString(message) {
		s := searchVerb.FindStringIndex(message)
		g := generationVerb.FindStringIndex(message)
		switch {
		case s != nil && (g == nil || s[0] < g[0]):
			intent, best = models.IntentSearch, searchScore
		case g != nil:
			intent, best = models.IntentGenerate, generationScore
		}
		reasoning = "sequenced request, first action wins"
	}

	result := models.IntentClassification{
		Intent:          intent,
		Confidence:      best,
		Source:          models.SourcePattern,
		Reasoning:       reasoning,
		SearchScore:     searchScore,
		GenerationScore: generationScore,
	}
	if best < cfg.Threshold {
		result.Intent = models.IntentConversation
		result.Confidence = conversationConfidence
		result.Ambiguous = best > 0
		result.Reasoning = "no decisive pattern"
	}
	return result
}
