// Package lexicon holds the word lists shared by intent classification,
// query extraction and the dialogue state machine.
package lexicon

import (
	"regexp"
	"strings"
)

// Polarity of a short confirmation-style reply.
type Polarity string

const (
	PolarityNone     Polarity = ""
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// MaxConfirmationWords bounds how long a message may be and still count as a
// bare yes/no reply.
const MaxConfirmationWords = 3

var confirmationPhrases = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "confirmed",
	"go ahead", "do it", "proceed", "sounds good", "perfect", "great", "looks good",
	"correct", "please do", "absolutely", "y", "use it", "let's go", "lets go",
}

var rejectionPhrases = []string{
	"no", "nope", "nah", "not that", "wrong", "different", "another", "other",
	"cancel", "refine", "change", "not quite", "not really", "n",
}

var fillerWords = map[string]bool{
	"please": true, "thanks": true, "thank": true, "you": true, "pls": true,
	"now": true, "again": true, "me": true, "for": true, "just": true,
	"not": true, "that": true, "this": true, "one": true, "ones": true,
	"really": true, "quite": true, "sorry": true, "thats": true, "that's": true,
}

var wordPattern = regexp.MustCompile(`[a-z0-9&'+-]+`)

// Words lowercases text and splits it into word tokens.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// WordCount counts word tokens in text.
func WordCount(text string) int {
	return len(Words(text))
}

// normalized collapses text to space-separated lowercase tokens.
func normalized(text string) string {
	return " " + strings.Join(Words(text), " ") + " "
}

func containsPhrase(norm string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(norm, " "+p+" ") {
			return p, true
		}
	}
	return "", false
}

// ConfirmationPolarity classifies short replies. Messages longer than
// MaxConfirmationWords are never treated as bare confirmations.
func ConfirmationPolarity(text string) Polarity {
	if WordCount(text) == 0 || WordCount(text) > MaxConfirmationWords {
		return PolarityNone
	}
	return leadingPolarity(text)
}

// leadingPolarity looks at the words regardless of message length. Rejection
// wins ties so that "no, not that" is never read as a confirmation.
func leadingPolarity(text string) Polarity {
	norm := normalized(text)
	if _, ok := containsPhrase(norm, rejectionPhrases); ok {
		return PolarityNegative
	}
	if _, ok := containsPhrase(norm, confirmationPhrases); ok {
		return PolarityPositive
	}
	return PolarityNone
}

// ReplyPolarity classifies a reply to a pending offer. Short replies use the
// full vocabulary; longer ones take the polarity of their first two words, so
// "no, make it blue with a wave" carries a refinement and "yes, go ahead
// with that" still confirms.
func ReplyPolarity(text string) Polarity {
	words := Words(text)
	if len(words) == 0 {
		return PolarityNone
	}
	if len(words) <= MaxConfirmationWords {
		return leadingPolarity(text)
	}
	return leadingPolarity(strings.Join(words[:2], " "))
}

var leadingRejection = regexp.MustCompile(`(?i)^\s*(?:no+|nope|nah|not (?:that|quite|really)|wrong|cancel)\b[\s,.!:;-]*(?:(?:but|instead|rather)\b[\s,]*)?`)

// StartsWithRejection reports an opening "no," / "nope" style term.
func StartsWithRejection(text string) bool {
	return leadingRejection.MatchString(text)
}

// StripLeadingRejection removes an opening "no," / "nope" style term.
func StripLeadingRejection(text string) string {
	return strings.TrimSpace(leadingRejection.ReplaceAllString(text, ""))
}

// ExtraWordCount counts words beyond the rejection vocabulary and filler,
// e.g. "no thanks" -> 0, "nope not that one" -> 0, "no make it blue" -> 3.
func ExtraWordCount(text string) int {
	rest := StripLeadingRejection(text)
	n := 0
	for _, w := range Words(rest) {
		if fillerWords[w] {
			continue
		}
		if _, ok := containsPhrase(" "+w+" ", rejectionPhrases); ok {
			continue
		}
		n++
	}
	return n
}

var trailingFiller = regexp.MustCompile(`(?i)(?:[\s,]+(?:please|pls|thanks|thank you|for me|now|again|right now|if you can|real quick))+\s*$`)

// TrimFiller strips trailing politeness words and punctuation.
func TrimFiller(text string) string {
	text = strings.TrimSpace(text)
	for {
		trimmed := strings.TrimRight(text, " .,!?;:")
		trimmed = trailingFiller.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == text {
			return text
		}
		text = trimmed
	}
}
