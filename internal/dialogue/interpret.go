package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"logo-workers/internal/common/lexicon"
)

// Move is what a message means for the pending offer.
type Move string

const (
	MoveNone           Move = "none"
	MoveConfirm        Move = "confirm"
	MoveSelect         Move = "select"
	MoveRejectBare     Move = "reject_bare"
	MoveRejectWithText Move = "reject_with_text"
)

// MaxBareRejectionWords is the most extra words a rejection may carry and
// still be treated as a bare "no".
const MaxBareRejectionWords = 2

// Reply is the interpretation of one message against a pending offer.
type Reply struct {
	Move Move
	// Index is the zero-based result picked by MoveSelect.
	Index int
	// Refinement is the message without its leading rejection term.
	Refinement string
}

var (
	indexAfterNoun = regexp.MustCompile(`(?i)\b(?:image|photo|picture|pic|option|number|result|logo)\s*#?\s*(\d{1,2})\b`)
	indexAfterVerb = regexp.MustCompile(`(?i)\b(?:use|pick|choose|select|take|want|go\s+with)\s+(?:the\s+)?(?:number\s+)?#?(\d{1,2})(?:st|nd|rd|th)?\b`)
	hashIndex      = regexp.MustCompile(`#(\d{1,2})\b`)
	bareIndex      = regexp.MustCompile(`^\s*(\d{1,2})(?:st|nd|rd|th)?\s*[.!]?\s*$`)
	ordinal        = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth|last)\b(\s+(?:one|image|photo|picture|option|result))?`)
	pickThis       = regexp.MustCompile(`(?i)^\s*(?:use|pick|take|choose)\s+(?:this|that|it)\b`)

	refinementKeywords = regexp.MustCompile(`(?i)\b(?:style|styles|colou?rs?|shapes?|fonts?|without|add|remove|make\s+it|change|bigger|smaller|darker|lighter|instead\s+of)\b`)
)

var ordinals = map[string]int{"first": 0, "second": 1, "third": 2, "fourth": 3, "fifth": 4}

// Interpret maps a message onto the transitions available from offer's
// state. It never mutates anything; MoveNone means the message should be
// handled as a fresh request.
func Interpret(offer *PendingOffer, message string) Reply {
	switch offer.State() {
	case StateAwaitingGenerationConfirmation:
		return interpretPreviewReply(message)
	case StateAwaitingSearchSelection:
		return interpretSelectionReply(message, len(offer.Selection.Results))
	default:
		return Reply{Move: MoveNone}
	}
}

func interpretPreviewReply(message string) Reply {
	if reply, ok := rejection(message); ok {
		return reply
	}
	if lexicon.ConfirmationPolarity(message) == lexicon.PolarityPositive {
		return Reply{Move: MoveConfirm}
	}
	return Reply{Move: MoveNone}
}

func interpretSelectionReply(message string, count int) Reply {
	if lexicon.StartsWithRejection(message) {
		if rest := lexicon.StripLeadingRejection(message); isIndexPhrase(rest) {
			if i, ok := SelectedIndex(rest, count); ok {
				return Reply{Move: MoveSelect, Index: i}
			}
		}
		if reply, ok := rejection(message); ok {
			return reply
		}
	}
	if i, ok := SelectedIndex(message, count); ok {
		return Reply{Move: MoveSelect, Index: i}
	}
	if reply, ok := rejection(message); ok {
		return reply
	}
	if lexicon.ConfirmationPolarity(message) == lexicon.PolarityPositive || pickThis.MatchString(message) {
		return Reply{Move: MoveSelect, Index: 0}
	}
	return Reply{Move: MoveNone}
}

func rejection(message string) (Reply, bool) {
	if lexicon.ReplyPolarity(message) != lexicon.PolarityNegative {
		return Reply{}, false
	}
	if lexicon.ExtraWordCount(message) <= MaxBareRejectionWords {
		return Reply{Move: MoveRejectBare}, true
	}
	return Reply{Move: MoveRejectWithText, Refinement: lexicon.StripLeadingRejection(message)}, true
}

var indexPhraseWords = map[string]bool{
	"use": true, "pick": true, "choose": true, "select": true, "take": true, "want": true,
	"go": true, "with": true, "the": true, "number": true, "image": true, "photo": true,
	"picture": true, "pic": true, "option": true, "result": true, "one": true,
	"first": true, "second": true, "third": true, "fourth": true, "fifth": true, "last": true,
	"please": true, "actually": true, "instead": true,
}

var indexToken = regexp.MustCompile(`^\d{1,2}(?:st|nd|rd|th)?$`)

// isIndexPhrase reports text made only of pick words and an index, such as
// "use photo 2" or "the second one".
func isIndexPhrase(text string) bool {
	words := lexicon.Words(text)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !indexPhraseWords[w] && !indexToken.MatchString(w) {
			return false
		}
	}
	return true
}

// SelectedIndex finds an explicit pick such as "use image 2", "#3", "the
// second one" or a bare "2". Numbers are one-based in the message and
// zero-based in the result; "last" needs count.
func SelectedIndex(message string, count int) (int, bool) {
	for _, p := range []*regexp.Regexp{indexAfterNoun, indexAfterVerb, hashIndex, bareIndex} {
		if m := p.FindStringSubmatch(message); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				continue
			}
			return n - 1, true
		}
	}

	if m := ordinal.FindStringSubmatch(message); m != nil {
		if m[2] == "" && lexicon.WordCount(message) > 4 {
			return 0, false
		}
		word := strings.ToLower(m[1])
		if word == "last" {
			if count == 0 {
				return 0, false
			}
			return count - 1, true
		}
		return ordinals[word], true
	}
	return 0, false
}

// HasRefinementKeywords reports words that adjust a design rather than ask
// for something new.
func HasRefinementKeywords(text string) bool {
	return refinementKeywords.MatchString(text)
}
