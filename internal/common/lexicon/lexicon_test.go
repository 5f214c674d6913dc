package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationPolarity(t *testing.T) {
	tests := []struct {
		message string
		want    Polarity
	}{
		{"yes", PolarityPositive},
		{"Yes please!", PolarityPositive},
		{"sounds good", PolarityPositive},
		{"go ahead", PolarityPositive},
		{"no", PolarityNegative},
		{"nope, not that", PolarityNegative},
		{"no thanks", PolarityNegative},
		{"yes make it bigger and blue", PolarityNone},
		{"create a logo", PolarityNone},
		{"", PolarityNone},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfirmationPolarity(tt.message))
		})
	}
}

func TestReplyPolarity_LongRejectionCarriesRefinement(t *testing.T) {
	assert.Equal(t, PolarityNegative, ReplyPolarity("no, make it blue with a wave"))
	assert.Equal(t, PolarityNegative, ReplyPolarity("change the colors to green and gold"))
	assert.Equal(t, PolarityNone, ReplyPolarity("what fonts do you recommend for a bakery"))
	assert.Equal(t, PolarityPositive, ReplyPolarity("ok"))
	assert.Equal(t, PolarityPositive, ReplyPolarity("yes, go ahead with that"))
	assert.Equal(t, PolarityPositive, ReplyPolarity("sure thing, make the logo"))
	assert.Equal(t, PolarityNegative, ReplyPolarity("yes no wait a moment"))
}

func TestExtraWordCount(t *testing.T) {
	assert.Equal(t, 0, ExtraWordCount("no thanks"))
	assert.Equal(t, 0, ExtraWordCount("nope not that one"))
	assert.Equal(t, 3, ExtraWordCount("no make it blue"))
	assert.Equal(t, 5, ExtraWordCount("no, use a rounded serif font"))
}

func TestStripLeadingRejection(t *testing.T) {
	assert.Equal(t, "make it blue", StripLeadingRejection("No, make it blue"))
	assert.Equal(t, "a wave instead", StripLeadingRejection("nope - a wave instead"))
	assert.Equal(t, "use red", StripLeadingRejection("no but use red"))
	assert.Equal(t, "november theme", StripLeadingRejection("november theme"))
}

func TestTrimFiller(t *testing.T) {
	assert.Equal(t, "nike", TrimFiller("nike please!"))
	assert.Equal(t, "the adidas logo", TrimFiller("the adidas logo for me, thanks."))
	assert.Equal(t, "bmw", TrimFiller("bmw"))
}

func TestStartsWithRejection(t *testing.T) {
	assert.True(t, StartsWithRejection("no, I want the 7 Eleven logo"))
	assert.True(t, StartsWithRejection("Nope"))
	assert.False(t, StartsWithRejection("show me another one"))
	assert.False(t, StartsWithRejection("notable brands"))
}
