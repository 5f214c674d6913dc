// internal/workers/logo-agent/compose-prompt/industry.go
package composeprompt

import "logo-workers/internal/models"

// industryPattern seeds the five feature categories for a known domain.
type industryPattern struct {
	shapes      []string
	icons       []string
	colors      []string
	typography  []string
	composition []string
}

var industryPatterns = map[models.Domain]industryPattern{
	models.DomainTech: {
		shapes:      []string{"geometric", "abstract", "angular", "circuit-inspired"},
		icons:       []string{"digital elements", "network nodes", "data symbols"},
		colors:      []string{"blue", "cyan", "purple", "gradient"},
		typography:  []string{"sans-serif", "geometric", "modern"},
		composition: []string{"minimal", "flat design", "negative space"},
	},
	models.DomainFood: {
		shapes:      []string{"circular", "organic", "leaf-like", "rounded"},
		icons:       []string{"food items", "utensils", "natural elements"},
		colors:      []string{"warm tones", "red", "orange", "green", "brown"},
		typography:  []string{"handwritten", "friendly", "rounded"},
		composition: []string{"badge", "emblem", "illustrative"},
	},
	models.DomainJuice: {
		shapes:      []string{"circular", "droplet", "fruit-inspired", "organic"},
		icons:       []string{"fruits", "leaves", "droplets", "splash"},
		colors:      []string{"vibrant", "orange", "green", "yellow", "fresh"},
		typography:  []string{"playful", "rounded", "energetic"},
		composition: []string{"colorful", "dynamic", "fresh"},
	},
	models.DomainFitness: {
		shapes:      []string{"angular", "dynamic", "bold", "athletic"},
		icons:       []string{"body silhouettes", "dumbbells", "movement"},
		colors:      []string{"bold", "red", "black", "energetic"},
		typography:  []string{"bold", "strong", "athletic"},
		composition: []string{"dynamic", "powerful", "motivational"},
	},
	models.DomainFashion: {
		shapes:      []string{"elegant", "flowing", "sophisticated"},
		icons:       []string{"hangers", "threads", "fashion elements"},
		colors:      []string{"black", "gold", "elegant", "luxury"},
		typography:  []string{"serif", "elegant", "luxury"},
		composition: []string{"minimalist", "sophisticated", "luxury"},
	},
	models.DomainFinance: {
		shapes:      []string{"stable", "geometric", "symmetrical"},
		icons:       []string{"graphs", "arrows", "stability symbols"},
		colors:      []string{"blue", "green", "trust colors", "professional"},
		typography:  []string{"professional", "serif", "trustworthy"},
		composition: []string{"balanced", "professional", "trustworthy"},
	},
}

// patternFor returns the seed for d. Domains without a table entry yield an
// empty pattern.
func patternFor(d models.Domain) (industryPattern, bool) {
	p, ok := industryPatterns[d]
	return p, ok
}

// domainKeyword maps a message keyword onto the domain vocabulary. Order is
// significant: the first keyword present wins.
type domainKeyword struct {
	keyword string
	domain  models.Domain
}

var domainKeywords = []domainKeyword{
	{"tech", models.DomainTech},
	{"technology", models.DomainTech},
	{"startup", models.DomainTech},
	{"software", models.DomainTech},
	{"app", models.DomainTech},
	{"digital", models.DomainTech},
	{"food", models.DomainFood},
	{"restaurant", models.DomainFood},
	{"cafe", models.DomainFood},
	{"coffee", models.DomainFood},
	{"bakery", models.DomainFood},
	{"juice", models.DomainJuice},
	{"beverage", models.DomainJuice},
	{"smoothie", models.DomainJuice},
	{"fashion", models.DomainFashion},
	{"clothing", models.DomainFashion},
	{"apparel", models.DomainFashion},
	{"boutique", models.DomainFashion},
	{"fitness", models.DomainFitness},
	{"gym", models.DomainFitness},
	{"health", models.DomainFitness},
	{"wellness", models.DomainFitness},
	{"yoga", models.DomainFitness},
	{"finance", models.DomainFinance},
	{"bank", models.DomainFinance},
	{"consulting", models.DomainBusiness},
	{"business", models.DomainBusiness},
	{"education", models.DomainEducation},
	{"school", models.DomainEducation},
	{"learning", models.DomainEducation},
	{"academy", models.DomainEducation},
	{"music", models.DomainEntertainment},
	{"entertainment", models.DomainEntertainment},
	{"gaming", models.DomainGaming},
	{"esports", models.DomainGaming},
	{"real estate", models.DomainRealEstate},
	{"construction", models.DomainConstruction},
	{"architecture", models.DomainConstruction},
	{"medical", models.DomainHealthcare},
	{"healthcare", models.DomainHealthcare},
	{"pharmacy", models.DomainHealthcare},
	{"clinic", models.DomainHealthcare},
	{"automotive", models.DomainAutomotive},
	{"car", models.DomainAutomotive},
	{"vehicle", models.DomainAutomotive},
	{"transport", models.DomainAutomotive},
}

var styleKeywords = []string{
	"minimal", "minimalist", "modern", "vintage", "retro",
	"abstract", "geometric", "organic", "bold", "elegant",
	"playful", "professional", "luxury", "futuristic", "clean",
	"flat", "3d", "gradient", "monochrome", "colorful",
}

var colorKeywords = []string{
	"blue", "red", "green", "yellow", "orange", "purple", "pink",
	"black", "white", "gray", "grey", "gold", "silver", "neon",
	"pastel", "vibrant", "dark", "light", "bright",
}

var trendKeywords = []string{
	"gradient", "minimalist", "bold", "vintage", "modern",
	"flat design", "3d", "geometric", "abstract", "monogram",
	"lettermark", "wordmark", "emblem", "mascot", "combination",
}
