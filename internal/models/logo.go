// internal/models/logo.go
package models

import "strings"

// Domain is the fixed industry vocabulary recognised in generation requests.
type Domain string

const (
	DomainNone          Domain = ""
	DomainTech          Domain = "tech"
	DomainFood          Domain = "food"
	DomainJuice         Domain = "juice"
	DomainFitness       Domain = "fitness"
	DomainFashion       Domain = "fashion"
	DomainFinance       Domain = "finance"
	DomainBusiness      Domain = "business"
	DomainEducation     Domain = "education"
	DomainEntertainment Domain = "entertainment"
	DomainGaming        Domain = "gaming"
	DomainRealEstate    Domain = "real estate"
	DomainConstruction  Domain = "construction"
	DomainHealthcare    Domain = "healthcare"
	DomainAutomotive    Domain = "automotive"
)

// Title returns the display form used in previews, e.g. "Real Estate".
func (d Domain) Title() string {
	words := strings.Fields(string(d))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParsedRequest is derived once per generation-oriented message.
type ParsedRequest struct {
	BrandName string   `json:"brand_name,omitempty"`
	Domain    Domain   `json:"domain,omitempty"`
	Style     []string `json:"style"`
	Colors    []string `json:"colors"`
	RawText   string   `json:"raw_text"`
}

// VisualFeatures are the design hints fed to the prompt composer. Every list
// is ordered and free of duplicates.
type VisualFeatures struct {
	Shapes      []string `json:"shapes"`
	Icons       []string `json:"icons"`
	Colors      []string `json:"colors"`
	Typography  []string `json:"typography"`
	Composition []string `json:"composition"`
	Trends      []string `json:"trends"`
}

// IsEmpty reports whether no category carries a hint.
func (f VisualFeatures) IsEmpty() bool {
	return len(f.Shapes)+len(f.Icons)+len(f.Colors)+len(f.Typography)+len(f.Composition)+len(f.Trends) == 0
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// GenerationPreview is shown to the user before an image is generated.
type GenerationPreview struct {
	Request     ParsedRequest  `json:"request_data"`
	Features    VisualFeatures `json:"extracted_visual_features"`
	FinalPrompt string         `json:"final_diffusion_prompt"`
	Confidence  string         `json:"confidence"`
	DesignQuery string         `json:"design_query,omitempty"`
	Markdown    string         `json:"preview_text,omitempty"`
}

// StyleParams accompany a prompt handed to the diffusion backend.
type StyleParams struct {
	Steps           int     `json:"steps"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	LoraRef         string  `json:"lora_ref,omitempty"`
	ReferenceWeight float64 `json:"reference_weight"`
}

const (
	DefaultReferenceWeight  = 0.5
	ReferenceImageWeight    = 0.6
	DefaultGenerationSteps  = 4
	DefaultGenerationWidth  = 1024
	DefaultGenerationHeight = 1024
)

// DefaultStyleParams returns the parameters for a plain text-to-image call.
func DefaultStyleParams() StyleParams {
	return StyleParams{
		Steps:           DefaultGenerationSteps,
		Width:           DefaultGenerationWidth,
		Height:          DefaultGenerationHeight,
		ReferenceWeight: DefaultReferenceWeight,
	}
}
