// internal/models/reference.go
package models

import (
	"image"
	"time"
)

// SearchResult is one candidate reference image.
type SearchResult struct {
	ImageURL      string `json:"image_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	SourcePageURL string `json:"source"`
	Hostname      string `json:"hostname"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	IsAccessible  bool   `json:"is_accessible"`
	Priority      int    `json:"priority"`
}

// Area is width*height, zero when either dimension is unknown.
func (r SearchResult) Area() int {
	return r.Width * r.Height
}

// Snippet is a plain web result used as design-trend evidence.
type Snippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchSelection is a result set awaiting the user's pick.
type SearchSelection struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// ReferenceImage is a downloaded, decoded and validated search result. It is
// handed to exactly one generation call.
type ReferenceImage struct {
	Result    SearchResult `json:"result"`
	Image     image.Image  `json:"-"`
	Format    string       `json:"format"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	SourceURL string       `json:"source_url"`
	FetchedAt time.Time    `json:"fetched_at"`
}
