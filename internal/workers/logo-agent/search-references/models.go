// internal/workers/logo-agent/search-references/models.go
package searchreferences

import "logo-workers/internal/models"

const (
	ModeImages   = "images"
	ModeSnippets = "snippets"
)

type Input struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

type Output struct {
	Selection models.SearchSelection `json:"photoResult"`
	Snippets  []models.Snippet       `json:"snippets,omitempty"`
	Total     int                    `json:"totalResults"`
}

// braveImageResponse is the body of {base}/images/search.
type braveImageResponse struct {
	Results []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Source    string `json:"source"`
		Thumbnail struct {
			Src    string `json:"src"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"thumbnail"`
		Properties struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"properties"`
		MetaURL struct {
			Hostname string `json:"hostname"`
		} `json:"meta_url"`
	} `json:"results"`
}

// braveWebResponse is the body of {base}/web/search.
type braveWebResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			MetaURL     struct {
				Hostname string `json:"hostname"`
			} `json:"meta_url"`
			Thumbnail struct {
				Src      string `json:"src"`
				Original string `json:"original"`
			} `json:"thumbnail"`
		} `json:"results"`
	} `json:"web"`
}
