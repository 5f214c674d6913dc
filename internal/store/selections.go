package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"logo-workers/internal/common/database"
	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/models"
)

const selectionsMapping = `{
  "mappings": {
    "properties": {
      "user_id":     {"type": "keyword"},
      "query":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "image_url":   {"type": "keyword"},
      "hostname":    {"type": "keyword"},
      "title":       {"type": "text"},
      "priority":    {"type": "integer"},
      "width":       {"type": "integer"},
      "height":      {"type": "integer"},
      "selected_at": {"type": "date"}
    }
  }
}`

// SelectionRecord is one confirmed reference pick.
type SelectionRecord struct {
	UserID     string    `json:"user_id"`
	Query      string    `json:"query"`
	ImageURL   string    `json:"image_url"`
	Hostname   string    `json:"hostname"`
	Title      string    `json:"title"`
	Priority   int       `json:"priority"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	SelectedAt time.Time `json:"selected_at"`
}

// SelectionArchive indexes confirmed reference selections so ranking can be
// reviewed against what users actually pick.
type SelectionArchive struct {
	es    *database.ElasticsearchClient
	index string
}

func NewSelectionArchive(es *database.ElasticsearchClient, index string) *SelectionArchive {
	return &SelectionArchive{es: es, index: index}
}

// EnsureIndex creates the index unless it already exists.
func (a *SelectionArchive) EnsureIndex(ctx context.Context) error {
	if err := a.es.EnsureIndex(ctx, a.index, selectionsMapping); err != nil {
		return apperrors.NewStoreOperationFailedError("ensure selections index", err)
	}
	return nil
}

// Index stores one pick.
func (a *SelectionArchive) Index(ctx context.Context, userID, query string, result models.SearchResult) error {
	doc := SelectionRecord{
		UserID:     userID,
		Query:      query,
		ImageURL:   result.ImageURL,
		Hostname:   result.Hostname,
		Title:      result.Title,
		Priority:   result.Priority,
		Width:      result.Width,
		Height:     result.Height,
		SelectedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewStoreOperationFailedError("encode selection", err)
	}

	client := a.es.Client
	res, err := client.Index(a.index, bytes.NewReader(body), client.Index.WithContext(ctx))
	if err != nil {
		return apperrors.NewStoreOperationFailedError("index selection", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return apperrors.NewStoreOperationFailedError("index selection",
			fmt.Errorf("status %s: %s", res.Status(), strings.TrimSpace(string(msg))))
	}
	return nil
}
