// internal/workers/logo-agent/compose-prompt/handler.go
package composeprompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"logo-workers/internal/models"
)

const (
	TaskType = "compose-logo-prompt"
)

var (
	ErrEmptyMessage = errors.New("INVALID_INPUT")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// SnippetSearcher supplies web snippets used as design-trend evidence.
type SnippetSearcher interface {
	SearchSnippets(ctx context.Context, query string, count int) ([]models.Snippet, error)
}

type Handler struct {
	config   *Config
	searcher SnippetSearcher
	logger   Logger
}

// NewHandler builds the preview composer. searcher may be nil, in which case
// previews rely on the industry table and the user's own keywords.
func NewHandler(config *Config, searcher SnippetSearcher, log Logger) *Handler {
	return &Handler{
		config:   config,
		searcher: searcher,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrEmptyMessage)
	}
	if refinement := strings.TrimSpace(input.Refinement); refinement != "" {
		message = message + ", " + refinement
	}

	req := ParseRequest(message)
	query := DesignQuery(req)
	snippets := h.designSnippets(ctx, query)

	features := Extract(req, snippets)
	prompt := composeWithin(req, features, h.config.MaxPromptLength, h.config.KeepFragments)

	preview := models.GenerationPreview{
		Request:     req,
		Features:    features,
		FinalPrompt: prompt,
		Confidence:  PreviewConfidence(req),
		DesignQuery: query,
	}
	preview.Markdown = FormatPreview(preview)

	h.logger.Info("logo preview composed", map[string]interface{}{
		"domain":       string(req.Domain),
		"brand":        req.BrandName,
		"promptLength": len(prompt),
		"snippets":     len(snippets),
		"confidence":   preview.Confidence,
	})

	return &Output{Preview: preview, SnippetCount: len(snippets)}, nil
}

// designSnippets degrades to no snippets when the search is unavailable.
func (h *Handler) designSnippets(ctx context.Context, query string) []models.Snippet {
	if !h.config.DesignSearch || h.searcher == nil {
		return nil
	}
	snippets, err := h.searcher.SearchSnippets(ctx, query, h.config.SnippetCount)
	if err != nil {
		h.logger.Warn("design reference search failed, continuing without snippets", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil
	}
	return snippets
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to build complete command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, sendErr := cmd.Send(context.Background()); sendErr != nil {
		h.logger.Error("failed to send complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "INTERNAL_ERROR"
	if errors.Is(err, ErrEmptyMessage) {
		errorCode = "INVALID_INPUT"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Preview composes a preview for message, optionally constrained by a
// refinement the user added after rejecting an earlier one.
func (h *Handler) Preview(ctx context.Context, message, refinement string) (models.GenerationPreview, error) {
	out, err := h.execute(ctx, &Input{Message: message, Refinement: refinement})
	if err != nil {
		return models.GenerationPreview{}, err
	}
	return out.Preview, nil
}

// Execute builds a preview for direct callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
