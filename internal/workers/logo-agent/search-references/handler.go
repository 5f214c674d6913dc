// internal/workers/logo-agent/search-references/handler.go
package searchreferences

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/models"
)

const (
	TaskType = "search-references"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	client       *Client
	errorHandler *apperrors.ErrorHandler
	logger       Logger
}

// NewHandler wraps client as a Zeebe worker. A nil client builds one from
// config; callers that also search directly should pass their shared client
// so the call spacing covers both paths.
func NewHandler(config *Config, client *Client, log Logger) *Handler {
	scoped := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	if client == nil {
		client = NewClient(config, scoped)
	}
	return &Handler{
		config:       config,
		client:       client,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = h.config.MaxResults
	}

	if input.Mode == ModeSnippets {
		snippets, err := h.client.SearchSnippets(ctx, input.Query, maxResults)
		if err != nil {
			return nil, err
		}
		return &Output{Snippets: snippets, Total: len(snippets)}, nil
	}

	results, err := h.client.Search(ctx, input.Query, maxResults)
	if err != nil {
		return nil, err
	}

	h.logger.Info("reference search completed", map[string]interface{}{
		"query":       input.Query,
		"resultCount": len(results),
	})

	return &Output{
		Selection: models.SearchSelection{Query: input.Query, Results: results},
		Total:     len(results),
	}, nil
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

// Client exposes the throttled client for direct searches and fetches.
func (h *Handler) Client() *Client {
	return h.client
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
