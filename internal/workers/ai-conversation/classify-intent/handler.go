// internal/workers/ai-conversation/classify-intent/handler.go
package classifyintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"logo-workers/internal/common/lexicon"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/common/metrics"
	"logo-workers/internal/models"
)

const (
	TaskType = "classify-intent"
)

var (
	ErrEmptyMessage       = errors.New("INVALID_INPUT")
	ErrUnparseableVerdict = errors.New("LLM_MALFORMED_RESPONSE")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	llm    llm.ChatLLM
	logger Logger
}

// NewHandler builds the classifier. chat may be nil, in which case every
// message goes through the pattern scorer.
func NewHandler(config *Config, chat llm.ChatLLM, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    chat,
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

	output, err := h.execute(context.Background(), &input)
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
	return &Output{Classification: h.Classify(ctx, message, input.History)}, nil
}

// Classify never fails: a missing, failing or unparseable model degrades to
// the pattern scorer.
func (h *Handler) Classify(ctx context.Context, message string, history []llm.Message) models.IntentClassification {
	result, err := h.classifyWithLLM(ctx, message, history)
	if err != nil {
		if h.llm != nil {
			h.logger.Warn("ai classification unavailable, using patterns", map[string]interface{}{
				"error": err.Error(),
			})
		}
		result = fallbackClassify(h.config, message, history)
	}

	metrics.IntentClassifications.WithLabelValues(string(result.Intent), result.Source).Inc()
	h.logger.Info("intent classified", map[string]interface{}{
		"intent":     string(result.Intent),
		"confidence": result.Confidence,
		"source":     result.Source,
		"ambiguous":  result.Ambiguous,
	})
	return result
}

func (h *Handler) classifyWithLLM(ctx context.Context, message string, history []llm.Message) (models.IntentClassification, error) {
	if h.llm == nil {
		return models.IntentClassification{}, errors.New("no language model configured")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	text, err := h.llm.Complete(ctx, buildMessages(message, history, h.config.HistoryTurns), llm.Options{
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return models.IntentClassification{}, err
	}

	env, ok := llm.ParseStructuredAction(text)
	if !ok || env.Intent == "" || env.Confidence == nil {
		return models.IntentClassification{}, fmt.Errorf("%w: %q", ErrUnparseableVerdict, truncate(text, 120))
	}
	intent, ok := models.ParseIntent(env.Intent)
	if !ok {
		return models.IntentClassification{}, fmt.Errorf("%w: unknown intent %q", ErrUnparseableVerdict, env.Intent)
	}

	result := models.IntentClassification{
		Intent:     intent,
		Confidence: *env.Confidence,
		Source:     models.SourceAI,
		Reasoning:  env.Reasoning,
	}
	if intent == models.IntentConfirmation {
		result.Polarity = string(lexicon.ReplyPolarity(message))
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
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

// Execute classifies a message for direct callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
