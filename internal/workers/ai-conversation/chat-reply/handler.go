// internal/workers/ai-conversation/chat-reply/handler.go
package chatreply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/llm"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
)

const (
	TaskType = "chat-reply"
)

var (
	ErrUnknownMode = errors.New("unknown mode")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	llm          llm.ChatLLM
	errorHandler *apperrors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, chat llm.ChatLLM, log Logger) *Handler {
	scoped := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		llm:          chat,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(context.Background(), &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewInvalidInputError("message is required")
	}

	switch input.Mode {
	case "", ModeReply:
		reply, err := h.Reply(ctx, message, input.History)
		if err != nil {
			return nil, err
		}
		return &Output{Reply: *reply, IsImageRequest: reply.IsImageRequest()}, nil
	case ModeEnhance:
		return &Output{Reply: Reply{Text: h.EnhancePrompt(ctx, message)}}, nil
	case ModeAcknowledge:
		return &Output{Reply: Reply{Text: h.Acknowledge(ctx, message)}}, nil
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("%v: mode %q", ErrUnknownMode, input.Mode))
	}
}

// Reply runs the general chat completion over the recent history. An action
// marker embedded in the answer is split out of the text.
func (h *Handler) Reply(ctx context.Context, message string, history []llm.Message) (*Reply, error) {
	if h.llm == nil {
		return nil, apperrors.NewLLMAuthFailedError("none", "no language model configured")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	messages := make([]llm.Message, 0, h.config.HistoryTurns+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, llm.LastTurns(history, h.config.HistoryTurns)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	text, err := h.llm.Complete(ctx, messages, llm.Options{
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		h.logger.Error("llm request failed", map[string]interface{}{
			"provider": h.llm.Name(),
			"error":    err.Error(),
		})
		return nil, err
	}

	reply := &Reply{Text: text}
	if env, ok := llm.ParseStructuredAction(text); ok && env.Action != "" {
		reply.Action = env.Action
		reply.Prompt = env.Prompt
		reply.Query = env.Query
		reply.Text = env.Remainder
	}

	h.logger.Info("chat reply generated", map[string]interface{}{
		"action":      reply.Action,
		"replyLength": len(reply.Text),
	})
	return reply, nil
}

// EnhancePrompt asks the model for a richer diffusion prompt. The raw prompt
// is returned when the model fails; either way the result fits the prompt
// budget.
func (h *Handler) EnhancePrompt(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if h.llm == nil {
		return composeprompt.FitBudgetN(prompt, h.config.MaxPromptLength)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.EnhanceTimeout)
	defer cancel()

	text, err := h.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: enhanceRequest(prompt)},
	}, llm.Options{Temperature: h.config.Temperature, MaxTokens: h.config.EnhanceMaxTokens})

	enhanced := strings.Trim(strings.TrimSpace(text), `"'`)
	if err != nil || enhanced == "" {
		if err != nil {
			h.logger.Warn("prompt enhancement failed, using raw prompt", map[string]interface{}{
				"error": err.Error(),
			})
		}
		enhanced = prompt
	}
	return composeprompt.FitBudgetN(enhanced, h.config.MaxPromptLength)
}

// Acknowledge produces a short confirmation that generation is starting.
func (h *Handler) Acknowledge(ctx context.Context, message string) string {
	if h.llm == nil {
		return AcknowledgementFallback
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.AcknowledgeTimeout)
	defer cancel()

	text, err := h.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: acknowledgementRequest(message)},
	}, llm.Options{Temperature: h.config.Temperature, MaxTokens: h.config.AcknowledgeMaxTokens})
	if err != nil {
		h.logger.Warn("acknowledgement failed, using default", map[string]interface{}{
			"error": err.Error(),
		})
		return AcknowledgementFallback
	}

	ack := strings.Trim(strings.TrimSpace(text), `"'`)
	if ack == "" {
		return AcknowledgementFallback
	}
	return ack
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

// Execute runs one chat operation for direct callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
