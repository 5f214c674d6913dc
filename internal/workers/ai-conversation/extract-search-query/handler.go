// internal/workers/ai-conversation/extract-search-query/handler.go
package extractsearchquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"logo-workers/internal/common/llm"
)

const (
	TaskType = "extract-search-query"

	unclearSentinel = "UNCLEAR"
	minQueryLength  = 3
)

var (
	ErrEmptyMessage = errors.New("INVALID_INPUT")
	ErrUnclear      = errors.New("QUERY_UNCLEAR")
)

const systemPrompt = `You turn chat messages into image search queries for brand logos.
Use the recent conversation to resolve references: if an earlier turn names a brand and the
current message only describes a version ("the red one", "the performance version"), combine
them into one concrete query such as "BMW M Performance logo".
Reply with the search query only, no quotes and no explanation.
If no brand or subject can be determined, reply with exactly: UNCLEAR`

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

// NewHandler builds the extractor; chat may be nil.
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

	query, source := h.extract(ctx, message, input.History)
	return &Output{Query: query, Found: query != "", Source: source}, nil
}

// Extract returns the search query for message, or false when the caller
// has to ask the user what to look for.
func (h *Handler) Extract(ctx context.Context, message string, history []llm.Message) (string, bool) {
	query, _ := h.extract(ctx, message, history)
	return query, query != ""
}

func (h *Handler) extract(ctx context.Context, message string, history []llm.Message) (string, string) {
	query, err := h.extractWithLLM(ctx, message, history)
	if err == nil {
		h.logQuery(query, SourceAI)
		return query, SourceAI
	}
	if h.llm != nil && !errors.Is(err, ErrUnclear) {
		h.logger.Warn("ai query extraction unavailable, using patterns", map[string]interface{}{
			"error": err.Error(),
		})
	}

	query, source := fallbackExtract(h.config, message, history)
	if query == "" {
		h.logger.Info("no search query found", map[string]interface{}{
			"message": message,
		})
		return "", ""
	}
	h.logQuery(query, source)
	return query, source
}

func (h *Handler) logQuery(query, source string) {
	h.logger.Info("search query extracted", map[string]interface{}{
		"query":  query,
		"source": source,
	})
}

func (h *Handler) extractWithLLM(ctx context.Context, message string, history []llm.Message) (string, error) {
	if h.llm == nil {
		return "", errors.New("no language model configured")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var b strings.Builder
	if recent := llm.LastTurns(history, h.config.HistoryTurns); len(recent) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Current message: %s\n\nSearch query:", message)

	text, err := h.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}, llm.Options{Temperature: h.config.Temperature, MaxTokens: h.config.MaxTokens})
	if err != nil {
		return "", err
	}

	answer := firstLine(llm.StripCodeFences(text))
	answer = strings.Trim(answer, quoteChars+" ")
	if answer == "" || strings.Contains(strings.ToUpper(answer), unclearSentinel) {
		return "", ErrUnclear
	}
	if len(answer) < minQueryLength {
		return "", fmt.Errorf("%w: %q is too short", ErrUnclear, answer)
	}
	return Normalize(answer), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
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

// Execute extracts a query for direct callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
