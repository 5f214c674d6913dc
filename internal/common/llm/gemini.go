package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/metrics"
)

const providerGemini = "gemini"

// GeminiClient adapts the Gemini SDK to ChatLLM. System messages become the
// system instruction; earlier turns become chat history.
type GeminiClient struct {
	client     *genai.Client
	model      string
	maxRetries int
}

func NewGeminiClient(ctx context.Context, apiKey, model string, maxRetries int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: cl, model: model, maxRetries: maxRetries}, nil
}

func (g *GeminiClient) Name() string { return providerGemini }

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if len(messages) == 0 {
		return "", apperrors.NewLLMRequestFailedError(providerGemini, errors.New("no messages"))
	}

	m := g.client.GenerativeModel(strings.TrimSpace(g.model))
	m.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	var system []genai.Part
	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case RoleSystem:
			system = append(system, genai.Text(msg.Content))
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}

	cs := m.StartChat()
	cs.History = history
	last := messages[len(messages)-1].Content

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries+1; attempt++ {
		resp, err := cs.SendMessage(ctx, genai.Text(last))
		if err == nil {
			txt := firstText(resp)
			if txt == "" {
				return "", g.record(apperrors.NewLLMMalformedResponseError("gemini: empty response"))
			}
			metrics.LLMRequests.WithLabelValues(providerGemini, "success").Inc()
			return strings.TrimSpace(txt), nil
		}

		lastErr = g.classify(ctx, err)
		if !apperrors.HasCode(lastErr, apperrors.ErrCodeLLMRequestFailed) {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
		case <-ctx.Done():
			return "", g.record(apperrors.NewLLMTimeoutError(providerGemini))
		}
	}
	return "", g.record(lastErr)
}

func (g *GeminiClient) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(providerGemini)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.NewLLMAuthFailedError(providerGemini, gerr.Message)
		case http.StatusBadRequest:
			if strings.Contains(strings.ToLower(gerr.Message), "api key") {
				return apperrors.NewLLMAuthFailedError(providerGemini, gerr.Message)
			}
		}
	}
	return apperrors.NewLLMRequestFailedError(providerGemini, err)
}

func (g *GeminiClient) record(err error) error {
	outcome := "error"
	if code, ok := apperrors.CodeOf(err); ok {
		outcome = strings.ToLower(string(code))
	}
	metrics.LLMRequests.WithLabelValues(providerGemini, outcome).Inc()
	return err
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
