package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/metrics"
)

const providerMistral = "mistral"

// MistralConfig configures the OpenAI-compatible chat completions client.
type MistralConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	MaxRetries int
}

// MistralClient talks to a /v1/chat/completions style endpoint.
type MistralClient struct {
	config MistralConfig
	client *http.Client
}

func NewMistralClient(config MistralConfig, client *http.Client) *MistralClient {
	if client == nil {
		client = &http.Client{}
	}
	return &MistralClient{config: config, client: client}
}

func (c *MistralClient) Name() string { return providerMistral }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *MistralClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if c.config.APIKey == "" {
		return "", apperrors.NewLLMAuthFailedError(providerMistral, "api key is empty")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", apperrors.NewLLMRequestFailedError(providerMistral, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", c.record(apperrors.NewLLMTimeoutError(providerMistral))
			}
		}

		text, retry, err := c.send(ctx, body)
		if err == nil {
			metrics.LLMRequests.WithLabelValues(providerMistral, "success").Inc()
			return text, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return "", c.record(lastErr)
}

// send performs one HTTP exchange and reports whether a failure is worth retrying.
func (c *MistralClient) send(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, apperrors.NewLLMRequestFailedError(providerMistral, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return "", false, apperrors.NewLLMTimeoutError(providerMistral)
		}
		return "", true, apperrors.NewLLMRequestFailedError(providerMistral, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", false, apperrors.NewLLMAuthFailedError(providerMistral, fmt.Sprintf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return "", true, apperrors.NewLLMRequestFailedError(providerMistral, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, apperrors.NewLLMRequestFailedError(providerMistral,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if ctx.Err() != nil {
			return "", false, apperrors.NewLLMTimeoutError(providerMistral)
		}
		return "", false, apperrors.NewLLMMalformedResponseError(fmt.Sprintf("decode: %v", err))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, apperrors.NewLLMMalformedResponseError("no choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

func (c *MistralClient) record(err error) error {
	outcome := "error"
	if code, ok := apperrors.CodeOf(err); ok {
		outcome = strings.ToLower(string(code))
	}
	metrics.LLMRequests.WithLabelValues(providerMistral, outcome).Inc()
	return err
}

func isClientTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
