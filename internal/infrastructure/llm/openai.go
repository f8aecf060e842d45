// Package llm — клиент OpenAI-совместимого Chat Completions API для генерации обоснований.
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

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/pipeline"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

const chatCompletionsPath = "/v1/chat/completions"

// Client реализует pipeline.ReasoningService.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	backoff     jitter.Policy
	httpClient  *http.Client
	logger      logger.Logger
}

// NewClient возвращает nil, если ключ API не задан: обогащение в этом случае выключено.
func NewClient(c *cfg.LLMCfg, logger logger.Logger) *Client {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Client{
		baseURL:     strings.TrimRight(c.BaseURL, "/"),
		apiKey:      c.APIKey,
		model:       c.Model,
		temperature: c.Temperature,
		maxTokens:   c.MaxTokens,
		timeout:     c.Timeout,
		maxRetries:  maxRetries,
		backoff:     jitter.NewPolicy(1*time.Second, 5*time.Second, jitter.DefaultJitter),
		httpClient:  &http.Client{},
		logger:      logger,
	}
}

// WithBackoff подменяет политику повторов.
func (c *Client) WithBackoff(p jitter.Policy) *Client {
	c.backoff = p
	return c
}

// WithHTTPClient подменяет HTTP-клиент.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// statusError — ответ API с неуспешным кодом.
type statusError struct {
	code int
	msg  string
}

func (s *statusError) Error() string {
	return fmt.Sprintf("llm status %d: %s", s.code, s.msg)
}

// retryable: 429 и 5xx повторяем, остальные 4xx не повторяем.
func (s *statusError) retryable() bool {
	return s.code == http.StatusTooManyRequests || s.code >= 500
}

// Reason отправляет запрос с повторами: 1s, 2s, 4s... не больше 5s плюс джиттер.
func (c *Client) Reason(ctx context.Context, prompt pipeline.Prompt) (string, error) {
	const op = "Client.Reason"

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil || attempt == c.maxRetries-1 {
			break
		}

		sleepTime := c.backoff.Delay(attempt)
		c.logger.Debugf("llm request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return "", e.Wrap(op, err)
		}
	}

	return "", e.Wrap(op, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt pipeline.Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode, msg: strings.TrimSpace(string(raw))}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if out.Error != nil {
		return "", errors.New(out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", e.ErrEmptyReasoning
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", e.ErrEmptyReasoning
	}
	return text, nil
}
