package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/codecapture/submission"
)

// maxResponseBody caps what is read from the completion endpoint (4 MiB).
const maxResponseBody int64 = 4 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAI is a Reviewer for OpenAI-compatible chat completion endpoints.
type OpenAI struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-compatible Reviewer.
func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Review sends one chat completion request.
func (c *OpenAI) Review(ctx context.Context, code string, info submission.Snapshot) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(code, info)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("review: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("review: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("review: sending request",
		"endpoint", c.cfg.Endpoint, "model", c.cfg.Model, "payload_size", len(body))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &NetworkError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("review: endpoint error",
			"status", resp.StatusCode, "duration", time.Since(start))
		var eb errorBody
		if json.Unmarshal(raw, &eb) != nil {
			return "", &NetworkError{Status: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(raw))}
		}
		if eb.Error == nil || eb.Error.Message == "" {
			return "", &APIError{Status: resp.StatusCode, Message: "API request failed"}
		}
		return "", &APIError{Status: resp.StatusCode, Message: eb.Error.Message}
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("review: decode response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("review: response received",
		"duration", time.Since(start),
		"tokens", cr.Usage.TotalTokens,
		"finish_reason", cr.Choices[0].FinishReason)
	return cr.Choices[0].Message.Content, nil
}
