package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/hazyhaar/codecapture/submission"
)

// Gemini is a Reviewer backed by the Gemini API.
type Gemini struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini Reviewer. cfg.Endpoint, when set, overrides
// the API base URL.
func NewGemini(ctx context.Context, cfg Config, logger *slog.Logger) (*Gemini, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	cfg.Defaults()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("review: create gemini client: %w", err)
	}
	return &Gemini{cfg: cfg, client: client, logger: logger}, nil
}

// Review sends one GenerateContent request.
func (g *Gemini) Review(ctx context.Context, code string, info submission.Snapshot) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{genai.NewContentFromText(UserPrompt(code, info), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt(), genai.RoleUser),
			Temperature:       genai.Ptr(g.cfg.Temperature),
		})
	if err != nil {
		return "", mapGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	g.logger.Debug("review: gemini response received",
		"model", g.cfg.Model, "duration", time.Since(start))
	return text, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Status: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &APIError{Status: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return &NetworkError{Err: err}
}
