// Package groq implements fast text generation on the Groq OpenAI-compatible
// chat completions endpoint.
package groq

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

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/logger"
	"go.uber.org/zap"
)

const (
	providerName   = "groq"
	defaultBaseURL = "https://api.groq.com/openai/v1"
	completionPath = "/chat/completions"
)

var _ ai.TextGenerator = (*Client)(nil)

type Client struct {
	apiKey     string
	BaseURL    string
	HTTPClient *http.Client
	logger     *zap.Logger
}

func New(apiKey, baseURL string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("groq api key is required")
	}

	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.WithFields(log, zap.String(logger.FieldProvider, providerName)),
	}, nil
}

func (c *Client) Provider() string {
	return providerName
}

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
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, model string, req ai.GenerateRequest) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal groq request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+completionPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("make request", zap.String(logger.FieldModel, model), zap.String("url", httpReq.URL.String()))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ai.ProviderError{Provider: providerName, Model: model, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ai.ProviderError{Provider: providerName, Model: model, StatusCode: resp.StatusCode, Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ai.ProviderError{
			Provider:   providerName,
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("parse response: %v", err),
		}
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		perr := &ai.ProviderError{Provider: providerName, Model: model, StatusCode: resp.StatusCode, Message: resp.Status}
		if parsed.Error != nil {
			perr.Message = parsed.Error.Message
		}
		return "", perr
	}

	if len(parsed.Choices) == 0 {
		return "", &ai.ProviderError{Provider: providerName, Model: model, StatusCode: resp.StatusCode, Message: "response missing choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &ai.ProviderError{Provider: providerName, Model: model, StatusCode: resp.StatusCode, Message: "empty completion"}
	}

	return content, nil
}
