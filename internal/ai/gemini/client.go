// Package gemini implements the text, vision and embedding capabilities on
// the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/logger"
	"github.com/spigell/jobai/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName      = "gemini"
	defaultMaxRetries = 2
	retryDelay        = 2 * time.Second
)

var wait = utils.WaitFor

var (
	_ ai.TextGenerator   = (*Client)(nil)
	_ ai.VisionExtractor = (*Client)(nil)
	_ ai.Embedder        = (*Client)(nil)
)

// modelsAPI is the part of genai.Models used by the client.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client calls Gemini models by id. The model is chosen per call so the
// orchestrator can walk its candidate list.
type Client struct {
	models     modelsAPI
	maxRetries int
	logger     *zap.Logger
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, apiKey string, maxRetries int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		models:     client.Models,
		maxRetries: maxRetries,
		logger:     logger.WithFields(log, zap.String(logger.FieldProvider, providerName)),
	}, nil
}

func (c *Client) Provider() string {
	return providerName
}

// Generate sends a single text prompt and returns the joined text parts.
func (c *Client) Generate(ctx context.Context, model string, req ai.GenerateRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}

	return c.generate(ctx, model, genai.Text(prompt), cfg)
}

// ExtractDocument sends the instruction together with the document bytes.
func (c *Client) ExtractDocument(ctx context.Context, model, instruction string, doc ai.Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", errors.New("document is empty")
	}

	mimeType := doc.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(doc.Data, mimeType),
		}, genai.RoleUser),
	}

	return c.generate(ctx, model, contents, nil)
}

// Embed returns the embedding of text. Newlines are flattened first.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, errors.New("text to embed must not be empty")
	}

	var values []float32
	err := c.withRetry(ctx, model, func() error {
		resp, err := c.models.EmbedContent(ctx, model, genai.Text(text), nil)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
			return errors.New("gemini api returned empty embedding")
		}
		values = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, toProviderError(model, err)
	}

	return values, nil
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	var output string
	err := c.withRetry(ctx, model, func() error {
		resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return err
		}
		output = joinText(resp)
		if output == "" {
			return errors.New("gemini api returned empty response")
		}
		return nil
	})
	if err != nil {
		return "", toProviderError(model, err)
	}

	return output, nil
}

func (c *Client) withRetry(ctx context.Context, model string, call func() error) error {
	log := c.logger.With(zap.String(logger.FieldModel, model))

	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = call()
		if err == nil || !isTemporary(err) || attempt == c.maxRetries {
			return err
		}

		log.Debug("temporary gemini error, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if werr := wait(ctx, retryDelay*time.Duration(attempt)); werr != nil {
			return werr
		}
	}

	return err
}

func joinText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func apiError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}

	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}

	return genai.APIError{}, false
}

func isTemporary(err error) bool {
	apiErr, ok := apiError(err)
	if !ok {
		return false
	}

	return apiErr.Code >= http.StatusInternalServerError
}

func toProviderError(model string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	perr := &ai.ProviderError{Provider: providerName, Model: model, Err: err}
	if apiErr, ok := apiError(err); ok {
		perr.StatusCode = apiErr.Code
		perr.Message = apiErr.Message
	}

	return perr
}
