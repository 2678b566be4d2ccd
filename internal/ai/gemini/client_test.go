package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spigell/jobai/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	generate  []fakeResponse
	embed     *genai.EmbedContentResponse
	embedErr  error
	calls     []string
	contents  [][]*genai.Content
	configs   []*genai.GenerateContentConfig
	embedText string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, model)
	f.contents = append(f.contents, contents)
	f.configs = append(f.configs, config)
	if len(f.generate) == 0 {
		return nil, errors.New("unexpected call")
	}
	next := f.generate[0]
	f.generate = f.generate[1:]
	return next.resp, next.err
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.calls = append(f.calls, model)
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.embedText = contents[0].Parts[0].Text
	}
	return f.embed, f.embedErr
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestClient(models *fakeModels, retries int) *Client {
	return &Client{models: models, maxRetries: retries, logger: zap.NewNop()}
}

func noWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func TestClientGenerateRetriesOnTemporaryError(t *testing.T) {
	noWait(t)

	models := &fakeModels{generate: []fakeResponse{
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		{resp: textResponse("retry ok")},
	}}

	out, err := newTestClient(models, 2).Generate(context.Background(), "gemini-2.5-flash", ai.GenerateRequest{Prompt: "hello", Temperature: 0.6})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "retry ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	if cfg := models.configs[0]; cfg == nil || cfg.Temperature == nil || *cfg.Temperature != 0.6 {
		t.Fatalf("expected temperature to be forwarded")
	}
}

func TestClientGenerateMapsNotFound(t *testing.T) {
	noWait(t)

	models := &fakeModels{generate: []fakeResponse{
		{err: genai.APIError{Code: http.StatusNotFound, Message: "models/gemini-1.5-flash is not found", Status: "NOT_FOUND"}},
	}}

	_, err := newTestClient(models, 3).Generate(context.Background(), "gemini-1.5-flash", ai.GenerateRequest{Prompt: "hello"})

	var perr *ai.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.StatusCode != http.StatusNotFound || perr.Model != "gemini-1.5-flash" {
		t.Fatalf("unexpected provider error: %+v", perr)
	}
	if !ai.IsModelNotFound(err) {
		t.Fatalf("expected error to classify as not found")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected no retries for 404, got %d calls", len(models.calls))
	}
}

func TestClientGenerateRejectsEmptyResponse(t *testing.T) {
	models := &fakeModels{generate: []fakeResponse{{resp: textResponse("   ")}}}

	if _, err := newTestClient(models, 1).Generate(context.Background(), "m", ai.GenerateRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestClientExtractDocumentSendsInlineFile(t *testing.T) {
	models := &fakeModels{generate: []fakeResponse{{resp: textResponse("Jane Doe\nGo developer")}}}
	pdf := []byte("%PDF-1.4 fake")

	out, err := newTestClient(models, 1).ExtractDocument(context.Background(), "gemini-2.5-flash", "Transcribe", ai.Document{Data: pdf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Jane Doe\nGo developer" {
		t.Fatalf("unexpected output: %q", out)
	}

	parts := models.contents[0][0].Parts
	if len(parts) != 2 || parts[0].Text != "Transcribe" {
		t.Fatalf("expected instruction followed by file part, got %+v", parts)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "application/pdf" {
		t.Fatalf("expected inline pdf data, got %+v", parts[1])
	}
}

func TestClientEmbedFlattensNewlines(t *testing.T) {
	models := &fakeModels{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1, 0.2}}},
	}}

	vec, err := newTestClient(models, 1).Embed(context.Background(), "text-embedding-004", "line one\nline two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if models.embedText != "line one line two" {
		t.Fatalf("expected newlines to be replaced, got %q", models.embedText)
	}
}
