// Package ai defines the model capabilities used by the pipeline and the
// orchestrator that walks ordered candidate models for each of them.
package ai

import (
	"context"
)

// Capability names a kind of model call.
type Capability string

const (
	CapabilityText      Capability = "text-generation"
	CapabilityVision    Capability = "vision-extraction"
	CapabilityEmbedding Capability = "embedding"
)

// GenerateRequest is a single-prompt completion request.
type GenerateRequest struct {
	Prompt      string
	Temperature float32
}

// Document is a binary file handed to a vision-capable model.
type Document struct {
	Data     []byte
	MIMEType string
}

// TextGenerator completes prompts with a named model.
type TextGenerator interface {
	Provider() string
	Generate(ctx context.Context, model string, req GenerateRequest) (string, error)
}

// VisionExtractor transcribes documents with a named model.
type VisionExtractor interface {
	Provider() string
	ExtractDocument(ctx context.Context, model, instruction string, doc Document) (string, error)
}

// Embedder converts text into a vector with a named model.
type Embedder interface {
	Provider() string
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// MatchVerdict is the fused job-fit judgment for one résumé and job pair.
type MatchVerdict struct {
	Score         int      `json:"score"`
	Reasoning     string   `json:"reasoning"`
	MissingSkills []string `json:"missingSkills"`
	// Degraded is set when the verdict stands in for a failed model call.
	Degraded bool `json:"degraded,omitempty"`
}

// Default candidate lists.
var (
	DefaultTextCandidates      = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash-latest", "gemini-1.5-flash"}
	DefaultVisionCandidates    = DefaultTextCandidates
	DefaultEmbeddingCandidates = []string{"text-embedding-004"}
	DefaultFastCandidates      = []string{"llama-3.3-70b-versatile"}
)

// Providers is the provider configuration resolved once at startup. Nil
// members mean the capability is not configured.
type Providers struct {
	Fast           TextGenerator
	FastCandidates []string

	Text           TextGenerator
	TextCandidates []string

	Vision           VisionExtractor
	VisionCandidates []string

	Embedder            Embedder
	EmbeddingCandidates []string
}

// HasGeneration reports whether any text generation provider is configured.
func (p *Providers) HasGeneration() bool {
	return p != nil && (p.Fast != nil || p.Text != nil)
}

// WithDefaults fills empty candidate lists with the defaults.
func (p Providers) WithDefaults() Providers {
	if len(p.FastCandidates) == 0 {
		p.FastCandidates = DefaultFastCandidates
	}
	if len(p.TextCandidates) == 0 {
		p.TextCandidates = DefaultTextCandidates
	}
	if len(p.VisionCandidates) == 0 {
		p.VisionCandidates = DefaultVisionCandidates
	}
	if len(p.EmbeddingCandidates) == 0 {
		p.EmbeddingCandidates = DefaultEmbeddingCandidates
	}
	return p
}
