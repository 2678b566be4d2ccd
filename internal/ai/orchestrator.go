package ai

import (
	"context"
	"errors"

	"github.com/spigell/jobai/internal/logger"
	"go.uber.org/zap"
)

// Orchestrator walks an ordered list of candidate models and returns the
// first success. Only not-found failures move on to the next candidate.
type Orchestrator struct {
	logger     *zap.Logger
	isNotFound func(error) bool
}

// NewOrchestrator creates an orchestrator that classifies failures with IsModelNotFound.
func NewOrchestrator(log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{logger: log, isNotFound: IsModelNotFound}
}

// Generate runs a completion against the candidates in order.
func (o *Orchestrator) Generate(ctx context.Context, gen TextGenerator, candidates []string, req GenerateRequest) (string, string, error) {
	if gen == nil {
		return "", "", &ExhaustedError{Capability: CapabilityText, NoProvider: true}
	}

	return run(ctx, o, CapabilityText, gen.Provider(), candidates, func(ctx context.Context, model string) (string, error) {
		return gen.Generate(ctx, model, req)
	})
}

// Extract transcribes doc with the first vision candidate that exists.
func (o *Orchestrator) Extract(ctx context.Context, vision VisionExtractor, candidates []string, instruction string, doc Document) (string, string, error) {
	if vision == nil {
		return "", "", &ExhaustedError{Capability: CapabilityVision, NoProvider: true}
	}

	return run(ctx, o, CapabilityVision, vision.Provider(), candidates, func(ctx context.Context, model string) (string, error) {
		return vision.ExtractDocument(ctx, model, instruction, doc)
	})
}

// Embed embeds text with the first embedding candidate that exists.
func (o *Orchestrator) Embed(ctx context.Context, embedder Embedder, candidates []string, text string) ([]float32, string, error) {
	if embedder == nil {
		return nil, "", &ExhaustedError{Capability: CapabilityEmbedding, NoProvider: true}
	}

	return run(ctx, o, CapabilityEmbedding, embedder.Provider(), candidates, func(ctx context.Context, model string) ([]float32, error) {
		return embedder.Embed(ctx, model, text)
	})
}

func run[T any](ctx context.Context, o *Orchestrator, capability Capability, provider string, candidates []string, call func(context.Context, string) (T, error)) (T, string, error) {
	var zero T

	attempted := make([]string, 0, len(candidates))
	var last error

	for _, model := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		log := logger.WithModelCall(o.logger, provider, model, string(capability))
		attempted = append(attempted, model)

		out, err := call(ctx, model)
		if err == nil {
			log.Debug("model call succeeded")
			return out, model, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, model, err
		}

		if !o.isNotFound(err) {
			log.Warn("model call failed", zap.Error(err))
			return zero, model, err
		}

		log.Info("model not available, trying next candidate", zap.Error(err))
		last = err
	}

	return zero, "", &ExhaustedError{Capability: capability, Attempted: attempted, Last: last}
}
