// Package matching scores how well a résumé fits a job by combining an
// embedding similarity with a model judgment.
package matching

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	maxJobRunes       = 2000
	maxResumeRunes    = 1000
	maxMissingSkills  = 3
	matchTemperature  = 0.1
	defaultMaxLogLen  = 200
	mockReasoning     = "Mock Analysis (No API Key)"
	errorReasoning    = "Error"
	mockScore         = 75
	semanticHintLabel = "Semantic Score"
)

// MockVerdict is returned when no generation provider is configured.
func MockVerdict() ai.MatchVerdict {
	return ai.MatchVerdict{Score: mockScore, Reasoning: mockReasoning, MissingSkills: []string{"Unknown"}}
}

type Scorer struct {
	providers    *ai.Providers
	orchestrator *ai.Orchestrator
	logger       *zap.Logger
	maxLogLen    int
}

func NewScorer(providers *ai.Providers, orchestrator *ai.Orchestrator, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orchestrator == nil {
		orchestrator = ai.NewOrchestrator(logger)
	}
	if providers == nil {
		providers = &ai.Providers{}
	}

	return &Scorer{
		providers:    providers,
		orchestrator: orchestrator,
		logger:       logger,
		maxLogLen:    defaultMaxLogLen,
	}
}

// Score judges the fit of resumeText for jobDescription. Provider problems
// never surface as errors; they degrade the verdict instead.
func (s *Scorer) Score(ctx context.Context, resumeText, jobDescription string) (ai.MatchVerdict, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return ai.MatchVerdict{}, fmt.Errorf("job description is empty: %w", apperr.ErrValidation)
	}

	semantic, hasSemantic := s.semanticScore(ctx, resumeText, jobDescription)

	gen, candidates := s.reasoningProvider()
	if gen == nil {
		s.logger.Info("no generation provider configured, returning mock verdict")
		return MockVerdict(), nil
	}

	prompt := buildPrompt(resumeText, jobDescription, semantic, hasSemantic)
	s.logger.Debug("match request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, model, err := s.orchestrator.Generate(ctx, gen, candidates, ai.GenerateRequest{
		Prompt:      prompt,
		Temperature: matchTemperature,
	})
	if err != nil {
		s.logger.Warn("match scoring failed", zap.Error(err))
		return errorVerdict(semantic), nil
	}

	s.logger.Debug("match response",
		zap.String("ai_model", model),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	parsed, err := parseVerdict(raw)
	if err != nil {
		s.logger.Warn("match response could not be parsed", zap.String("ai_model", model), zap.Error(err))
		return errorVerdict(semantic), nil
	}

	skills := parsed.MissingSkills
	if len(skills) > maxMissingSkills {
		skills = skills[:maxMissingSkills]
	}
	if skills == nil {
		skills = []string{}
	}

	return ai.MatchVerdict{
		Score:         clampScore(parsed.Score),
		Reasoning:     parsed.Reasoning,
		MissingSkills: skills,
	}, nil
}

// reasoningProvider prefers the Gemini text models and falls back to the fast provider.
func (s *Scorer) reasoningProvider() (ai.TextGenerator, []string) {
	switch {
	case s.providers.Text != nil:
		return s.providers.Text, s.providers.TextCandidates
	case s.providers.Fast != nil:
		return s.providers.Fast, s.providers.FastCandidates
	default:
		return nil, nil
	}
}

func (s *Scorer) semanticScore(ctx context.Context, resumeText, jobDescription string) (int, bool) {
	if s.providers.Embedder == nil || strings.TrimSpace(resumeText) == "" {
		return 0, false
	}

	resumeVec, _, err := s.orchestrator.Embed(ctx, s.providers.Embedder, s.providers.EmbeddingCandidates, resumeText)
	if err != nil {
		s.logger.Warn("embedding resume failed, skipping semantic score", zap.Error(err))
		return 0, false
	}

	jobVec, _, err := s.orchestrator.Embed(ctx, s.providers.Embedder, s.providers.EmbeddingCandidates, jobDescription)
	if err != nil {
		s.logger.Warn("embedding job description failed, skipping semantic score", zap.Error(err))
		return 0, false
	}

	sim, ok := CosineSimilarity(resumeVec, jobVec)
	if !ok {
		s.logger.Warn("embeddings are not comparable, skipping semantic score",
			zap.Int("resume_dims", len(resumeVec)),
			zap.Int("job_dims", len(jobVec)),
		)
		return 0, false
	}

	score := clampScore(sim * 100)
	s.logger.Debug("semantic score computed", zap.Int("semantic_score", score))

	return score, true
}

// CosineSimilarity returns dot(a,b)/(|a||b|). It reports false for empty,
// zero or mismatched vectors.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	rounded := int(math.Round(v))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func errorVerdict(semantic int) ai.MatchVerdict {
	return ai.MatchVerdict{Score: semantic, Reasoning: errorReasoning, MissingSkills: []string{}, Degraded: true}
}

func buildPrompt(resumeText, jobDescription string, semantic int, hasSemantic bool) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job Description:\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME}}\n{{SEMANTIC_HINT}}\nJSON Response:"
	}

	hint := ""
	if hasSemantic {
		hint = fmt.Sprintf("\n%s: %d/100 (embedding similarity). Weigh the %s lightly; it only measures vocabulary overlap.\n",
			semanticHintLabel, semantic, semanticHintLabel)
	}

	prompt := strings.ReplaceAll(template, "{{JOB_DESCRIPTION}}", utils.ClipRunes(jobDescription, maxJobRunes))
	prompt = strings.ReplaceAll(prompt, "{{RESUME}}", utils.ClipRunes(resumeText, maxResumeRunes))
	prompt = strings.ReplaceAll(prompt, "{{SEMANTIC_HINT}}", hint)
	return prompt
}
