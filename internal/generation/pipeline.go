// Package generation writes the cover letter and email subject for a job and
// extracts résumé text from the uploaded document.
package generation

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	// TemplateModel marks results produced without a model call.
	TemplateModel = "template"

	generationTemperature = 0.6
	noResumePlaceholder   = "No resume provided."
	defaultMaxLogLen      = 200
)

// Request is the input of one combined generation.
type Request struct {
	JobDescription string
	ResumeText     string
	ApplicantName  string
}

// Result is the generated letter and subject.
type Result struct {
	CoverLetter string
	Subject     string
	Model       string
}

type Pipeline struct {
	providers    *ai.Providers
	orchestrator *ai.Orchestrator
	logger       *zap.Logger
	now          func() time.Time
}

func NewPipeline(providers *ai.Providers, orchestrator *ai.Orchestrator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orchestrator == nil {
		orchestrator = ai.NewOrchestrator(logger)
	}
	if providers == nil {
		providers = &ai.Providers{}
	}

	return &Pipeline{providers: providers, orchestrator: orchestrator, logger: logger, now: time.Now}
}

// GenerateCombined produces subject and letter in one model call. Provider
// failures fall back to the date-stamped subject and the template letter;
// only invalid input is returned as an error.
func (p *Pipeline) GenerateCombined(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.JobDescription) == "" {
		return Result{}, fmt.Errorf("job description is empty: %w", apperr.ErrValidation)
	}

	gen, candidates := p.provider()
	if gen == nil {
		p.logger.Info("no generation provider configured, using template letter")
		return p.fallback(req), nil
	}

	prompt := buildPrompt(req)

	text, model, err := p.orchestrator.Generate(ctx, gen, candidates, ai.GenerateRequest{
		Prompt:      prompt,
		Temperature: generationTemperature,
	})
	if err != nil {
		p.logger.Warn("combined generation failed, using template letter", zap.Error(err))
		return p.fallback(req), nil
	}

	parsed := ParseCombined(text)
	result := Result{CoverLetter: parsed.Letter, Subject: parsed.Subject, Model: model}

	if result.Subject == "" {
		p.logger.Debug("reply has no subject, using default", zap.String("ai_model", model))
		result.Subject = DefaultSubject(p.now())
	}
	if result.CoverLetter == "" {
		p.logger.Debug("reply has no letter, using template", zap.String("ai_model", model),
			zap.String("response_preview", utils.TruncateForLog(text, defaultMaxLogLen)))
		result.CoverLetter = TemplateLetter(req.JobDescription, req.ResumeText, req.ApplicantName)
	}

	p.logger.Info("combined generation succeeded",
		zap.String("ai_model", model),
		zap.String("subject", result.Subject),
		zap.Int("letter_length", utf8.RuneCountInString(result.CoverLetter)),
	)

	return result, nil
}

// provider picks the fast provider first, then the Gemini text candidates.
func (p *Pipeline) provider() (ai.TextGenerator, []string) {
	switch {
	case p.providers.Fast != nil:
		return p.providers.Fast, p.providers.FastCandidates
	case p.providers.Text != nil:
		return p.providers.Text, p.providers.TextCandidates
	default:
		return nil, nil
	}
}

func (p *Pipeline) fallback(req Request) Result {
	return Result{
		CoverLetter: TemplateLetter(req.JobDescription, req.ResumeText, req.ApplicantName),
		Subject:     DefaultSubject(p.now()),
		Model:       TemplateModel,
	}
}

func buildPrompt(req Request) string {
	resume := strings.TrimSpace(req.ResumeText)
	if resume == "" {
		resume = noResumePlaceholder
	}

	signature := ""
	if name := strings.TrimSpace(req.ApplicantName); name != "" {
		signature = " signed as " + name
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_DESCRIPTION}}", req.JobDescription)
	prompt = strings.ReplaceAll(prompt, "{{RESUME}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{SIGNATURE}}", signature)
	return prompt
}
