// Package batch sends applications for a list of leads one after another and
// scores leads against the stored résumé.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/generation"
	"github.com/spigell/jobai/internal/leads"
	"github.com/spigell/jobai/internal/logger"
	"github.com/spigell/jobai/internal/mailer"
	"github.com/spigell/jobai/internal/profile"
	"github.com/spigell/jobai/internal/settings"
	"github.com/spigell/jobai/internal/utils"
)

const (
	DefaultDelay          = 3 * time.Second
	DefaultAttachmentName = "resume.pdf"
	attachmentType        = "application/pdf"
)

type Profiles interface {
	Load(ctx context.Context) (*profile.Profile, error)
	FetchResume(ctx context.Context, p *profile.Profile) ([]byte, error)
}

type ResumeTexts interface {
	ResumeText(ctx context.Context, rec *settings.Record) (string, error)
}

type Generator interface {
	GenerateCombined(ctx context.Context, req generation.Request) (generation.Result, error)
}

type Scorer interface {
	Score(ctx context.Context, resumeText, jobDescription string) (ai.MatchVerdict, error)
}

type Config struct {
	Delay          time.Duration `mapstructure:"delay"`
	AttachmentName string        `mapstructure:"attachment-name"`
	// Concurrency above 1 is not supported yet and is clamped.
	Concurrency int `mapstructure:"concurrency"`
}

type Deps struct {
	Profiles  Profiles
	Resumes   ResumeTexts
	Generator Generator
	Scorer    Scorer
	Sender    mailer.Sender
	Logger    *zap.Logger
}

// Summary counts the outcome of one batch.
type Summary struct {
	Sent      int
	Attempted int
	Failed    int
}

// AnalysisSummary counts the outcome of one analysis pass.
type AnalysisSummary struct {
	Analyzed int
	Skipped  int
	// Failed leads stay unscored and are picked up by the next pass.
	Failed int
}

type Controller struct {
	delay          time.Duration
	attachmentName string
	deps           *Deps
	logger         *zap.Logger
	wait           func(ctx context.Context, d time.Duration) error
}

func New(cfg *Config, deps *Deps) *Controller {
	if cfg == nil {
		cfg = &Config{}
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}

	name := strings.TrimSpace(cfg.AttachmentName)
	if name == "" {
		name = DefaultAttachmentName
	}

	if cfg.Concurrency > 1 {
		log.Warn("only sequential sending is supported, concurrency clamped to 1",
			zap.Int("requested", cfg.Concurrency),
		)
	}

	return &Controller{
		delay:          delay,
		attachmentName: name,
		deps:           deps,
		logger:         log,
		wait:           utils.WaitFor,
	}
}

// RunBatch sends an application to every ready lead with a recruiter email.
// Settings problems abort before any lead changes status; a failure of one
// lead is recorded on it and the batch moves on. A cancelled context stops
// the batch and the partial summary is returned with the context error.
func (c *Controller) RunBatch(ctx context.Context, items []*leads.Lead) (Summary, error) {
	var summary Summary

	p, err := c.deps.Profiles.Load(ctx)
	if err != nil {
		return summary, err
	}
	if err := p.CanSend(); err != nil {
		return summary, err
	}
	if !p.HasResume() {
		return summary, fmt.Errorf("no resume uploaded: %w", apperr.ErrConfiguration)
	}

	attachment, err := c.deps.Profiles.FetchResume(ctx, p)
	if err != nil {
		return summary, fmt.Errorf("fetch resume attachment: %w", err)
	}

	resumeText, err := c.deps.Resumes.ResumeText(ctx, p.Record)
	if err != nil {
		c.logger.Warn("resume text is not available, letters are written without it", zap.Error(err))
		resumeText = ""
	}

	for _, lead := range items {
		if !lead.Dispatchable() {
			continue
		}

		if summary.Attempted > 0 {
			if err := c.wait(ctx, c.delay); err != nil {
				c.logger.Warn("batch interrupted", zap.Error(err), zap.Int("attempted", summary.Attempted))
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Attempted++
		if c.apply(ctx, lead, p, attachment, resumeText) {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	c.logger.Info("batch finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

func (c *Controller) apply(ctx context.Context, lead *leads.Lead, p *profile.Profile, attachment []byte, resumeText string) bool {
	log := logger.WithLead(c.logger, lead.ID, lead.Company)

	lead.SetStatus(leads.StatusApplying, "")

	if !lead.HasPreview() {
		result, err := c.deps.Generator.GenerateCombined(ctx, generation.Request{
			JobDescription: JobText(lead),
			ResumeText:     resumeText,
			ApplicantName:  p.FromName,
		})
		if err != nil {
			log.Warn("generating letter failed", zap.Error(err))
			lead.SetStatus(leads.StatusFailed, err.Error())
			return false
		}
		lead.CoverLetter = result.CoverLetter
		lead.Subject = result.Subject
		log.Debug("letter generated", zap.String(logger.FieldModel, result.Model))
	}

	err := c.deps.Sender.Send(ctx, p.Credentials(), mailer.Message{
		To:       lead.RecruiterEmail,
		Subject:  lead.Subject,
		HTMLBody: mailer.LetterToHTML(lead.CoverLetter),
		Attachments: []mailer.Attachment{{
			Filename:    c.attachmentName,
			ContentType: attachmentType,
			Data:        attachment,
		}},
	})
	if err != nil {
		log.Warn("sending application failed", zap.Error(err))
		lead.SetStatus(leads.StatusFailed, err.Error())
		return false
	}

	lead.SetStatus(leads.StatusSent, "")
	log.Info("application sent", zap.String("to", lead.RecruiterEmail))

	return true
}

// AnalyzeAll scores every lead that has no verdict yet. Scoring problems of
// one lead are logged and the lead stays unscored, degraded verdicts included.
func (c *Controller) AnalyzeAll(ctx context.Context, items []*leads.Lead) (AnalysisSummary, error) {
	var summary AnalysisSummary

	p, err := c.deps.Profiles.Load(ctx)
	if err != nil {
		return summary, err
	}
	if !p.HasResume() {
		return summary, fmt.Errorf("no resume uploaded: %w", apperr.ErrConfiguration)
	}

	resumeText, err := c.deps.Resumes.ResumeText(ctx, p.Record)
	if err != nil {
		return summary, fmt.Errorf("resolve resume text: %w", err)
	}

	for _, lead := range items {
		if lead.Match != nil {
			summary.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		verdict, err := c.deps.Scorer.Score(ctx, resumeText, JobText(lead))
		if cerr := ctx.Err(); cerr != nil {
			return summary, cerr
		}
		if err != nil {
			c.logger.Warn("scoring lead failed", zap.String(logger.FieldLeadID, lead.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		if verdict.Degraded {
			c.logger.Warn("scoring lead degraded, leaving it for the next pass",
				zap.String(logger.FieldLeadID, lead.ID),
				zap.Int("semantic_score", verdict.Score),
			)
			summary.Failed++
			continue
		}

		lead.Match = &verdict
		summary.Analyzed++

		c.logger.Info("lead scored",
			zap.String(logger.FieldLeadID, lead.ID),
			zap.Int("score", verdict.Score),
			zap.Strings("missing_skills", verdict.MissingSkills),
		)
	}

	return summary, nil
}

// JobText is the job description sent to the models for a lead.
func JobText(lead *leads.Lead) string {
	var b strings.Builder
	if lead.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", lead.Title)
	}
	if lead.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	}
	if b.Len() > 0 && lead.Description != "" {
		b.WriteString("\n")
	}
	b.WriteString(lead.Description)

	return strings.TrimSpace(b.String())
}
