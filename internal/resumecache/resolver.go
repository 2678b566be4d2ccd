package resumecache

import (
	"context"
	"fmt"

	"github.com/spigell/jobai/internal/settings"
	"go.uber.org/zap"
)

// Extractor produces résumé text for an object reference.
type Extractor interface {
	ExtractResumeText(ctx context.Context, objectRef string) (string, error)
}

// Resolver serves résumé text from the cache and falls back to extraction.
type Resolver struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewResolver creates a resolver. The extractor is expected to write the cache on success.
func NewResolver(extractor Extractor, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{extractor: extractor, logger: logger}
}

// ResumeText returns the résumé text for rec.
func (r *Resolver) ResumeText(ctx context.Context, rec *settings.Record) (string, error) {
	if text, ok := Read(rec); ok {
		r.logger.Debug("resume text served from cache")
		return text, nil
	}

	if !rec.HasResume() {
		return "", fmt.Errorf("no resume uploaded")
	}

	r.logger.Info("extracting resume text", zap.String("resume_ref", rec.ResumeObjectRef))

	return r.extractor.ExtractResumeText(ctx, rec.ResumeObjectRef)
}
