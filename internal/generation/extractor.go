package generation

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/extract"
	"github.com/spigell/jobai/internal/resumecache"
	"github.com/spigell/jobai/internal/storage/object"
	"go.uber.org/zap"
)

// VisionInstruction asks the model for a verbatim transcription.
const VisionInstruction = "Transcribe this resume exactly. Output the full plain text content. Do not summarize."

// cacheWriter stores freshly extracted text.
type cacheWriter interface {
	Write(ctx context.Context, text string)
}

// Extractor turns a stored résumé document into plain text.
type Extractor struct {
	store        object.Store
	providers    *ai.Providers
	orchestrator *ai.Orchestrator
	cache        cacheWriter
	localParse   func(ctx context.Context, data []byte) (string, error)
	logger       *zap.Logger
}

func NewExtractor(store object.Store, providers *ai.Providers, orchestrator *ai.Orchestrator, cache cacheWriter, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orchestrator == nil {
		orchestrator = ai.NewOrchestrator(logger)
	}
	if providers == nil {
		providers = &ai.Providers{}
	}

	return &Extractor{
		store:        store,
		providers:    providers,
		orchestrator: orchestrator,
		cache:        cache,
		localParse:   extract.PDFText,
		logger:       logger,
	}
}

// ExtractResumeText fetches the document and tries the vision model first,
// then the local text-layer parser. Plausible text is written to the cache;
// shorter text is returned for this call only.
func (e *Extractor) ExtractResumeText(ctx context.Context, objectRef string) (string, error) {
	data, err := e.store.Fetch(ctx, objectRef)
	if err != nil {
		return "", fmt.Errorf("fetch resume %s: %w: %w", objectRef, apperr.ErrExtraction, err)
	}

	text := e.viaVision(ctx, data)
	if !resumecache.Plausible(text) {
		text, err = e.localParse(ctx, data)
		if err != nil {
			e.logger.Warn("local pdf parsing failed", zap.Error(err))
			return "", fmt.Errorf("%s: %w: %w", objectRef, apperr.ErrExtraction, err)
		}
		e.logger.Info("resume text extracted by local parser", zap.Int("length", utf8.RuneCountInString(text)))
	}

	if text == "" {
		return "", fmt.Errorf("%s: %w", objectRef, apperr.ErrExtraction)
	}

	if !resumecache.Plausible(text) {
		e.logger.Warn("resume text is too short to cache",
			zap.Int("length", utf8.RuneCountInString(text)),
			zap.Int("minimum", resumecache.MinPlausibleLength),
		)
		return text, nil
	}

	if e.cache != nil {
		e.cache.Write(ctx, text)
	}

	return text, nil
}

func (e *Extractor) viaVision(ctx context.Context, data []byte) string {
	if e.providers.Vision == nil {
		return ""
	}

	text, model, err := e.orchestrator.Extract(ctx, e.providers.Vision, e.providers.VisionCandidates, VisionInstruction, ai.Document{
		Data:     data,
		MIMEType: "application/pdf",
	})
	if err != nil {
		e.logger.Warn("vision extraction failed, falling back to local parser", zap.Error(err))
		return ""
	}

	e.logger.Info("resume text extracted by vision model",
		zap.String("ai_model", model),
		zap.Int("length", utf8.RuneCountInString(text)),
	)

	return text
}
