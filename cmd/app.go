package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/ai/gemini"
	"github.com/spigell/jobai/internal/ai/groq"
	"github.com/spigell/jobai/internal/batch"
	"github.com/spigell/jobai/internal/generation"
	"github.com/spigell/jobai/internal/mailer"
	"github.com/spigell/jobai/internal/matching"
	"github.com/spigell/jobai/internal/profile"
	"github.com/spigell/jobai/internal/resumecache"
	"github.com/spigell/jobai/internal/secrets"
	"github.com/spigell/jobai/internal/settings/sqlite"
	"github.com/spigell/jobai/internal/storage/object"
	"github.com/spigell/jobai/internal/storage/object/local"
	"github.com/spigell/jobai/internal/storage/object/minio"
	"github.com/spigell/jobai/internal/vault"
)

const (
	storageDriverLocal = "local"
	storageDriverMinio = "minio"
)

// application holds everything the commands share.
type application struct {
	db         *sqlite.DB
	profiles   *profile.Service
	extractor  *generation.Extractor
	resolver   *resumecache.Resolver
	pipeline   *generation.Pipeline
	sender     *mailer.SMTP
	controller *batch.Controller
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "encryption key",
		Value: config.EncryptionKey,
		File:  config.EncryptionKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set encryption-key-file or JOBAI_ENCRYPTION_KEY_FILE)", err)
	}

	db, err := sqlite.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", config.Database, err)
	}

	if err := sqlite.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}

	objects, err := newObjectStore(ctx, config.Storage, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("building object storage: %w", err)
	}

	providers, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("building ai providers: %w", err)
	}

	store := sqlite.NewStore(db)
	orchestrator := ai.NewOrchestrator(logger)
	cache := resumecache.New(store, logger)
	extractor := generation.NewExtractor(objects, providers, orchestrator, cache, logger)
	resolver := resumecache.NewResolver(extractor, logger)
	pipeline := generation.NewPipeline(providers, orchestrator, logger)
	scorer := matching.NewScorer(providers, orchestrator, logger)
	profiles := profile.New(store, vault.New(key, logger), objects, logger)
	sender := mailer.NewSMTP(logger)

	controller := batch.New(&config.Apply.Config, &batch.Deps{
		Profiles:  profiles,
		Resumes:   resolver,
		Generator: pipeline,
		Scorer:    scorer,
		Sender:    sender,
		Logger:    logger,
	})

	return &application{
		db:         db,
		profiles:   profiles,
		extractor:  extractor,
		resolver:   resolver,
		pipeline:   pipeline,
		sender:     sender,
		controller: controller,
	}, nil
}

func (a *application) Close() error {
	return a.db.Close()
}

func newObjectStore(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (object.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "", storageDriverLocal:
		return local.New(cfg.LocalDir)
	case storageDriverMinio:
		if cfg.Minio == nil {
			return nil, errors.New("storage.minio section is required for the minio driver")
		}

		secretKey, err := secrets.Load(secrets.Source{
			Name:  "minio secret key",
			Value: cfg.Minio.SecretKey,
			File:  cfg.Minio.SecretKeyFile,
		})
		if err != nil {
			return nil, err
		}

		mc := cfg.Minio.Config
		mc.SecretKey = secretKey

		return minio.New(ctx, mc, logger.With(zap.String("storage", storageDriverMinio)))
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// newProviders resolves the provider configuration once. A provider without
// an api key is left out and its capabilities fall back further down the chain.
func newProviders(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*ai.Providers, error) {
	var providers ai.Providers

	if cfg.Gemini != nil {
		apiKey, err := secrets.LoadOptional(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		if apiKey != "" {
			client, err := gemini.New(ctx, apiKey, cfg.Gemini.MaxRetries, logger)
			if err != nil {
				return nil, err
			}
			providers.Text = client
			providers.Vision = client
			providers.Embedder = client
			providers.TextCandidates = cfg.Gemini.TextModels
			providers.VisionCandidates = cfg.Gemini.VisionModels
			providers.EmbeddingCandidates = cfg.Gemini.EmbeddingModels
		}
	}

	if cfg.Groq != nil {
		apiKey, err := secrets.LoadOptional(secrets.Source{
			Name:  "groq api key",
			Value: cfg.Groq.APIKey,
			File:  cfg.Groq.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.groq.api-key-file or GROQ_API_KEY_FILE)", err)
		}

		if apiKey != "" {
			client, err := groq.New(apiKey, cfg.Groq.BaseURL, logger)
			if err != nil {
				return nil, err
			}
			providers.Fast = client
			providers.FastCandidates = cfg.Groq.Models
		}
	}

	if !providers.HasGeneration() {
		logger.Warn("no ai provider configured, using template letters and mock verdicts",
			zap.String("hint", "set GEMINI_API_KEY_FILE or GROQ_API_KEY_FILE"),
		)
	}

	resolved := providers.WithDefaults()
	return &resolved, nil
}
