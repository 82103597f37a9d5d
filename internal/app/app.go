// Package app assembles the adapters and services from settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// Options controls where state lives.
type Options struct {
	// ConfigDir holds config.toml and the prompt files.
	// Defaults to ~/.sercha-rag.
	ConfigDir string

	// DotEnvFiles are loaded before settings are read.
	DotEnvFiles []string
}

// App holds every service the driving adapters need.
type App struct {
	Settings  *domain.AppSettings
	Warnings  []string
	Config    *services.SettingsService
	Sessions  *services.SessionService
	Documents *services.DocumentService
	Index     *services.VectorIndex
	Query     *services.QueryService
	Match     *services.MatchService
	Health    *services.HealthService

	ai      *ai.InitResult
	closers []func() error
}

// New loads settings and builds the application. Missing AI providers or an
// unreachable vector store are reported as warnings, not errors, so that
// settings can still be fixed from the CLI.
func New(ctx context.Context, opts Options) (*App, error) {
	if err := file.LoadDotEnv(opts.DotEnvFiles...); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(0))

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	resolvePaths(settings, configDir)

	a := &App{Settings: settings, Config: settingsService}
	if err := a.build(ctx, configDir); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, configDir string) error {
	s := a.Settings

	a.ai = ai.Init(ctx, s)
	a.Warnings = append(a.Warnings, a.ai.Warnings...)

	db, err := sqlite.NewStore(s.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	logger.Debug("Database: %s", db.Path())

	conversations, err := a.conversationStore(db)
	if err != nil {
		return err
	}

	vectors, err := a.vectorStore(db)
	if err != nil {
		return err
	}

	blobs, err := file.NewBlobStore(s.Storage.UploadDir)
	if err != nil {
		return err
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return err
	}

	segmenter, err := postprocessors.Defaults().Build("chunker", map[string]any{
		"chunk_size": s.Chunking.ChunkSize,
		"overlap":    s.Chunking.Overlap,
	})
	if err != nil {
		return fmt.Errorf("%w: chunking: %w", domain.ErrInvalidInput, err)
	}

	a.Index = services.NewVectorIndex(vectors, a.ai.EmbeddingService, s.VectorStore.Collection,
		services.WithDimensions(s.VectorStore.Dimensions),
		services.WithEmbedBatchSize(s.Embedding.BatchSize),
	)
	if err := a.Index.EnsureCollection(ctx); err != nil {
		logger.Warn("vector collection not ready: %v", err)
		a.Warnings = append(a.Warnings, err.Error())
	}

	a.Sessions = services.NewSessionService(conversations)
	a.Documents = services.NewDocumentService(db.DocumentStore(), blobs, normalisers.Defaults(), segmenter, a.Index)
	a.Query = services.NewQueryService(a.Sessions, a.Index, a.ai.LLMService,
		services.WithPromptStore(prompts),
		services.WithHistoryLimit(s.Retrieval.HistoryLimit),
	)
	a.Match = services.NewMatchService(a.Documents, nil)
	a.Health = services.NewHealthService(a.ai.EmbeddingService, a.ai.LLMService, a.Index)
	return nil
}

func (a *App) conversationStore(db *sqlite.Store) (driven.ConversationStore, error) {
	switch a.Settings.Sessions {
	case domain.SessionBackendSQLite:
		return db.ConversationStore(), nil
	case domain.SessionBackendBolt:
		store, err := bolt.Open(a.Settings.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case domain.SessionBackendMemory, "":
		return memory.NewConversationStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", domain.ErrInvalidInput, a.Settings.Sessions)
	}
}

func (a *App) vectorStore(db *sqlite.Store) (driven.VectorStore, error) {
	vs := a.Settings.VectorStore
	switch vs.Backend {
	case domain.VectorBackendQdrant:
		store := qdrant.NewVectorStore(qdrant.Config{URL: vs.URL, APIKey: vs.APIKey})
		a.closers = append(a.closers, store.Close)
		return store, nil
	case domain.VectorBackendSQLite, "":
		return db.VectorStore(), nil
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, vs.Backend)
	}
}

// Close releases every store and AI client, newest first.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resolvePaths fills empty storage paths with directories under configDir.
func resolvePaths(s *domain.AppSettings, configDir string) {
	if s.Storage.DataDir == "" {
		s.Storage.DataDir = filepath.Join(configDir, "data")
	}
	if s.Storage.UploadDir == "" {
		s.Storage.UploadDir = filepath.Join(configDir, "uploads")
	}
}
