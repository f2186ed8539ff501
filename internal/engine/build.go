package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/analyzer"
	"github.com/iammorganparry/feel/internal/config"
	"github.com/iammorganparry/feel/internal/emoji"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
	"github.com/iammorganparry/feel/internal/visual"
)

// OpenStore builds the persistence store selected by cfg. The returned
// closer releases the backend.
func OpenStore(cfg *config.Config, log zerolog.Logger) (*storage.Store, func() error, error) {
	codec, err := storage.CodecByName(cfg.Codec)
	if err != nil {
		return nil, nil, err
	}

	var backend storage.Backend
	closer := func() error { return nil }
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		backend = storage.NewSQLiteBackend(db, cfg.QuotaBytes)
		closer = db.Close
	case config.DriverFile:
		fb, err := storage.NewFileBackend(cfg.DataDir, cfg.QuotaBytes)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	case config.DriverMemory:
		backend = storage.NewMemoryBackend(cfg.QuotaBytes)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	return storage.NewStore(backend, codec, log), closer, nil
}

// Build wires every component from cfg.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Engine, func() error, error) {
	store, closer, err := OpenStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	gen, err := analyzer.NewGenerator(ctx, cfg)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("create generator: %w", err)
	}

	opts := []Option{WithDefaults(cfg.DefaultLanguage, cfg.DefaultModel)}
	if cfg.Provider == config.ProviderOpenAI {
		opts = append(opts, WithModelValidator(func(m string) bool { return m != "" }))
	}

	e := New(
		analyzer.New(gen, log),
		emoji.NewCache(emoji.NewHubClient(cfg.EmojiAPIURL, cfg.HTTPTimeout), log),
		visual.NewStateMachine(log, nil),
		store,
		log,
		opts...,
	)
	return e, closer, nil
}

// Models lists the selectable models for the configured provider.
func Models(cfg *config.Config) []models.ModelInfo {
	if cfg.Provider == config.ProviderOpenAI {
		return []models.ModelInfo{{ID: cfg.DefaultModel, Name: cfg.DefaultModel, Description: "Configured OpenAI model"}}
	}
	return models.SupportedModels
}
