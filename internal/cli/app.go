package cli

import (
	"context"
	"fmt"

	"fintrack/internal/assistant"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/rewrite/gemini"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

// App is the assembled chat core over the configured backend.
type App struct {
	Backend   *backend.Result
	Records   *services.RecordService
	Sessions  *session.MemoryStore
	Assistant *assistant.Assistant
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}

// BuildApp wires the backend, the record service and the assistant. An LLM
// rewriter is attached when a key is configured; failing to create it only
// disables the rewrite.
func BuildApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	var vocab *assistant.Vocabulary
	if cfg.VocabularyFile != "" {
		v, err := assistant.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vocab = &v
		logger.InfoContext(ctx, "Loaded vocabulary", "path", cfg.VocabularyFile,
			"categories", len(v.Categories), "sources", len(v.Sources))
	}

	var rewriter assistant.Rewriter
	if cfg.RewriteEnabled() {
		r, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.WarnContext(ctx, "LLM rewrite disabled", log.FieldError, err)
		} else {
			rewriter = r
		}
	}

	var publisher services.EventPublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}
	records := services.NewRecordService(res.Store, publisher, logger)
	sessions := session.NewMemoryStore()

	a := assistant.New(assistant.Deps{
		Ledger:     res.Store,
		Records:    records,
		Pending:    sessions,
		History:    sessions,
		Composer:   assistant.NewComposer(rewriter, cfg.RewriteTimeout, logger),
		Vocabulary: vocab,
		Logger:     logger,
	})

	return &App{Backend: res, Records: records, Sessions: sessions, Assistant: a}, nil
}
