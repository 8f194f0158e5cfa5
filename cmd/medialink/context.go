package main

import (
	"log/slog"

	"medialink/internal/api"
	"medialink/internal/config"
	"medialink/internal/linker"
	"medialink/internal/logging"
	"medialink/internal/metadata/tmdb"
	"medialink/internal/scanner"
	"medialink/internal/store"
	"medialink/internal/task"
)

// commandContext lazily builds the shared dependencies behind each command.
type commandContext struct {
	configFlag *string

	cfg     *config.Config
	logger  *slog.Logger
	st      *store.Store
	scanner *scanner.Scanner
	svc     *api.Service
	orch    *task.Orchestrator
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger = logger
	return cfg, nil
}

// ensureService opens the store and wires the full pipeline. The metadata
// client is optional: commands that never resolve run fine without an API
// key, and resolution reports a configuration error if attempted.
func (c *commandContext) ensureService() (*api.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	c.st = st
	c.scanner = scanner.New(cfg, c.logger)

	var searcher tmdb.Searcher
	if cfg.TMDB.APIKey != "" {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
		if err != nil {
			return nil, err
		}
		searcher = client
	}

	lk := linker.New(cfg, st, c.logger)
	pipeline := task.NewPipeline(cfg, st, c.scanner, searcher, lk, c.logger)
	c.orch = task.NewOrchestrator(pipeline, c.logger)
	c.svc = api.New(cfg, st, c.scanner, searcher, lk, pipeline, c.orch, c.logger)
	return c.svc, nil
}

func (c *commandContext) close() {
	if c.st != nil {
		_ = c.st.Close()
		c.st = nil
	}
}
