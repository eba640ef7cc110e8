package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/filesense/filesense/internal/chunker"
	"github.com/filesense/filesense/internal/config"
	"github.com/filesense/filesense/internal/embedder"
	"github.com/filesense/filesense/internal/monitor"
	"github.com/filesense/filesense/internal/query"
	"github.com/filesense/filesense/internal/scheduler"
	"github.com/filesense/filesense/internal/storage"
	"github.com/filesense/filesense/internal/vecindex"
)

// app holds the assembled application components.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.SQLiteStorage
	emb    embedder.Embedder
	index  *vecindex.Service
	engine *query.Engine
}

// buildApp loads configuration and wires the search core together.
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	index := vecindex.NewService(store, vecindex.Options{
		ApproxThreshold: cfg.Index.ApproxThreshold,
		BuildTimeout:    cfg.Index.BuildTimeout,
		EvictAfter:      cfg.Index.EvictAfter,
	}, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		emb:    emb,
		index:  index,
		engine: query.NewEngine(store, emb, index, logger),
	}, nil
}

// newScheduler assembles the background indexer. A nil probe disables
// resource gating, used by the one-shot scan command.
func (a *app) newScheduler(probe monitor.Probe) *scheduler.Scheduler {
	chk := chunker.NewWithSizes(a.cfg.Chunking.CodeChunkSize, a.cfg.Chunking.ProseChunkSize)
	return scheduler.New(a.store, chk, a.emb, a.index, probe, scheduler.Config{
		Roots:             a.cfg.Watch.Directories,
		Extensions:        a.cfg.Watch.Extensions,
		MaxFileSize:       a.cfg.Watch.MaxFileSize,
		Interval:          a.cfg.Scheduler.Interval,
		BatchSize:         a.cfg.Scheduler.BatchSize,
		Workers:           a.cfg.Scheduler.Workers,
		MinIdle:           a.cfg.Scheduler.MinIdle,
		MinBatteryPercent: a.cfg.Scheduler.MinBatteryPercent,
		MaxMemoryPercent:  a.cfg.Scheduler.MaxMemoryPercent,
	}, a.logger)
}

func (a *app) Close() {
	a.index.Close()
	_ = a.emb.Close()
	_ = a.store.Close()
	_ = a.logger.Sync()
}

// newLogger builds a zap logger per the logging config. Output goes to
// stderr: stdout is reserved for the MCP protocol and command output.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
