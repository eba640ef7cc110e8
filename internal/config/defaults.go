package config

import (
	"os"
	"path/filepath"
	"time"
)

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.Database.Path = filepath.Join(home, ".filesense", "filesense.db")
	}

	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = []string{
			".txt", ".md", ".rst",
			".go", ".py", ".js", ".ts", ".c", ".h", ".cpp", ".rs", ".java",
			".sh", ".rb", ".swift", ".kt",
			".json", ".yaml", ".yml", ".toml", ".sql",
		}
	}
	if c.Watch.MaxFileSize == 0 {
		c.Watch.MaxFileSize = 100 * 1024 * 1024
	}

	if c.Chunking.CodeChunkSize == 0 {
		c.Chunking.CodeChunkSize = 350
	}
	if c.Chunking.ProseChunkSize == 0 {
		c.Chunking.ProseChunkSize = 800
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-minilm"
	}
	if c.Embedding.Endpoint == "" && c.Embedding.Provider == "ollama" {
		c.Embedding.Endpoint = "http://localhost:11434"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.CacheSize == 0 {
		c.Embedding.CacheSize = 10000
	}

	if c.Index.ApproxThreshold == 0 {
		c.Index.ApproxThreshold = 20000
	}
	if c.Index.BuildTimeout == 0 {
		c.Index.BuildTimeout = 2 * time.Minute
	}
	if c.Index.EvictAfter == 0 {
		c.Index.EvictAfter = 30 * time.Minute
	}

	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = 15 * time.Minute
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 200
	}
	if c.Scheduler.Workers == 0 {
		c.Scheduler.Workers = 4
	}
	if c.Scheduler.MinIdle == 0 {
		c.Scheduler.MinIdle = 5 * time.Minute
	}
	if c.Scheduler.MinBatteryPercent == 0 {
		c.Scheduler.MinBatteryPercent = 30
	}
	if c.Scheduler.MaxMemoryPercent == 0 {
		c.Scheduler.MaxMemoryPercent = 85
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
