package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full FileSense configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Watch     WatchConfig     `yaml:"watch"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig locates the SQLite content store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig selects which parts of the filesystem are indexed.
type WatchConfig struct {
	// Directories are the roots scanned for indexable files.
	Directories []string `yaml:"directories"`
	// Extensions is the allow-list of file extensions (with leading dot).
	Extensions []string `yaml:"extensions"`
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// ChunkingConfig controls how file content is split.
type ChunkingConfig struct {
	CodeChunkSize  int `yaml:"code_chunk_size"`
	ProseChunkSize int `yaml:"prose_chunk_size"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "ollama", "openai", "mock".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig tunes the in-memory vector index lifecycle.
type IndexConfig struct {
	// ApproxThreshold is the vector count above which the index is built
	// clustered instead of flat.
	ApproxThreshold int `yaml:"approx_threshold"`
	// BuildTimeout bounds how long a search waits on an in-flight build.
	BuildTimeout time.Duration `yaml:"build_timeout"`
	// EvictAfter releases the index after this much time without a search.
	// Zero disables eviction.
	EvictAfter time.Duration `yaml:"evict_after"`
}

// SchedulerConfig tunes the background indexing loop and its resource gates.
type SchedulerConfig struct {
	// Interval between cycle evaluations in daemon mode.
	Interval time.Duration `yaml:"interval"`
	// BatchSize caps files processed per cycle.
	BatchSize int `yaml:"batch_size"`
	// Workers bounds concurrent embedding requests.
	Workers int `yaml:"workers"`
	// MinIdle is the minimum user idle time before a cycle may run.
	MinIdle time.Duration `yaml:"min_idle"`
	// MinBatteryPercent blocks cycles below this charge when on battery.
	MinBatteryPercent int `yaml:"min_battery_percent"`
	// MaxMemoryPercent blocks cycles when system memory use exceeds this.
	MaxMemoryPercent float64 `yaml:"max_memory_percent"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// Load reads a YAML config file and applies defaults. A missing path
// returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks constraints defaults cannot repair.
func (c *Config) Validate() error {
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}

	switch c.Embedding.Provider {
	case "ollama", "openai", "mock":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	for _, dir := range c.Watch.Directories {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("watch directory must be absolute: %q", dir)
		}
	}

	if c.Scheduler.Workers <= 0 {
		return fmt.Errorf("scheduler workers must be positive, got %d", c.Scheduler.Workers)
	}

	return nil
}
