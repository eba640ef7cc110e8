package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 20000, cfg.Index.ApproxThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.Contains(t, cfg.Watch.Extensions, ".md")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
database:
  path: /tmp/test.db
embedding:
  provider: mock
  dimensions: 8
scheduler:
  interval: 1m
  workers: 2
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 8, cfg.Embedding.Dimensions)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections still get defaults
	assert.Equal(t, 800, cfg.Chunking.ProseChunkSize)
	assert.Equal(t, 2*time.Minute, cfg.Index.BuildTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "llama.cpp" },
			wantErr: "unknown embedding provider",
		},
		{
			name:    "negative dimensions",
			mutate:  func(c *Config) { c.Embedding.Dimensions = -1 },
			wantErr: "dimensions must be positive",
		},
		{
			name:    "relative watch directory",
			mutate:  func(c *Config) { c.Watch.Directories = []string{"notes"} },
			wantErr: "must be absolute",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Scheduler.Workers = -3 },
			wantErr: "workers must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
