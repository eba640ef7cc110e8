package embedder

import (
	"fmt"
	"strings"

	"github.com/filesense/filesense/internal/config"
)

// New creates an embedder from configuration
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		return NewOllamaProvider(cfg.Endpoint, cfg.Model, cfg.Dimensions, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Dimensions, cache)
	case ProviderMock:
		return NewMockProvider(cfg.Dimensions, cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
