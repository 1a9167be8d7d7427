package cli

import (
	"context"

	"github.com/rshade/pubscope/internal/cache"
	"github.com/rshade/pubscope/internal/config"
	"github.com/rshade/pubscope/internal/gateway"
	"github.com/rshade/pubscope/internal/logging"
)

// newClient builds an API client from cfg. baseURL overrides api.base_url when set.
// A cache that cannot be opened is logged and skipped.
func newClient(ctx context.Context, cfg *config.Config, baseURL string) (*gateway.Client, error) {
	if baseURL == "" {
		baseURL = cfg.API.BaseURL
	}

	opts := []gateway.ClientOption{
		gateway.WithTimeout(cfg.API.Timeout.Std()),
		gateway.WithRateLimit(cfg.API.RateLimit),
		gateway.WithUserAgent(cfg.API.UserAgent),
		gateway.WithLogger(logging.ComponentLogger(*logging.FromContext(ctx), "gateway")),
	}

	if cfg.Cache.Enabled {
		store, err := openCache(cfg)
		if err != nil {
			logger.Warn().Ctx(ctx).Err(err).Msg("vocabulary cache unavailable, fetching from the API")
		} else {
			opts = append(opts, gateway.WithVocabularyCache(store))
		}
	}

	return gateway.NewClient(baseURL, opts...)
}

// openCache opens the configured store and drops entries that have expired.
func openCache(cfg *config.Config) (*cache.FileStore, error) {
	dir, err := cfg.CacheDirectory()
	if err != nil {
		return nil, err
	}
	store, err := cache.NewFileStore(dir, cfg.Cache.Enabled, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, err
	}
	if store.Enabled() {
		if cleanErr := store.CleanupExpired(); cleanErr != nil {
			logger.Debug().Err(cleanErr).Str("dir", dir).Msg("expired cache cleanup failed")
		}
	}
	return store, nil
}
