package commands

import (
	"context"
	"os"
	"time"

	"frenchbee-client/lib/configutil"
	"frenchbee-client/lib/datadome"
	"frenchbee-client/lib/httpcache"
	"frenchbee-client/lib/scrapers/frenchbee"
	"frenchbee-client/lib/serviceutil"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	BaseUrl              string `json:"base_url"`
	CachePath            string `json:"cache_path"`
	CacheLifetimeMinutes int    `json:"cache_lifetime_minutes"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	// a pre-solved datadome cookie value, used as-is
	DatadomeToken string `json:"datadome_token"`
	// when set, challenge tokens are solved on demand instead
	HyperApiKey string `json:"hyper_api_key"`
}

// reads frenchbee.json5 from the cwd; a missing config just means
// defaults everywhere.
func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("frenchbee.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func createClient(ctx context.Context, cfg Config) *frenchbee.Client {
	var cache *httpcache.Cache
	if cfg.CachePath != "" {
		lifetime := time.Hour
		if cfg.CacheLifetimeMinutes > 0 {
			lifetime = time.Duration(cfg.CacheLifetimeMinutes) * time.Minute
		}
		db, err := badger.Open(badger.DefaultOptions(cfg.CachePath).WithLogger(nil))
		if err != nil {
			serviceutil.Fatal("failed to open cache", err)
		}
		cache = httpcache.New(db, lifetime)
	}

	var tokens datadome.Provider
	if cfg.HyperApiKey != "" {
		solver, err := datadome.NewHyperSolver(cfg.HyperApiKey)
		if err != nil {
			serviceutil.Fatal("failed to initialize challenge solver", err)
		}
		tokens = solver
	} else if cfg.DatadomeToken != "" {
		tokens = datadome.Static(cfg.DatadomeToken)
	}

	client, err := frenchbee.NewClient(ctx, frenchbee.ClientOptions{
		BaseUrl: cfg.BaseUrl,
		Cache:   cache,
		Tokens:  tokens,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	return client
}
