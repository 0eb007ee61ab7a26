package store

import (
	"context"
	"fmt"

	"github.com/marcelsud/go-live/config"
	"github.com/marcelsud/go-live/directory"
	"github.com/marcelsud/go-live/metrics"
	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/postgres"
	"github.com/marcelsud/go-live/trigger/redis"
)

/* Stores bundles the backends selected by STORE_DRIVER
 * The directory comes from WEBHOOKS_FILE when set, otherwise from the same backend
 */
type Stores struct {
	Audit     trigger.AuditStore
	Directory trigger.Directory
	Counter   metrics.StatusCounter
	Importer  Importer
}

// Importer adds a webhook to the backend directory and returns its id
type Importer interface {
	ImportWebhook(ctx context.Context, t trigger.WebhookTarget) (string, error)
}

type backend interface {
	trigger.AuditStore
	trigger.Directory
	metrics.StatusCounter
	Importer
}

// Open connects to the configured backend
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Stores{
		Audit:     b,
		Directory: b,
		Counter:   b,
		Importer:  b,
	}
	if cfg.WebhooksFile != "" {
		loader := directory.NewLoader()
		if err := loader.Load(cfg.WebhooksFile); err != nil {
			_ = b.Close(ctx)
			return nil, fmt.Errorf("loading webhooks file: %w", err)
		}
		s.Directory = loader
	}
	return s, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.GetStoreDriver() {
	case config.DriverRedis:
		repo, err := redis.NewRepository(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return redisBackend{repo}, nil
	case config.DriverPostgres:
		maxOpen, maxIdle, maxLife := cfg.GetPostgresPool()
		repo, err := postgres.NewRepositoryWithPoolConfig(cfg.GetPostgresURL(), maxOpen, maxIdle, maxLife)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("migrating postgres store: %w", err)
		}
		return postgresBackend{repo}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close closes the backend connection
func (s *Stores) Close(ctx context.Context) error {
	return s.Audit.Close(ctx)
}

type redisBackend struct {
	*redis.Repository
}

func (b redisBackend) ImportWebhook(ctx context.Context, t trigger.WebhookTarget) (string, error) {
	if err := b.PutWebhook(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

type postgresBackend struct {
	*postgres.Repository
}

func (b postgresBackend) ImportWebhook(ctx context.Context, t trigger.WebhookTarget) (string, error) {
	return b.InsertWebhook(ctx, t)
}
