package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"didgate/internal/platform/config"
	"didgate/internal/platform/database"
	"didgate/internal/platform/docstore"
	pgdocs "didgate/internal/platform/docstore/postgres"
	redisdocs "didgate/internal/platform/docstore/redis"
	"didgate/internal/platform/health"
	"didgate/internal/platform/redis"
	audit "didgate/pkg/platform/audit"
	auditmemory "didgate/pkg/platform/audit/store/memory"
	auditpg "didgate/pkg/platform/audit/store/postgres"
	"didgate/pkg/platform/sentinel"
)

// auditStore persists both the event trail and the access log.
type auditStore interface {
	audit.Sink
	audit.AccessLog
}

// stores bundles the persistence chosen by DOCSTORE_BACKEND.
type stores struct {
	docs   docstore.Store
	audit  auditStore
	pool   *database.Pool
	redis  *redis.Client
	checks map[string]health.CheckFunc
}

func (s *stores) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.pool.Close())
	return errors.Join(errs...)
}

// openStores connects the selected backend and wraps it with per-call
// deadlines. The audit trail lives in PostgreSQL whenever DATABASE_URL is
// set, independent of the document backend.
func openStores(ctx context.Context, cfg config.Server, logger *slog.Logger) (*stores, error) {
	s := &stores{checks: map[string]health.CheckFunc{}}

	if cfg.DatabaseURL != "" {
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool.DB()); err != nil {
			pool.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		s.pool = pool
		s.checks["postgres"] = pool.Health
	}

	var backend docstore.Store
	switch cfg.Backend {
	case config.BackendPostgres:
		backend = pgdocs.New(s.pool.DB())
	case config.BackendRedis:
		client, err := redis.New(cfg.Redis)
		if err != nil {
			s.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, err
		}
		s.redis = client
		s.checks["redis"] = client.Health
		if err := prometheus.Register(client.PoolCollector()); err != nil {
			s.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("register redis pool metrics: %w", err)
		}
		backend = redisdocs.New(client.Client)
	default:
		backend = docstore.NewMemory()
	}
	s.docs = docstore.NewBounded(backend, string(cfg.Backend),
		docstore.WithTimeout(cfg.StoreTimeout),
		docstore.WithMetrics(docstore.NewMetrics()),
	)
	s.checks["docstore"] = probe(s.docs)

	if s.pool != nil {
		s.audit = auditpg.New(s.pool.DB())
	} else {
		if cfg.IsProduction() {
			logger.Warn("DATABASE_URL unset; access log is held in memory and lost on restart")
		}
		s.audit = auditmemory.NewInMemoryStore()
	}
	return s, nil
}

// probe reads a key that never exists; only NotFound counts as healthy.
func probe(docs docstore.Store) health.CheckFunc {
	return func(ctx context.Context) error {
		_, err := docs.Get(ctx, "health/probe")
		if err == nil || errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}
}
