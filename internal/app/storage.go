package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/usecase"

	redisrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/redis"
	pgpkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
	redispkg "github.com/vadimbarashkov/shortlink/pkg/redis"
)

// Storage is the mapping store selected by the configuration together with
// the connections it owns.
type Storage struct {
	Repo usecase.URLRepository

	// Redis is set when the backend or the cache needs a Redis connection.
	Redis *redis.Client

	closers []func() error
}

// OpenStorage connects to the configured backend. Postgres migrations are
// applied before the repository is returned.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	const op = "app.OpenStorage"

	s := &Storage{}

	if cfg.Storage.Backend == config.BackendRedis || cfg.Redis.Cache.Enabled {
		rdb, err := redispkg.New(
			ctx,
			cfg.Redis.Addr,
			redispkg.WithPassword(cfg.Redis.Password),
			redispkg.WithDB(cfg.Redis.DB),
			redispkg.WithPoolSize(cfg.Redis.PoolSize),
			redispkg.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.Redis = rdb
		s.closers = append(s.closers, rdb.Close)
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		s.Repo = memory.NewURLRepository()
	case config.BackendRedis:
		s.Repo = redisrepo.NewURLRepository(s.Redis, cfg.Redis.KeyPrefix)
	case config.BackendPostgres:
		db, err := pgpkg.New(
			ctx,
			cfg.Postgres.DSN(),
			pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			pgpkg.WithLogger(logger),
		)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.closers = append(s.closers, db.Close)

		if err := pgpkg.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN()); err != nil {
			s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.Repo = postgres.NewURLRepository(db)
	default:
		s.Close()
		return nil, fmt.Errorf("%s: %w: unknown storage backend %q", op, config.ErrInvalidConfig, cfg.Storage.Backend)
	}

	logger.Info("storage opened", slog.String("backend", cfg.Storage.Backend))

	return s, nil
}

// Close releases every connection in reverse order of opening.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil

	return errors.Join(errs...)
}
