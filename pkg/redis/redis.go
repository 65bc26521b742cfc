package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultConnectTimeout = 15 * time.Second
	pingInterval          = time.Second
)

type options struct {
	password       string
	db             int
	poolSize       int
	connectTimeout time.Duration
	logger         *slog.Logger
}

type Option func(*options)

func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

func WithDB(db int) Option {
	return func(o *options) {
		o.db = db
	}
}

func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithConnectTimeout bounds how long New keeps retrying the first ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a client for addr and waits until the server answers a ping or
// the connect timeout expires.
func New(ctx context.Context, addr string, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	if addr == "" {
		return nil, fmt.Errorf("%s: missing redis address", op)
	}

	o := options{
		connectTimeout: defaultConnectTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: o.password,
		DB:       o.db,
		PoolSize: o.poolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()

	if err := ping(ctx, rdb, o.logger); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	o.logger.Info("connected to redis", slog.String("addr", addr))

	return rdb, nil
}

func ping(ctx context.Context, rdb *redis.Client, logger *slog.Logger) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return nil
		}

		logger.Warn("unable to establish redis connection, retrying", slog.Any("err", err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
