package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vadimbarashkov/shortlink/internal/adapter/cache"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"golang.org/x/sync/errgroup"

	httpdelivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
)

type Resolver interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

type Remover interface {
	Remove(ctx context.Context, shortCode string) error
}

// Service is the shortener engine assembled over one Storage.
type Service struct {
	Allocator *usecase.Allocator
	Resolver  Resolver
	Remover   Remover
}

// NewService builds the engine. When the cache is enabled resolution and
// removal go through it. m may be nil.
func NewService(cfg *config.Config, storage *Storage, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	const op = "app.NewService"

	gen, err := shortcode.NewGenerator(cfg.ShortCode.Alphabet, cfg.ShortCode.Length)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug("short code generator ready",
		slog.Int("length", gen.Length()),
		slog.Float64("space", gen.Space()),
	)

	allocator := usecase.NewAllocator(
		storage.Repo,
		gen,
		usecase.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
		usecase.WithCustomMaxLength(cfg.ShortCode.CustomMaxLength),
		usecase.WithReservedCodes(httpdelivery.ReservedPaths...),
		usecase.WithMetrics(m),
		usecase.WithLogger(logger),
	)

	svc := &Service{
		Allocator: allocator,
		Resolver:  usecase.NewResolver(storage.Repo, m),
		Remover:   usecase.NewRemover(storage.Repo),
	}

	if cfg.Redis.Cache.Enabled {
		if storage.Redis == nil {
			return nil, fmt.Errorf("%s: %w: cache enabled without a redis connection", op, config.ErrInvalidConfig)
		}

		c := cache.New(storage.Redis, cfg.Redis.Cache.Prefix, cfg.Redis.Cache.TTL, m, logger)
		svc.Resolver = cache.NewResolver(c, svc.Resolver)
		svc.Remover = cache.NewRemover(c, svc.Remover)
	}

	return svc, nil
}

// NewRegistry returns a registry holding the runtime collectors and the
// engine metrics.
func NewRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg, metrics.New(reg)
}

// Run serves the API until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)
	reg, m := NewRegistry()

	storage, err := OpenStorage(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: failed to open storage: %w", op, err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("err", err))
		}
	}()

	svc, err := NewService(cfg, storage, m, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	router := httpdelivery.NewRouter(logger, reg, svc.Allocator, svc.Resolver, svc.Remover)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// Shorten allocates a single mapping against the configured storage.
func Shorten(ctx context.Context, cfg *config.Config, originalURL, customCode string) (*entity.URL, error) {
	const op = "app.Shorten"

	logger := NewLogger(cfg)

	storage, err := OpenStorage(ctx, cfg, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open storage: %w", op, err)
	}
	defer storage.Close()

	svc, err := NewService(cfg, storage, nil, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url, err := svc.Allocator.Allocate(ctx, originalURL, customCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}
