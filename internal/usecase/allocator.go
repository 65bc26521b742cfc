package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

const (
	// DefaultMaxAttempts bounds the generate-and-insert loop. At a 50% full
	// code space the chance of ten straight collisions is about 1e-3.
	DefaultMaxAttempts = 10

	// targets longer than 2083 characters are rejected
	targetRules = "required,max=2083,http_url"
)

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithMaxAttempts sets how many generated codes are tried before giving up.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithCustomMaxLength sets the longest caller-supplied code accepted.
func WithCustomMaxLength(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.customMaxLength = n
		}
	}
}

// WithReservedCodes rejects the given codes when a caller asks for them.
func WithReservedCodes(codes ...string) AllocatorOption {
	return func(a *Allocator) {
		for _, c := range codes {
			a.reserved[c] = struct{}{}
		}
	}
}

// WithMetrics records allocation outcomes and collisions in m.
func WithMetrics(m *metrics.Metrics) AllocatorOption {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// WithLogger replaces the default logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) AllocatorOption {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Allocator mints short codes and commits them to the repository.
type Allocator struct {
	repo            urlSaver
	gen             codeGenerator
	validate        *validator.Validate
	maxAttempts     int
	customMaxLength int
	reserved        map[string]struct{}
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// NewAllocator creates an Allocator that stores mappings in repo and draws
// candidate codes from gen.
func NewAllocator(repo urlSaver, gen codeGenerator, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		repo:            repo,
		gen:             gen,
		validate:        validator.New(),
		maxAttempts:     DefaultMaxAttempts,
		customMaxLength: shortcode.DefaultCustomMaxLength,
		reserved:        make(map[string]struct{}),
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate maps originalURL to a short code and returns the committed mapping.
//
// With a non-empty customCode exactly one insert is attempted and a taken code
// fails with entity.ErrShortCodeTaken. Otherwise generated codes are tried until
// one is free or the attempt limit is hit (entity.ErrAllocationExhausted).
// An invalid target fails with entity.ErrInvalidURL before the store is touched.
func (a *Allocator) Allocate(ctx context.Context, originalURL, customCode string) (*entity.URL, error) {
	const op = "usecase.Allocator.Allocate"

	kind := metrics.KindGenerated
	if customCode != "" {
		kind = metrics.KindCustom
	}

	if err := a.validate.Var(originalURL, targetRules); err != nil {
		a.metrics.ObserveAllocation(kind, metrics.OutcomeInvalidURL)
		return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidURL, originalURL)
	}

	if customCode != "" {
		return a.allocateCustom(ctx, originalURL, customCode)
	}

	return a.allocateGenerated(ctx, originalURL)
}

func (a *Allocator) allocateCustom(ctx context.Context, originalURL, customCode string) (*entity.URL, error) {
	const op = "usecase.Allocator.allocateCustom"

	if err := shortcode.ValidateCustom(customCode, a.customMaxLength); err != nil {
		a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeInvalidCode)
		return nil, fmt.Errorf("%s: %w: %v", op, entity.ErrInvalidShortCode, err)
	}
	if _, ok := a.reserved[customCode]; ok {
		a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeInvalidCode)
		return nil, fmt.Errorf("%s: %w: %q is reserved", op, entity.ErrInvalidShortCode, customCode)
	}

	url, err := a.repo.Save(ctx, customCode, originalURL)
	if err != nil {
		if errors.Is(err, entity.ErrShortCodeExists) {
			a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeCodeTaken)
			return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrShortCodeTaken, customCode)
		}
		if errors.Is(err, entity.ErrInvalidShortCode) {
			a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeInvalidCode)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if entity.IsCanceled(err) {
			a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeCanceled)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeStoreError)
		return nil, fmt.Errorf("%s: failed to save url: %w", op, err)
	}

	a.metrics.ObserveAllocation(metrics.KindCustom, metrics.OutcomeSuccess)
	return url, nil
}

func (a *Allocator) allocateGenerated(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.Allocator.allocateGenerated"

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			a.metrics.ObserveAllocation(metrics.KindGenerated, metrics.OutcomeCanceled)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		shortCode := a.gen.Generate()
		if _, ok := a.reserved[shortCode]; ok {
			a.metrics.ObserveCollision()
			continue
		}

		url, err := a.repo.Save(ctx, shortCode, originalURL)
		if err == nil {
			a.metrics.ObserveAllocation(metrics.KindGenerated, metrics.OutcomeSuccess)
			return url, nil
		}

		if entity.IsCanceled(err) {
			a.metrics.ObserveAllocation(metrics.KindGenerated, metrics.OutcomeCanceled)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !errors.Is(err, entity.ErrShortCodeExists) {
			a.metrics.ObserveAllocation(metrics.KindGenerated, metrics.OutcomeStoreError)
			return nil, fmt.Errorf("%s: failed to save url: %w", op, err)
		}

		a.metrics.ObserveCollision()
		a.logger.Debug("collision detected, generating a new short code",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Int("attempt", attempt),
		)
	}

	a.metrics.ObserveAllocation(metrics.KindGenerated, metrics.OutcomeExhausted)
	a.logger.Warn("no free short code found, the code space may be too small or nearly full",
		slog.String("op", op),
		slog.Int("attempts", a.maxAttempts),
	)

	return nil, fmt.Errorf("%s: %w after %d attempts", op, entity.ErrAllocationExhausted, a.maxAttempts)
}
