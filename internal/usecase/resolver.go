package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

// Resolver looks up the target of a short code.
type Resolver struct {
	repo    urlRetriever
	metrics *metrics.Metrics
}

// NewResolver creates a Resolver reading from repo. m may be nil.
func NewResolver(repo urlRetriever, m *metrics.Metrics) *Resolver {
	return &Resolver{
		repo:    repo,
		metrics: m,
	}
}

// Resolve returns the target URL of shortCode or entity.ErrURLNotFound.
func (r *Resolver) Resolve(ctx context.Context, shortCode string) (string, error) {
	const op = "usecase.Resolver.Resolve"

	url, err := r.repo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			r.metrics.ObserveResolution(metrics.OutcomeNotFound)
			return "", fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}
		if entity.IsCanceled(err) {
			r.metrics.ObserveResolution(metrics.OutcomeCanceled)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		r.metrics.ObserveResolution(metrics.OutcomeStoreError)
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	r.metrics.ObserveResolution(metrics.OutcomeSuccess)
	return url.OriginalURL, nil
}

// Remover deletes mappings.
type Remover struct {
	repo urlRemover
}

// NewRemover creates a Remover deleting from repo.
func NewRemover(repo urlRemover) *Remover {
	return &Remover{repo: repo}
}

// Remove deletes the mapping of shortCode or returns entity.ErrURLNotFound.
func (r *Remover) Remove(ctx context.Context, shortCode string) error {
	const op = "usecase.Remover.Remove"

	if err := r.repo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to remove url: %w", op, err)
	}

	return nil
}
