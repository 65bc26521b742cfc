// Package memory provides a process-local URL repository for tests and
// deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type URLRepository struct {
	mu   sync.RWMutex
	urls map[string]entity.URL
	now  func() time.Time
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]entity.URL),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Save stores the mapping unless shortCode is present. The lookup and the
// insert happen under one write lock.
func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	url := entity.URL{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   r.now(),
	}
	r.urls[shortCode] = url

	return &url, nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	url, ok := r.urls[shortCode]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return &url, nil
}

func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.memory.URLRepository.Remove"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}
	delete(r.urls, shortCode)

	return nil
}

// Len returns the number of stored mappings.
func (r *URLRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.urls)
}
