// Package redis provides a durable URL repository on top of Redis.
//
// Each mapping is one string key holding the JSON encoded record. Inserts use
// SETNX, so of two writers racing for a code exactly one succeeds.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type urlRecord struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *urlRecord) toEntity() *entity.URL {
	return &entity.URL{
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		CreatedAt:   u.CreatedAt,
	}
}

type URLRepository struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewURLRepository(rdb redis.Cmdable, prefix string) *URLRepository {
	return &URLRepository{
		rdb:    rdb,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *URLRepository) key(shortCode string) string {
	return fmt.Sprintf("%s:%s", r.prefix, shortCode)
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Save"

	rec := urlRecord{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   r.now(),
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode url record: %w", op, err)
	}

	ok, err := r.rdb.SetNX(ctx, r.key(shortCode), string(payload), 0).Result()
	if err != nil {
		if entity.IsCanceled(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: failed to set key: %w", op, entity.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.RetrieveByShortCode"

	payload, err := r.rdb.Get(ctx, r.key(shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}
		if entity.IsCanceled(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w: failed to get key: %w", op, entity.ErrStoreUnavailable, err)
	}

	var rec urlRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w: failed to decode url record: %w", op, entity.ErrStoreUnavailable, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.redis.URLRepository.Remove"

	n, err := r.rdb.Del(ctx, r.key(shortCode)).Result()
	if err != nil {
		if entity.IsCanceled(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: failed to delete key: %w", op, entity.ErrStoreUnavailable, err)
	}

	if n != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}
