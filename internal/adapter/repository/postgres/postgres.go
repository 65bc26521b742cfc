// Package postgres provides the durable URL repository on top of PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	uniqueViolationErrCode = "23505"
	stringTooLongErrCode   = "22001"
)

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == code
}

type urlDB struct {
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		CreatedAt:   u.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Save relies on the primary key of urls.short_code: a concurrent insert of
// the same code fails with a unique violation instead of overwriting.
func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url) VALUES ($1, $2) RETURNING short_code, original_url, created_at`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL); err != nil {
		if hasSQLState(err, uniqueViolationErrCode) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}
		if hasSQLState(err, stringTooLongErrCode) {
			return nil, fmt.Errorf("%s: %w: too long for urls.short_code", op, entity.ErrInvalidShortCode)
		}
		if entity.IsCanceled(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w: failed to insert into urls table: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT short_code, original_url, created_at FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}
		if entity.IsCanceled(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w: failed to get row from urls table: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.URLRepository.Remove"
	const query = `DELETE FROM urls WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		if entity.IsCanceled(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: failed to delete from urls table: %w", op, entity.ErrStoreUnavailable, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w: failed to get number of affected rows: %w", op, entity.ErrStoreUnavailable, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}
