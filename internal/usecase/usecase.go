// Package usecase holds the short code allocation and resolution engine.
//
// Allocator, Resolver and Remover keep no state of their own beyond their
// collaborators and are safe for any number of concurrent callers: every
// concurrency guarantee comes from the repository's atomic Save.
package usecase

import (
	"context"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// URLRepository is the mapping store the engine runs on.
type URLRepository interface {
	// Save inserts the mapping only if shortCode is not stored yet.
	// It returns entity.ErrShortCodeExists when the code is taken and never
	// overwrites an existing mapping.
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)

	// RetrieveByShortCode returns the mapping or entity.ErrURLNotFound.
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)

	// Remove deletes the mapping or returns entity.ErrURLNotFound.
	Remove(ctx context.Context, shortCode string) error
}

type urlSaver interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
}

type urlRetriever interface {
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
}

type urlRemover interface {
	Remove(ctx context.Context, shortCode string) error
}

type codeGenerator interface {
	Generate() string
}
