package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Remove(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

// sequenceGenerator hands out the given codes in order and repeats the last one.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func newSequenceGenerator(codes ...string) *sequenceGenerator {
	return &sequenceGenerator{codes: codes}
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.calls++

	return g.codes[i]
}

func (g *sequenceGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.calls
}
