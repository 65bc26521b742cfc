package shortcode

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		length   int
		wantErr  error
	}{
		{
			name:     "default",
			alphabet: DefaultAlphabet,
			length:   DefaultLength,
		},
		{
			name:     "alphabet too short",
			alphabet: "a",
			length:   5,
			wantErr:  ErrInvalidAlphabet,
		},
		{
			name:     "duplicate characters",
			alphabet: "abca",
			length:   5,
			wantErr:  ErrInvalidAlphabet,
		},
		{
			name:     "non-ascii characters",
			alphabet: "abcé",
			length:   5,
			wantErr:  ErrInvalidAlphabet,
		},
		{
			name:     "zero length",
			alphabet: DefaultAlphabet,
			length:   0,
			wantErr:  ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.alphabet, tt.length)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, gen)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, gen)
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	gen, err := NewGenerator(DefaultAlphabet, DefaultLength)
	require.NoError(t, err)

	t.Run("length and alphabet", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := gen.Generate()

			assert.Len(t, code, DefaultLength)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(DefaultAlphabet, c), "unexpected character %q", c)
			}
		}
	})

	t.Run("concurrent callers", func(t *testing.T) {
		const workers = 8
		const perWorker = 250

		var (
			mu    sync.Mutex
			wg    sync.WaitGroup
			codes = make(map[string]struct{}, workers*perWorker)
		)

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					code := gen.Generate()
					mu.Lock()
					codes[code] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// 2000 draws from ~9e8 codes; a handful of duplicates would already be suspicious.
		assert.Greater(t, len(codes), workers*perWorker-5)
	})

	t.Run("tiny space", func(t *testing.T) {
		gen, err := NewGenerator("ab", 1)
		require.NoError(t, err)

		assert.Equal(t, float64(2), gen.Space())
		assert.Contains(t, []string{"a", "b"}, gen.Generate())
	})
}

func TestGenerator_Space(t *testing.T) {
	gen, err := NewGenerator(DefaultAlphabet, DefaultLength)
	require.NoError(t, err)

	assert.Equal(t, float64(916132832), gen.Space())
	assert.Equal(t, DefaultLength, gen.Length())
}

func TestValidateCustom(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "alphanumeric", code: "abc123"},
		{name: "dash and underscore", code: "my-link_2"},
		{name: "single character", code: "x"},
		{name: "max length", code: strings.Repeat("a", DefaultCustomMaxLength)},
		{name: "empty", code: "", wantErr: true},
		{name: "too long", code: strings.Repeat("a", DefaultCustomMaxLength+1), wantErr: true},
		{name: "slash", code: "a/b", wantErr: true},
		{name: "space", code: "a b", wantErr: true},
		{name: "unicode", code: "ссылка", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustom(tt.code, DefaultCustomMaxLength)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}
