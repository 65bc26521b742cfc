package http

import (
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// shortenRequest is the body of POST /api/v1/shorten. ShortCode is optional;
// when empty a code is generated.
type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required"`
	ShortCode   string `json:"short_code"`
}

type urlResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	}
}

type resolveResponse struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
}

var (
	invalidURLResponse          = response.Error("invalid url")
	invalidShortCodeResponse    = response.Error("invalid short code")
	shortCodeTakenResponse      = response.Error("short code already taken")
	urlNotFoundResponse         = response.Error("url not found")
	allocationExhaustedResponse = response.Error("no free short code found, try again later")
	storeUnavailableResponse    = response.Error("storage unavailable, try again later")
)
