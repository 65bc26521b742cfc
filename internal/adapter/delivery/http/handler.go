package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// retryAfterSeconds is sent with 503 responses caused by store failures.
const retryAfterSeconds = "1"

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlAllocator interface {
	Allocate(ctx context.Context, originalURL, customCode string) (*entity.URL, error)
}

type urlResolver interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

type urlRemover interface {
	Remove(ctx context.Context, shortCode string) error
}

type urlHandler struct {
	allocator urlAllocator
	resolver  urlResolver
	remover   urlRemover
	validate  *validator.Validate
}

func newURLHandler(
	allocator urlAllocator,
	resolver urlResolver,
	remover urlRemover,
	validate *validator.Validate,
) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		allocator: allocator,
		resolver:  resolver,
		remover:   remover,
		validate:  validate,
	}
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.EmptyRequestBody)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidRequestBody)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Validation(err))
		return
	}

	url, err := h.allocator.Allocate(r.Context(), req.OriginalURL, req.ShortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	originalURL, err := h.resolver.Resolve(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	originalURL, err := h.resolver.Resolve(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resolveResponse{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
	})
}

func (h *urlHandler) removeURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	if err := h.remover.Remove(r.Context(), shortCode); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// renderError maps engine errors onto status codes. Anything unrecognised is
// logged with the request and answered with 500.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		resp   response.ErrorResponse
	)

	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		status, resp = http.StatusBadRequest, invalidURLResponse
	case errors.Is(err, entity.ErrInvalidShortCode):
		status, resp = http.StatusBadRequest, invalidShortCodeResponse
	case errors.Is(err, entity.ErrShortCodeTaken):
		status, resp = http.StatusConflict, shortCodeTakenResponse
	case errors.Is(err, entity.ErrURLNotFound):
		status, resp = http.StatusNotFound, urlNotFoundResponse
	case errors.Is(err, entity.ErrAllocationExhausted):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusServiceUnavailable, allocationExhaustedResponse
	case errors.Is(err, entity.ErrStoreUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusServiceUnavailable, storeUnavailableResponse
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		status, resp = http.StatusInternalServerError, response.ServerError
	}

	if entity.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
