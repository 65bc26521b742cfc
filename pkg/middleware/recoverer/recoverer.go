package recoverer

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// New returns a middleware that turns handler panics into a 500 response
// with the standard error envelope. http.ErrAbortHandler is re-raised.
func New(logger *slog.Logger) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error(
					"panic recovered",
					slog.Group(op,
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
