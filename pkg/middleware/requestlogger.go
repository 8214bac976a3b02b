package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ekaraca/storefront/pkg/logger"
)

// RequestLogger middleware stores a request-scoped logger in the context so
// downstream code picks up correlation and trace attributes automatically.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
