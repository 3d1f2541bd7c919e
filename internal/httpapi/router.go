// Package httpapi wires the engine's HTTP surface: the unauthenticated
// webhook intake route and a liveness check, grounded on the teacher's
// server/api.go initRouter layout (gorilla/mux, webhook route carved out
// of any auth middleware since it authenticates via HMAC signature).
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/webhook"
)

// NewRouter builds the engine's top-level router.
func NewRouter(handler *webhook.Handler, logger log.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	// No auth middleware on the webhook route -- it authenticates via
	// HMAC signature verification instead (spec.md §4.1).
	router.HandleFunc("/github/webhook", handler.ServeWebhook).Methods(http.MethodPost)

	return router
}

func loggingMiddleware(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debugf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
