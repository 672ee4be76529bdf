package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		g.counters.RecordScrape()
		g.metrics.ServeHTTP(w, req)
	})

	// Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		limiter := rate.NewLimiter(rate.Limit(g.config.Auth.RatePerSecond), g.config.Auth.Burst)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, limiter, g.counters, g.audit, g.logger))
			r.Get("/status", g.handleStatus())
		})
	}

	return r
}
