// Package dashboard serves the service availability maps over HTTP.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/vaservices/internal/config"
	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/servicemap"
)

// Source produces the map views. *servicemap.Pipeline implements it.
type Source interface {
	ChoroplethCatalog() servicemap.Catalog
	Choropleth(ctx context.Context, field string) (*servicemap.ChoroplethView, error)
	Markers(ctx context.Context) ([]model.Marker, error)
	Regions(ctx context.Context) ([]model.Region, error)
	CacheStats() servicemap.CacheStats
	PurgeCaches()
}

// Options configures the router.
type Options struct {
	Map            config.MapConfig
	RateLimit      float64 // requests per second; 0 disables limiting
	AllowedOrigins []string
}

// Server holds the handlers for one Source.
type Server struct {
	src   Source
	opts  Options
	pages *pages
}

// New creates a Server.
func New(src Source, opts Options) *Server {
	return &Server{src: src, opts: opts, pages: loadPages()}
}

// Router returns the HTTP handler with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(rateLimit(newLimiter(s.opts.RateLimit)))
		}
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/", s.handleChoroplethPage)
		r.Get("/markers", s.handleMarkersPage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/services", s.handleServices)
			r.Get("/choropleth", s.handleChoropleth)
			r.Get("/markers", s.handleMarkers)
			r.Get("/outlines", s.handleOutlines)
			r.Get("/cache/stats", s.handleCacheStats)
			r.Post("/cache/purge", s.handlePurgeCaches)
		})
	})

	return r
}

// newLimiter allows bursts of twice the steady rate.
func newLimiter(perSecond float64) *rate.Limiter {
	burst := int(2 * perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
