// Package httpapi is the HTTP surface of bucketgate: routing, request
// decoding, and translation of gateway errors into status codes.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/koustreak/bucketgate/internal/gateway"
	"github.com/koustreak/bucketgate/internal/logger"
	"github.com/koustreak/bucketgate/internal/metrics"
)

// Options configures the HTTP surface.
type Options struct {
	// Prefix is prepended to the object routes, e.g. "/api/v1".
	Prefix string

	// ServiceName is echoed by the health check.
	ServiceName string

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string

	// MaxMemory bounds how much of an upload is held in memory when the
	// file part arrives before the name fields; the rest spills to disk.
	MaxMemory int64
}

// Server serves the upload, download and create-bucket endpoints.
type Server struct {
	gw      *gateway.Gateway
	log     *logger.Logger
	metrics *metrics.Metrics
	opts    Options
}

// New returns a Server. A nil log or m gets a no-op logger or a fresh registry.
func New(gw *gateway.Gateway, log *logger.Logger, m *metrics.Metrics, opts Options) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 32 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{gw: gw, log: log, metrics: m, opts: opts}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.log.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	routes := func(r chi.Router) {
		for _, p := range []string{"/upload/", "/upload"} {
			r.Post(p, s.handleUpload)
		}
		for _, p := range []string{"/download/", "/download"} {
			r.Get(p, s.handleDownload)
		}
		for _, p := range []string{"/create-bucket/", "/create-bucket"} {
			r.Post(p, s.handleCreateBucket)
		}
	}
	if s.opts.Prefix == "" || s.opts.Prefix == "/" {
		r.Group(routes)
	} else {
		r.Route(s.opts.Prefix, routes)
	}

	return r
}
