package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the API router.
type Options struct {
	// CORSOrigins lists allowed origins. "*" allows any; empty disables CORS.
	CORSOrigins []string
	// ExposeErrorDetails adds the underlying cause to 500 responses.
	ExposeErrorDetails bool
	Logger             *slog.Logger
}

// NewRouter creates a chi router with the vault routes mounted. It is meant
// to be mounted under /api.
func NewRouter(files FileService, renderer NoteRenderer, opts Options) chi.Router {
	h := NewHandler(files, renderer, opts.Logger, opts.ExposeErrorDetails)

	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(NoSniff)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", "Range"},
			ExposedHeaders: []string{"ETag", "Content-Length", "Content-Range"},
			MaxAge:         300,
		}))
	}

	r.Get("/files", h.ListFiles)
	r.Get("/file", h.GetFile)
	r.Get("/render", h.RenderNote)

	return r
}
