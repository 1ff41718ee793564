// Package api serves snapshots, actions and the push channel over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sshsshje/sshsshje/internal/auth"
	"github.com/sshsshje/sshsshje/internal/broadcast"
	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

// DefaultWSWriteTimeout bounds each websocket write.
const DefaultWSWriteTimeout = 10 * time.Second

// Options wires the router to its collaborators.
type Options struct {
	Source   telemetry.Source
	Registry *broadcast.Registry
	Loop     *broadcast.Loop
	Auth     *auth.Authenticator

	CORSOrigins    []string
	WSWriteTimeout time.Duration
	Logger         *slog.Logger
}

// Server holds the handlers' dependencies.
type Server struct {
	src       telemetry.Source
	reg       *broadcast.Registry
	loop      *broadcast.Loop
	wsTimeout time.Duration
	log       *slog.Logger
}

// NewRouter builds the chi router with middleware and every route.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	log = log.With("component", "api")

	authn := opts.Auth
	if authn == nil {
		authn = auth.New(false, auth.ModeAPIKey, "")
	}
	wsTimeout := opts.WSWriteTimeout
	if wsTimeout <= 0 {
		wsTimeout = DefaultWSWriteTimeout
	}

	s := &Server{
		src:       opts.Source,
		reg:       opts.Registry,
		loop:      opts.Loop,
		wsTimeout: wsTimeout,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery(log))
	r.Use(Logger(log))
	r.Use(CORS(opts.CORSOrigins, 10*time.Minute))
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.health)
	r.Get("/ws", s.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireAuth(authn))

		r.Get("/system", s.system)
		r.Get("/services", s.services)
		r.Get("/containers", s.containers)
		r.Get("/applications", s.applications)
		r.Get("/security", s.security)
		r.Get("/diagnostics", s.diagnostics)
		r.Get("/history", s.history)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/restart", s.restart)
			r.Post("/resolve", s.resolve)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})

	return r
}
