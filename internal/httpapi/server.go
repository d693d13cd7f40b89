// Package httpapi exposes the session controller as a JSON API.
package httpapi

import (
	"net/http"
	"time"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// SessionHeader carries the guest session id in both directions.
const SessionHeader = "X-Session-ID"

// Options configure a Server. Verifier may be nil, in which case every
// caller is a guest.
type Options struct {
	App            *app.App
	Verifier       *auth.Verifier
	Metrics        *metrics.Collector
	Logger         *zap.Logger
	AllowedOrigins []string
	DataPath       string
}

// Server routes HTTP requests to the session controller.
type Server struct {
	app      *app.App
	verifier *auth.Verifier
	prom     *metrics.Collector
	log      *zap.Logger
	origins  []string
	dataPath string
	started  time.Time
	router   *chi.Mux
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	s := &Server{
		app:      opts.App,
		verifier: opts.Verifier,
		prom:     opts.Metrics,
		log:      opts.Logger,
		origins:  opts.AllowedOrigins,
		dataPath: opts.DataPath,
		started:  time.Now(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.router = s.setupRoutes()
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.prom != nil {
		r.Method(http.MethodGet, "/metrics", s.prom.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.principal)

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", s.handleGenerate)
			r.Get("/current", s.handleCurrentPlan)
			r.Delete("/current", s.handleReset)
			r.Post("/current/recalculate", s.handleRecalculate)
			r.Post("/current/checked", s.handleToggleItem)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleHistory)
			r.Post("/", s.handleSaveSelection)
			r.Post("/{id}/checked", s.handleToggleHistoryItem)
			r.Post("/{id}/extras", s.handleAddHistoryExtra)
			r.Delete("/{id}", s.handleDeleteHistoryItem)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleSavedRecipes)
			r.Post("/toggle", s.handleToggleRecipe)
			r.Delete("/{title}", s.handleDeleteRecipe)
			r.Post("/{title}/publish", s.handlePublishRecipe)
		})

		r.Get("/draft", s.handleDraft)
		r.Put("/draft", s.handleSaveDraft)
	})

	return r
}
