// Route registration and go-chi router setup.
package api

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matiasleandrokruk/echopicks/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/echopicks/internal/api/middleware"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metrics"
	"github.com/matiasleandrokruk/echopicks/internal/web"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Recommender handlers.Recommender
	// Templates renders the Recommendation View; see web.Templates.
	Templates   *template.Template
	CORSOrigins []string
	PageSize    int
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.AccessLog)
	r.Use(middleware.Recoverer)

	// Health check, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Handle("/metrics", metrics.Handler())

	// Recommendation View: GET renders the form, POST is the no-JavaScript path
	viewHandler := handlers.NewViewHandler(deps.Recommender, deps.Templates, deps.PageSize)
	r.Get("/", viewHandler.Index)
	r.Post("/", viewHandler.Submit)
	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	// JSON API
	recommendationHandler := handlers.NewRecommendationHandler(deps.Recommender)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
		r.Post("/recommendations", recommendationHandler.Recommend) // POST /api/recommendations
	})

	return r
}
