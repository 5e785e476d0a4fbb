package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/iac-studio/blueprint/internal/api/handlers"
	mw "github.com/iac-studio/blueprint/internal/api/middleware"
	"github.com/iac-studio/blueprint/internal/api/validators"
	"github.com/iac-studio/blueprint/internal/metrics"
	"github.com/iac-studio/blueprint/internal/services"
)

type Dependencies struct {
	Service     services.ProjectService
	Checks      map[string]handlers.Check
	RateLimiter *mw.RateLimiter
	CORSOrigins []string
	CanvasWidth float64
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.Metrics)
	r.Use(mw.CORS(dep.CORSOrigins))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Middleware)
	}
	r.Use(chimid.Compress(5))

	hh := handlers.NewHealthHandler(dep.Checks)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	v := validators.New()
	ph := handlers.NewProjectsHandler(dep.Service, v)
	rh := handlers.NewResourcesHandler(dep.Service, v)
	gh := handlers.NewGraphsHandler(dep.Service, v, dep.CanvasWidth)
	pv := handlers.NewPreviewHandler(dep.Service)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/resource-types", rh.Types)

		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/", ph.List)
			pr.Post("/", ph.Create)

			pr.Route("/{id}", func(p chi.Router) {
				p.Get("/", ph.Get)
				p.Put("/", ph.Update)
				p.Delete("/", ph.Delete)

				p.Post("/resources", rh.Add)
				p.Put("/resources/{rid}", rh.Update)
				p.Delete("/resources/{rid}", rh.Remove)
				p.Get("/resources/{rid}/dependencies", rh.Dependencies)

				p.Get("/graph", gh.Layout)
				p.Get("/graph.svg", gh.SVG)
				p.Get("/graph.dot", gh.DOT)
				p.Get("/graph/current", gh.Current)
				p.Put("/graph/current", gh.Restore)
				p.Get("/graph/versions", gh.Versions)
				p.Get("/graph/versions/{version}", gh.Version)

				p.Get("/preview", pv.Files)
				p.Get("/preview.zip", pv.Zip)
			})
		})
	})

	return r
}
