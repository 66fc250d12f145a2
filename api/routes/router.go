package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/socialsphere/composer-backend/api/controllers"
	"github.com/socialsphere/composer-backend/api/middleware"
	"github.com/socialsphere/composer-backend/internal/workflow"
	"github.com/socialsphere/composer-backend/pkg/config"
	"github.com/socialsphere/composer-backend/pkg/logger"
	"github.com/socialsphere/composer-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redis.Pinger,
	workflowService workflow.Service,
	linkProvider controllers.LinkChecker,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/compose/runs", func(r chi.Router) {
			r.Post("/", controllers.ComposeStart(workflowService, logg))
			r.Route("/{runId}", func(r chi.Router) {
				r.Get("/", controllers.ComposeSnapshot(workflowService, logg))
				r.Delete("/", controllers.ComposeClose(workflowService, logg))
				r.Put("/text", controllers.ComposeSetText(workflowService, logg))
				r.Post("/media", controllers.ComposeAddMedia(workflowService, cfg.Media.MaxUploadBytes(), logg))
				r.Delete("/media/{attachmentId}", controllers.ComposeRemoveMedia(workflowService, logg))
				r.Post("/generate", controllers.ComposeGenerate(workflowService, logg))
				r.Route("/platforms/{platform}", func(r chi.Router) {
					r.Post("/edit", controllers.ComposeToggleEdit(workflowService, logg))
					r.Patch("/fields", controllers.ComposeSetField(workflowService, logg))
					r.Patch("/list-fields", controllers.ComposeSetListField(workflowService, logg))
					r.Post("/publish", controllers.ComposePublish(workflowService, logg))
				})
			})
		})

		r.Get("/links/{platform}", controllers.LinkStatus(linkProvider, logg))
	})

	return r
}
