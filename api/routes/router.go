package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comandahub/comanda-backend/api/controllers"
	ifoodcontrollers "github.com/comandahub/comanda-backend/api/controllers/ifood"
	webhookcontrollers "github.com/comandahub/comanda-backend/api/controllers/webhooks"
	"github.com/comandahub/comanda-backend/api/middleware"
	"github.com/comandahub/comanda-backend/pkg/config"
	"github.com/comandahub/comanda-backend/pkg/logger"
	pkgredis "github.com/comandahub/comanda-backend/pkg/redis"
)

type pinger interface {
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	cacheP pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	webhookPipeline webhookcontrollers.IFoodEventPipeline,
	webhookSettings webhookcontrollers.IFoodSecretResolver,
	commandSvc ifoodcontrollers.CommandService,
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
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cacheP))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Marketplace push delivery authenticates by signature, not tenant header.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/ifood", webhookcontrollers.IFoodWebhook(webhookPipeline, webhookSettings, logg))
	})

	r.Route("/api/v1/ifood", func(r chi.Router) {
		r.Use(middleware.RestaurantContext(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/orders", ifoodcontrollers.ListOrders(commandSvc, logg))
		r.Post("/poll", ifoodcontrollers.Poll(commandSvc, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/accept", ifoodcontrollers.Accept(commandSvc, logg))
			r.Post("/reject", ifoodcontrollers.Reject(commandSvc, logg))
			r.Post("/start-preparation", ifoodcontrollers.StartPreparation(commandSvc, logg))
			r.Post("/ready", ifoodcontrollers.Ready(commandSvc, logg))
			r.Post("/dispatch", ifoodcontrollers.Dispatch(commandSvc, logg))
			r.Post("/cancellation", ifoodcontrollers.RequestCancellation(commandSvc, logg))
			r.Get("/cancellation-reasons", ifoodcontrollers.CancellationReasons(commandSvc, logg))
			r.Get("/tracking", ifoodcontrollers.Tracking(commandSvc, logg))
			r.Post("/pickup-code", ifoodcontrollers.ValidatePickupCode(commandSvc, logg))
		})
	})

	return r
}
