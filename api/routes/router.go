package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Optional pieces may be
// nil: a nil IdempotencyStore disables replay and nil ReadyChecks entries
// are skipped by the readiness probe.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	ReadyChecks      map[string]controllers.Pinger
	Gatherer         prometheus.Gatherer
	IdempotencyStore pkgredis.IdempotencyStore
	Checkout         controllers.CheckoutService
	Orders           orders.Service
	Inventory        controllers.InventoryService
	Webhooks         webhookcontrollers.EventProcessor
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotency := middleware.Idempotency(deps.IdempotencyStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(idempotency).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/orders/{orderNumber}", controllers.OrderLookup(deps.Orders, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/square", webhookcontrollers.SquareWebhook(deps.Webhooks, cfg.Webhooks, logg))
			r.Post("/payments", webhookcontrollers.PaymentsWebhook(deps.Webhooks, cfg.Webhooks, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleInventoryManager, enums.StaffRoleSupport))

		r.Get("/orders", controllers.AdminOrderList(deps.Orders, logg))
		r.Get("/products/{productId}/inventory", controllers.AdminInventorySummary(deps.Inventory, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleInventoryManager))
			r.Post("/products", controllers.AdminCreateProduct(deps.Inventory, logg))
			r.With(idempotency).Post("/products/{productId}/deliveries", controllers.AdminReceiveDelivery(deps.Inventory, logg))
		})
	})

	return r
}
