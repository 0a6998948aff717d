package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixelvault/pixelvault-backend/api/controllers"
	webhookcontrollers "github.com/pixelvault/pixelvault-backend/api/controllers/webhooks"
	"github.com/pixelvault/pixelvault-backend/api/middleware"
	"github.com/pixelvault/pixelvault-backend/internal/catalog"
	checkoutsvc "github.com/pixelvault/pixelvault-backend/internal/checkout"
	"github.com/pixelvault/pixelvault-backend/internal/discounts"
	"github.com/pixelvault/pixelvault-backend/internal/downloads"
	"github.com/pixelvault/pixelvault-backend/internal/orders"
	"github.com/pixelvault/pixelvault-backend/pkg/config"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/metrics"
	"github.com/pixelvault/pixelvault-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	catalogService catalog.Service,
	discountService discounts.Service,
	downloadService downloads.Service,
	orderService orders.Service,
	checkoutService checkoutsvc.Service,
	stripeClient *stripe.Client,
	httpMetrics *metrics.HTTPMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(orderService, stripeClient, logg))

	r.Route("/products/download", func(r chi.Router) {
		r.Get("/expired", controllers.DownloadExpired())
		r.Get("/{token}", controllers.DownloadProduct(downloadService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/popular", controllers.PopularProducts(catalogService, logg))
			r.Get("/newest", controllers.NewestProducts(catalogService, logg))
			r.Get("/{productId}", controllers.ProductPurchase(catalogService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/intent", controllers.CheckoutCreateIntent(checkoutService, logg))
			r.Get("/confirm", controllers.CheckoutConfirm(checkoutService, logg))
		})

		r.Post("/orders/email-history", controllers.EmailOrderHistory(orderService, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(cfg.Admin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(catalogService, logg))
			r.Post("/", controllers.AdminCreateProduct(catalogService, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(catalogService, logg))
			r.Patch("/{productId}/availability", controllers.AdminSetProductAvailability(catalogService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(catalogService, logg))
			r.Get("/{productId}/download", controllers.AdminDownloadProduct(catalogService, logg))
		})

		r.Route("/discount-codes", func(r chi.Router) {
			r.Get("/", controllers.AdminListDiscountCodes(discountService, logg))
			r.Post("/", controllers.AdminCreateDiscountCode(discountService, logg))
			r.Patch("/{discountCodeId}/active", controllers.AdminSetDiscountCodeActive(discountService, logg))
			r.Delete("/{discountCodeId}", controllers.AdminDeleteDiscountCode(discountService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(orderService, logg))
			r.Delete("/{orderId}", controllers.AdminDeleteOrder(orderService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.AdminListCustomers(orderService, logg))
			r.Delete("/{userId}", controllers.AdminDeleteCustomer(orderService, logg))
		})

		r.Get("/dashboard", controllers.AdminDashboard(orderService, logg))
	})

	return r
}
