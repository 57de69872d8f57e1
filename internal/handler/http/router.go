package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Services are the application services behind the HTTP surface.
type Services struct {
	Products      *service.ProductService
	Orders        *service.OrderService
	Reviews       *service.ReviewService
	Notifications *service.NotificationService
	Reports       *service.ReportService
}

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	// Context bounds background work such as rate-limiter eviction.
	Context        context.Context
	ServiceName    string
	ValidateToken  middleware.TokenValidator
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// OffersMaxAge is the Cache-Control max-age of the public offers listing.
	OffersMaxAge   time.Duration
	PprofEnabled   bool
	PprofCIDRs     []string
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig, svcs Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	products := NewProductHandler(svcs.Products, logger)
	orders := NewOrderHandler(svcs.Orders, logger)
	reviews := NewReviewHandler(svcs.Reviews, logger)
	notifications := NewNotificationHandler(svcs.Notifications, logger)
	reports := NewReportHandler(svcs.Reports, logger)

	authenticated := middleware.Auth(cfg.ValidateToken)
	sellers := middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.CacheControl(cfg.OffersMaxAge)).Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
			r.Get("/{id}/reviews", reviews.ListProductReviews)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, sellers)
				r.Post("/", products.CreateProduct)
				r.Put("/{id}", products.UpdateProduct)
				r.Delete("/{id}", products.ArchiveProduct)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", orders.CreateOrder)
			r.Get("/{id}", orders.GetOrder)
			r.Patch("/{id}/status", orders.UpdateOrderStatus)
			r.Patch("/{id}/estado", orders.UpdateOrderStatus)
			r.Get("/buyer/{buyerId}", orders.ListBuyerOrders)
			r.Get("/mis-ordenes/{buyerId}", orders.ListBuyerOrders)
			r.With(sellers).Get("/seller/{sellerId}", orders.ListSellerOrders)
		})

		r.With(authenticated).Post("/reviews", reviews.CreateReview)

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/{sellerId}", notifications.ListNotifications)
			r.Patch("/mark-read/{id}", notifications.MarkRead)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authenticated, sellers)
			r.Get("/top-products", reports.TopProducts)
			r.Get("/mayores-ventas", reports.TopProducts)
		})
	})

	return r
}
