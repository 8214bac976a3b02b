package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekaraca/storefront/pkg/health"
	"github.com/ekaraca/storefront/pkg/middleware"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger         *slog.Logger
	ServiceName    string
	Products       *ProductHandler
	Orders         *OrderHandler
	Cart           *CartHandler
	Favorites      *FavoriteHandler
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
}

// NewRouter builds the chi router with the full middleware chain and all
// API routes under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.RateLimit(cfg.RateLimit))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := middleware.Auth(cfg.TokenValidator)
	admin := middleware.RequireRole("admin")

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.List)
			r.Get("/{id}", cfg.Products.Get)
			r.Get("/{id}/reviews", cfg.Products.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/{id}/reviews", cfg.Products.CreateReview)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Post("/", cfg.Products.Create)
				r.Put("/{id}", cfg.Products.Update)
				r.Delete("/{id}", cfg.Products.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", cfg.Orders.Create)
			r.Post("/create", cfg.Orders.Checkout)
			r.Post("/verify-payment", cfg.Orders.VerifyPayment)
			r.Get("/my-orders", cfg.Orders.MyOrders)
			r.Get("/{id}", cfg.Orders.Get)
			r.Get("/{id}/history", cfg.Orders.History)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", cfg.Orders.List)
				r.Put("/{id}/status", cfg.Orders.UpdateStatus)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", cfg.Cart.Get)
			r.Delete("/", cfg.Cart.Clear)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{productID}", cfg.Cart.UpdateItem)
			r.Delete("/items/{productID}", cfg.Cart.RemoveItem)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", cfg.Favorites.List)
			r.Put("/{productID}", cfg.Favorites.Add)
			r.Delete("/{productID}", cfg.Favorites.Remove)
		})
	})

	return r
}
