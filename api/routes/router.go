package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paytrack/paytrack-backend/api/controllers"
	"github.com/paytrack/paytrack-backend/api/middleware"
	"github.com/paytrack/paytrack-backend/internal/auth"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/internal/payments"
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	"github.com/paytrack/paytrack-backend/pkg/logger"
	"github.com/paytrack/paytrack-backend/pkg/metrics"
	pkgredis "github.com/paytrack/paytrack-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface is built from. The redis
// backed fields are optional; leaving them nil disables idempotency replay,
// auth rate limiting and the redis readiness check.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	RateLimits  middleware.RateLimitStore

	Users         *users.Repository
	Auth          auth.Service
	Register      auth.RegisterService
	Orders        orders.Service
	Payments      payments.Service
	Notifications controllers.NotificationsService
	Live          http.Handler
}

func NewRouter(p RouterParams) (http.Handler, error) {
	if p.Config == nil || p.Logger == nil {
		return nil, fmt.Errorf("config and logger are required")
	}
	if p.Users == nil || p.Auth == nil || p.Register == nil || p.Orders == nil || p.Payments == nil || p.Notifications == nil {
		return nil, fmt.Errorf("router services are required")
	}
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTP),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}
	if p.Live != nil {
		r.Handle("/ws", p.Live)
	}

	idem := middleware.Idempotency(p.Idempotency, logg)
	vendorOnly := middleware.RequireRole(enums.RoleVendor, logg)
	supplierOnly := middleware.RequireRole(enums.RoleSupplier, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimits, logg)).Post("/register", controllers.AuthRegister(p.Register, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimits, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/profile", controllers.Profile(p.Users, logg))
			r.With(vendorOnly).Get("/suppliers", controllers.Counterparties(p.Users, logg))
			r.With(supplierOnly).Get("/vendors", controllers.Counterparties(p.Users, logg))

			r.With(vendorOnly, idem).Post("/orders", controllers.CreateOrder(p.Orders, logg))
			r.Get("/orders", controllers.ListOrders(p.Orders, logg))
			r.Post("/orders/filter", controllers.FilterOrders(p.Orders, logg))
			r.With(supplierOnly).Patch("/orders/{orderId}/status", controllers.UpdateOrderStatus(p.Orders, logg))

			r.With(vendorOnly, idem).Post("/payments", controllers.RequestPayment(p.Payments, logg))
			r.Get("/payments/pending", controllers.ListPendingPayments(p.Payments, logg))
			r.With(supplierOnly, idem).Patch("/payments/{paymentId}/confirm", controllers.ConfirmPayment(p.Payments, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(p.Notifications, logg))
				r.Post("/send", controllers.SendNotification(p.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			})
		})
	})

	return r, nil
}
