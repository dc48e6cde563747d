package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendalivre/vendalivre-backend/api/controllers"
	webhookcontrollers "github.com/vendalivre/vendalivre-backend/api/controllers/webhooks"
	"github.com/vendalivre/vendalivre-backend/api/middleware"
	"github.com/vendalivre/vendalivre-backend/internal/auth"
	"github.com/vendalivre/vendalivre-backend/internal/balance"
	"github.com/vendalivre/vendalivre-backend/internal/dashboard"
	"github.com/vendalivre/vendalivre-backend/internal/enrollments"
	"github.com/vendalivre/vendalivre-backend/internal/platform"
	"github.com/vendalivre/vendalivre-backend/internal/products"
	"github.com/vendalivre/vendalivre-backend/internal/recipients"
	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	pagarmewebhook "github.com/vendalivre/vendalivre-backend/internal/webhooks/pagarme"
	"github.com/vendalivre/vendalivre-backend/internal/withdrawals"
	"github.com/vendalivre/vendalivre-backend/pkg/auth/session"
	"github.com/vendalivre/vendalivre-backend/pkg/config"
	"github.com/vendalivre/vendalivre-backend/pkg/db"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
	"github.com/vendalivre/vendalivre-backend/pkg/redis"
)

// Services bundles everything the router mounts. The API binary wires the
// real implementations; tests can stub individual entries.
type Services struct {
	Sessions     session.AccessSessionChecker
	Auth         auth.Service
	Settlement   settlement.Service
	Products     products.Service
	Enrollments  enrollments.Service
	Recipients   recipients.Service
	Withdrawals  withdrawals.Service
	Balances     balance.Service
	Dashboard    dashboard.Service
	Platform     platform.Service
	Webhook      *pagarmewebhook.Service
	WebhookGuard *pagarmewebhook.IdempotencyGuard
	Gateway      *pagarme.Client
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/pagarme", webhookcontrollers.PagarmeWebhook(svcs.Webhook, svcs.Gateway, svcs.WebhookGuard, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, redisClient, logg),
				middleware.Idempotency(redisClient, logg),
			).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
		})

		// Checkout is public: the buyer account is provisioned during
		// settlement, so no bearer token exists yet.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Post("/checkout", controllers.Checkout(svcs.Settlement, logg))
			r.Post("/checkout/cart", controllers.CheckoutCart(svcs.Settlement, logg))
		})
		r.Get("/orders/{orderId}", controllers.OrderStatus(svcs.Settlement, svcs.Auth, logg))
		r.Get("/products/{productId}", controllers.PublicGetProduct(svcs.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svcs.Sessions, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
			r.Get("/members/library", controllers.MemberLibrary(svcs.Enrollments, logg))
			r.Get("/members/products/{productId}/content", controllers.MemberContent(svcs.Enrollments, logg))

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole("seller", logg))
				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.SellerCreateProduct(svcs.Products, logg))
					r.Get("/", controllers.SellerListProducts(svcs.Products, logg))
					r.Get("/{productId}", controllers.SellerGetProduct(svcs.Products, logg))
					r.Patch("/{productId}", controllers.SellerUpdateProduct(svcs.Products, logg))
					r.Post("/{productId}/enroll", controllers.SellerEnrollBuyer(svcs.Enrollments, logg))
				})
				r.Route("/recipients", func(r chi.Router) {
					r.Post("/", controllers.SellerRegisterRecipient(svcs.Recipients, logg))
					r.Get("/", controllers.SellerGetRecipient(svcs.Recipients, logg))
				})
				r.Route("/withdrawals", func(r chi.Router) {
					r.Post("/", controllers.SellerRequestWithdrawal(svcs.Withdrawals, logg))
					r.Get("/", controllers.SellerListWithdrawals(svcs.Withdrawals, logg))
				})
				r.Get("/balance", controllers.SellerBalance(svcs.Balances, logg))
				r.Get("/dashboard", controllers.SellerDashboard(svcs.Dashboard, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Get("/platform-fee", controllers.AdminGetPlatformFee(svcs.Platform, logg))
				r.Put("/platform-fee", controllers.AdminSetPlatformFee(svcs.Platform, logg))
			})
		})
	})

	return r
}
