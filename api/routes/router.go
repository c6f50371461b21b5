package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopfront/retail-backend/api/controllers"
	cartcontrollers "github.com/shopfront/retail-backend/api/controllers/cart"
	catalogcontrollers "github.com/shopfront/retail-backend/api/controllers/catalog"
	ordercontrollers "github.com/shopfront/retail-backend/api/controllers/orders"
	partnercontrollers "github.com/shopfront/retail-backend/api/controllers/partner"
	reviewcontrollers "github.com/shopfront/retail-backend/api/controllers/reviews"
	usercontrollers "github.com/shopfront/retail-backend/api/controllers/users"
	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/internal/cart"
	"github.com/shopfront/retail-backend/internal/catalog"
	"github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/internal/reviews"
	"github.com/shopfront/retail-backend/internal/users"
	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/metrics"
	pkgredis "github.com/shopfront/retail-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP layer needs: request
// throttling, auth throttling and idempotency records.
type redisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// commentService is satisfied by *reviews.Service.
type commentService interface {
	AddComment(ctx context.Context, userID, productID uuid.UUID, input reviews.AddCommentInput) (*reviews.CommentView, error)
	ListComments(ctx context.Context, productID uuid.UUID, cursor string, limit int) (*reviews.CommentList, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	store redisStore,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	usersService users.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	reviewsService commentService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"password_reset",
		cfg.RateLimit.ResetWindow,
		cfg.RateLimit.ResetIPLimit,
		cfg.RateLimit.ResetEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(cfg.RateLimit, store, logg))

			r.Get("/catalog/shops", catalogcontrollers.ListShops(catalogService, logg))
			r.Get("/catalog/categories", catalogcontrollers.ListCategories(catalogService, logg))
			r.Get("/catalog/brands", catalogcontrollers.ListBrands(catalogService, logg))
			r.Get("/catalog/products", catalogcontrollers.ListProducts(catalogService, logg))
			r.Get("/catalog/products/{productId}", catalogcontrollers.ProductDetail(catalogService, logg))
			r.Get("/catalog/search", catalogcontrollers.Search(catalogService, logg))
			r.Get("/products/{productId}/comments", reviewcontrollers.ListComments(reviewsService, logg))

			r.With(middleware.AuthRateLimit(registerPolicy, store, logg)).
				Post("/auth/register", usercontrollers.Register(usersService, logg))
			r.Get("/auth/confirm-email/{key}", usercontrollers.ConfirmEmail(usersService, logg))
			r.With(middleware.AuthRateLimit(resetPolicy, store, logg)).
				Post("/auth/password-reset", usercontrollers.RequestPasswordReset(usersService, logg))
			r.Post("/auth/password-reset/{key}", usercontrollers.ResetPassword(usersService, logg))
		})

		// Idempotency matches on the full route pattern, so these stay flat
		// inside the group rather than in nested sub-routers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(cfg.RateLimit, store, logg))
			r.Use(middleware.Idempotency(store, cfg.Shop.IdempotencyTTL, logg))

			r.Get("/profile", usercontrollers.Profile(usersService, logg))
			r.Put("/profile", usercontrollers.UpdateProfile(usersService, logg))
			r.Put("/profile/password", usercontrollers.ChangePassword(usersService, logg))
			r.Get("/profile/contacts", usercontrollers.ListContacts(usersService, logg))
			r.Post("/profile/contacts", usercontrollers.CreateContact(usersService, logg))
			r.Post("/profile/contacts/primary", usercontrollers.PrimaryContact(usersService, logg))
			r.Put("/profile/contacts/{contactId}", usercontrollers.UpdateContact(usersService, logg))
			r.Delete("/profile/contacts/{contactId}", usercontrollers.DeleteContact(usersService, logg))

			r.Get("/cart", cartcontrollers.CartFetch(cartService, logg))
			r.Post("/cart/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Patch("/cart/items/{itemId}", cartcontrollers.CartSetQuantity(cartService, logg))
			r.Delete("/cart/items/{itemId}", cartcontrollers.CartRemoveItem(cartService, logg))
			r.Post("/checkout", ordercontrollers.Checkout(ordersService, logg))

			r.Get("/orders", ordercontrollers.List(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/orders/{orderId}/status", ordercontrollers.ChangeStatus(ordersService, logg))

			r.Post("/products/{productId}/comments", reviewcontrollers.AddComment(reviewsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUserType(logg, enums.UserTypeShop))
				r.Put("/partner/state", partnercontrollers.SetState(catalogService, logg))
				r.Post("/partner/price-list", partnercontrollers.ImportPriceList(catalogService, logg))
			})
		})
	})

	return r
}
