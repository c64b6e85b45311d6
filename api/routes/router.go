package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rayjuxtnx/restaurant-server/api/controllers"
	webhookcontrollers "github.com/Rayjuxtnx/restaurant-server/api/controllers/webhooks"
	"github.com/Rayjuxtnx/restaurant-server/api/middleware"
	authsvc "github.com/Rayjuxtnx/restaurant-server/internal/auth"
	mediasvc "github.com/Rayjuxtnx/restaurant-server/internal/media"
	menusvc "github.com/Rayjuxtnx/restaurant-server/internal/menu"
	"github.com/Rayjuxtnx/restaurant-server/internal/payments"
	postsvc "github.com/Rayjuxtnx/restaurant-server/internal/posts"
	reservationsvc "github.com/Rayjuxtnx/restaurant-server/internal/reservations"
	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db"
	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth         authsvc.Service
	Reservations reservationsvc.Service
	Menu         menusvc.Service
	Posts        postsvc.Service
	Media        mediasvc.Service
	Ledger       *payments.Repository
	Webhook      webhookcontrollers.MpesaCallbackService
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/menu", controllers.PublicListMenu(svcs.Menu, logg))
		r.Get("/posts", controllers.PublicListPosts(svcs.Posts, logg))
		r.Get("/posts/{slug}", controllers.PublicGetPostBySlug(svcs.Posts, logg))
		r.Post("/reservations", controllers.SubmitReservation(svcs.Reservations, logg))

		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/auth/login", controllers.Login(svcs.Auth, logg))

		r.Post("/webhooks/mpesa", webhookcontrollers.MpesaCallback(svcs.Webhook, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.AdminListReservations(svcs.Reservations, logg))
			r.Get("/{id}", controllers.AdminGetReservation(svcs.Reservations, logg))
			r.Post("/{id}/cancel", controllers.AdminCancelReservation(svcs.Reservations, logg))
		})
		r.Route("/menu", func(r chi.Router) {
			r.Get("/", controllers.AdminListMenu(svcs.Menu, logg))
			r.Post("/", controllers.CreateMenuItem(svcs.Menu, logg))
			r.Patch("/{id}", controllers.UpdateMenuItem(svcs.Menu, logg))
			r.Delete("/{id}", controllers.DeleteMenuItem(svcs.Menu, logg))
		})
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", controllers.AdminListPosts(svcs.Posts, logg))
			r.Post("/", controllers.CreatePost(svcs.Posts, logg))
			r.Patch("/{id}", controllers.UpdatePost(svcs.Posts, logg))
			r.Delete("/{id}", controllers.DeletePost(svcs.Posts, logg))
		})
		r.Route("/media", func(r chi.Router) {
			r.Get("/", controllers.ListMedia(svcs.Media, logg))
			r.Post("/", controllers.RegisterMedia(svcs.Media, logg))
			r.Delete("/{id}", controllers.DeleteMedia(svcs.Media, logg))
		})
		r.Get("/payments", controllers.AdminListPayments(svcs.Ledger, logg))
	})

	return r
}
