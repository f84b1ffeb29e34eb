package router

import (
	"net/http"
	"time"

	"biolink/internal/api/v1/handler"
	"biolink/internal/middleware"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Handlers groups every route owner. Health is optional.
type Handlers struct {
	Profiles    *handler.ProfileHandler
	Links       *handler.LinkHandler
	Sections    *handler.SectionHandler
	Socials     *handler.SocialLinkHandler
	Settings    *handler.SettingsHandler
	Subscribers *handler.SubscriberHandler
	Domains     *handler.DomainHandler
	Uploads     *handler.UploadHandler
	Billing     *handler.BillingHandler
	Pages       *handler.PageHandler
	Health      *handler.HealthHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	// Redis backs the visitor rate limit; nil disables it.
	Redis     *redis.Client
	RateLimit int
	Logger    zerolog.Logger
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	// sentryhttp re-panics so Recovery still writes the response.
	if sentry.CurrentHub().Client() != nil {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true, Timeout: 2 * time.Second}).Handle)
	}
	r.Use(middleware.Authenticate(opts.JWTSecret, opts.Logger))

	if h.Health != nil {
		h.Health.RegisterRoutes(r)
	}

	// Visitor endpoints.
	limit := middleware.DefaultRateLimitConfig()
	if opts.RateLimit > 0 {
		limit.MaxRequests = opts.RateLimit
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.Redis, limit, opts.Logger))
		h.Subscribers.RegisterPublicRoutes(r)
		h.Links.RegisterPublicRoutes(r)
	})
	h.Billing.RegisterPublicRoutes(r)

	// Owner endpoints; anonymous callers are rejected by each operation.
	h.Profiles.RegisterRoutes(r)
	h.Links.RegisterRoutes(r)
	h.Sections.RegisterRoutes(r)
	h.Socials.RegisterRoutes(r)
	h.Settings.RegisterRoutes(r)
	h.Subscribers.RegisterRoutes(r)
	h.Domains.RegisterRoutes(r)
	h.Uploads.RegisterRoutes(r)
	h.Billing.RegisterRoutes(r)

	h.Pages.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
