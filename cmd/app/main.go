package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biolink/internal/api/v1/handler"
	"biolink/internal/api/v1/router"
	"biolink/internal/billing"
	"biolink/internal/config"
	"biolink/internal/domains"
	"biolink/internal/logger"
	"biolink/internal/metrics"
	"biolink/internal/pipeline"
	"biolink/internal/plan"
	"biolink/internal/render"
	"biolink/internal/repository"
	"biolink/internal/revalidate"
	"biolink/internal/service"
	"biolink/internal/storage"
	"biolink/internal/validation"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const pageCacheTTL = 5 * time.Minute

func main() {
	// 1. Load configuration
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		envLog := logger.New()
		envLog.Warn().Err(err).Msg("Failed to read .env file")
	}
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Error reporting
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment}); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// 3. Database
	pool, err := repository.NewPool(ctx, cfg.DBConnectionString, repository.PoolOptions{Development: cfg.IsDevelopment()})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Database connection successful")

	profiles := repository.NewProfileRepo(pool)
	links := repository.NewLinkRepo(pool)
	sections := repository.NewSectionRepo(pool)
	socials := repository.NewSocialLinkRepo(pool)
	settings := repository.NewSettingsRepo(pool)
	flags := repository.NewFlagsRepo(pool)
	subscribers := repository.NewSubscriberRepo(pool)
	domainRepo := repository.NewDomainRepo(pool)
	subscriptions := repository.NewSubscriptionRepo(pool)

	// 4. Revalidation: page cache eviction plus optional event fan-out
	var invalidators revalidate.Multi
	var rdb *redis.Client
	var pageCache *revalidate.PageCache
	if cfg.RedisURL != "" {
		rdb, err = revalidate.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, page cache and rate limiting disabled")
		} else {
			defer rdb.Close()
			pageCache = revalidate.NewPageCache(rdb, pageCacheTTL)
			invalidators = append(invalidators, pageCache)
		}
	}
	if cfg.NATSURL != "" {
		conn, err := revalidate.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, revalidation events disabled")
		} else {
			defer conn.Drain()
			invalidators = append(invalidators, revalidate.NewNATSPublisher(conn))
		}
	}
	if cfg.GCPProjectID != "" {
		pub, err := revalidate.NewPubSubPublisher(ctx, cfg.GCPProjectID, cfg.PubSubRevalidateTopic, cfg.PubSubEmulatorHost)
		if err != nil {
			log.Warn().Err(err).Msg("Pub/Sub unavailable, revalidation events disabled")
		} else {
			defer pub.Close()
			invalidators = append(invalidators, pub)
		}
	}

	p := pipeline.New(flags, validation.New(), invalidators, log)

	// 5. Outbound clients
	objects, err := storage.NewS3(ctx, storage.Options{
		Endpoint:  cfg.S3URL,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	stripeClient := billing.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	prices := plan.Prices{
		StarterMonthly: cfg.StripePriceStarterMonth,
		StarterYearly:  cfg.StripePriceStarterYear,
		ProMonthly:     cfg.StripePriceProMonth,
		ProYearly:      cfg.StripePriceProYear,
	}

	var provider domains.Provider
	if cfg.VercelEnabled() {
		provider = domains.NewVercelClient(cfg.VercelAPIToken, cfg.VercelProjectID, cfg.VercelTeamID)
	}

	// 6. Services and handlers
	var renderOpts []render.Option
	if pageCache != nil {
		renderOpts = append(renderOpts, render.WithCache(pageCache))
	}
	assembler := render.NewAssembler(render.Sources{
		Profiles: profiles,
		Links:    links,
		Settings: settings,
		Flags:    flags,
		Sections: sections,
		Socials:  socials,
	}, cfg.AppURL, log, renderOpts...)

	handlers := router.Handlers{
		Profiles:    handler.NewProfileHandler(service.NewProfileService(profiles, p, log)),
		Links:       handler.NewLinkHandler(service.NewLinkService(links, sections, p, log)),
		Sections:    handler.NewSectionHandler(service.NewSectionService(sections, p, log)),
		Socials:     handler.NewSocialLinkHandler(service.NewSocialLinkService(socials, p, log)),
		Settings:    handler.NewSettingsHandler(service.NewSettingsService(settings, p, log)),
		Subscribers: handler.NewSubscriberHandler(service.NewSubscriberService(subscribers, settings, links, p, log)),
		Domains:     handler.NewDomainHandler(service.NewDomainService(domainRepo, provider, domains.NewDNSVerifier(cfg.DNSResolver), cfg.AppDomain, p, log)),
		Uploads:     handler.NewUploadHandler(service.NewUploadService(objects, cfg.PublicObjectURL, p, log)),
		Billing:     handler.NewBillingHandler(service.NewBillingService(stripeClient, subscriptions, prices, cfg.AppURL, p, log), log),
		Pages:       handler.NewPageHandler(assembler, cfg.AppURL, log),
		Health:      handler.NewHealthHandler(pool),
	}
	r := router.New(handlers, router.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins(),
		Redis:          rdb,
		RateLimit:      cfg.RateLimitPerMinute,
		Logger:         log,
	})

	// 7. HTTP servers
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	metricsSrv := metrics.NewServer(cfg.MetricsPort)

	go func() {
		log.Info().Str("addr", metricsSrv.Addr).Msg("Metrics server starting")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Listen failed")
		}
	}()

	// 8. Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info().Msg("Server shut down gracefully")
}
