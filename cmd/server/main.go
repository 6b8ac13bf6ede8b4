package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
	"github.com/Lixing-Zhang/storefront/internal/config"
	"github.com/Lixing-Zhang/storefront/internal/coupon"
	"github.com/Lixing-Zhang/storefront/internal/handlers"
	"github.com/Lixing-Zhang/storefront/internal/metrics"
	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/receipt"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// corsOptions lets the view layer send credentials and the upstream CSRF
// header that middleware.ForwardSession passes on.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", upstream.HeaderCSRFToken, "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func main() {
	// Load configuration from environment and flags
	cfg, err := config.LoadWithArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"upstream", cfg.Upstream.BaseURL,
		"log_level", cfg.LogLevel,
		"version", version,
	)

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          version,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized", "environment", cfg.Sentry.Environment)
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	api := upstream.New(cfg.Upstream.BaseURL, cfg.UpstreamTimeout(), log)

	healthHandler := handlers.NewHealthHandler(log, version)

	// Flow sessions live in Redis when configured, in memory otherwise
	var flows repository.FlowRepository
	if cfg.Session.RedisURL != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		flows = repository.NewRedisFlowRepository(rdb, cfg.SessionTTL(), cfg.SubmitLockTTL())
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info("flow sessions stored in redis")
	} else {
		memory := repository.NewInMemoryFlowRepository(cfg.SessionTTL(), cfg.SubmitLockTTL())
		go memory.Cleanup(ctx, time.Minute)
		flows = memory
		log.Info("flow sessions stored in memory")
	}

	// Initialize services
	checkoutService := service.NewCheckoutService(api, m, log)
	catalogService := service.NewCatalogService(api, coupon.NewFormValidator(), log)
	bulkService := service.NewBulkService(api, catalogService, m, log)

	pollDeadline := time.Duration(cfg.Receipt.PollDeadline) * time.Second
	poller := receipt.NewPoller(api, time.Duration(cfg.Receipt.PollInterval)*time.Second, pollDeadline, log).
		WithObserver(m)

	routes := authflow.DefaultRoutes()
	routes.Dashboard = cfg.Server.DashboardURL

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(flows, api, routes, m, log)
	cartHandler := handlers.NewCartHandler(checkoutService, log)
	b2bHandler := handlers.NewB2BHandler(bulkService, poller, pollDeadline, log)
	productHandler := handlers.NewProductHandler(catalogService, log)
	couponHandler := handlers.NewCouponHandler(catalogService, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.SubmitsPerMinute, cfg.RateLimit.Burst)
	go limiter.Cleanup(ctx, 3*time.Minute)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Instrument(log, m))
	r.Use(chimiddleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)

	// CORS configuration
	r.Use(cors.Handler(corsOptions(cfg.CORS.AllowedOrigins)))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", m.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ForwardSession)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))

			// Auth flow endpoints
			r.Route("/auth", func(r chi.Router) {
				r.Get("/state", authHandler.GetState)
				r.With(limiter.Limit).Post("/login/email", authHandler.LoginEmail)
				r.With(limiter.Limit).Post("/login/password", authHandler.LoginPassword)
				r.With(limiter.Limit).Post("/register/email", authHandler.RegisterEmail)
				r.With(limiter.Limit).Post("/register/confirm", authHandler.RegisterConfirm)
				r.With(limiter.Limit).Post("/register/details", authHandler.RegisterDetails)
				r.With(limiter.Limit).Post("/register/extra", authHandler.RegisterExtra)
			})

			// Cart and checkout endpoints
			r.Get("/cart", cartHandler.GetCart)
			r.With(limiter.Limit).Post("/cart/coupon", cartHandler.ApplyCoupon)
			r.With(limiter.Limit).Post("/cart/run", cartHandler.SelectRun)
			r.With(limiter.Limit).Post("/cart/consents", cartHandler.AcceptConsents)
			r.With(limiter.Limit).Post("/checkout", cartHandler.Checkout)

			// Bulk purchase endpoints
			r.Get("/b2b/quote", b2bHandler.Quote)
			r.With(limiter.Limit).Post("/b2b/checkout", b2bHandler.Checkout)

			// Admin endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.APIKeyAuth(cfg.Auth))
				r.Get("/products", productHandler.ListProducts)
				r.Get("/products/{productId}", productHandler.GetProduct)
				r.Get("/companies", productHandler.ListCompanies)
				r.Post("/coupons", couponHandler.CreateCoupons)
			})
		})

		// The receipt long-poll outlives the request timeout
		r.Get("/b2b/orders/{hash}/receipt", b2bHandler.Receipt)
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
