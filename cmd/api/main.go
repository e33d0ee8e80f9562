package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kartik7310/ProductHub/internal/config"
	"github.com/kartik7310/ProductHub/internal/modules/auth"
	"github.com/kartik7310/ProductHub/internal/modules/cart"
	"github.com/kartik7310/ProductHub/internal/modules/catalog"
	"github.com/kartik7310/ProductHub/internal/modules/inventory"
	"github.com/kartik7310/ProductHub/internal/modules/order"
	"github.com/kartik7310/ProductHub/internal/modules/payment"
	"github.com/kartik7310/ProductHub/internal/modules/user"
	"github.com/kartik7310/ProductHub/internal/observability"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger("producthub-api")
	defer log.Sync()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}
	log.Info("connected to database")

	// ── Router ──────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ── Identity ────────────────────────────────────────────
	authCfg := auth.Config{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, authCfg)
	authMw := auth.NewMiddleware(authCfg)
	requireAuth := authMw.RequireAuth
	requireAdmin := func(next http.Handler) http.Handler {
		return requireAuth(authMw.RequireAdmin(next))
	}

	auth.NewHandler(authService).RegisterRoutes(router)
	user.NewHandler(userService).RegisterRoutes(router, requireAuth)

	ledger := inventory.NewLedger()

	// ── Catalog & carts ─────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, ledger, db)
	catalog.NewHandler(catalogService).RegisterRoutes(router, requireAdmin)

	cartRepo := cart.NewPostgresRepository(db)
	cart.NewHandler(cartRepo).RegisterRoutes(router, requireAuth)

	// ── Order & payment transaction engine ──────────────────
	orderRepo := order.NewPostgresRepository(db, ledger)
	orderService := order.NewService(orderRepo, catalogRepo, cartRepo, log)
	order.NewHandler(orderService).RegisterRoutes(router, requireAuth)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeBaseURL, cfg.StripeTimeout)
	paymentRepo := payment.NewPostgresRepository(db, cartRepo)
	paymentService := payment.NewService(paymentRepo, orderService, gateway, log)
	payment.NewHandler(paymentService).RegisterRoutes(router, requireAuth)

	// ── Start server ────────────────────────────────────────
	log.Info("ProductHub API listening", zap.String("port", cfg.AppPort))
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
