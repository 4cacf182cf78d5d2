package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/fitspace/backend-fitspace/internal/attendance"
	"github.com/fitspace/backend-fitspace/internal/auth"
	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/cart"
	"github.com/fitspace/backend-fitspace/internal/config"
	"github.com/fitspace/backend-fitspace/internal/db"
	"github.com/fitspace/backend-fitspace/internal/events"
	"github.com/fitspace/backend-fitspace/internal/health"
	"github.com/fitspace/backend-fitspace/internal/lock"
	"github.com/fitspace/backend-fitspace/internal/obs"
	"github.com/fitspace/backend-fitspace/internal/payment"
	"github.com/fitspace/backend-fitspace/internal/purchase"
	"github.com/fitspace/backend-fitspace/internal/repo"
	"github.com/fitspace/backend-fitspace/internal/subscription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "fitspace")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "fitspace-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "fitspace-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	catalogRepo := repo.CatalogRepo{Pool: pool}
	bus := &events.Bus{
		Store:     repo.EventRepo{Pool: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	billingSvc := &billing.Service{
		Store:                repo.BillingRepo{Pool: pool},
		Catalog:              catalogRepo,
		DefaultPaymentMethod: cfg.DefaultPaymentMethod,
		TaxBps:               cfg.TaxBps,
	}
	billingHandler := &billing.Handler{Svc: billingSvc}

	subsSvc := &subscription.Service{
		Store:   repo.SubscriptionRepo{Pool: pool},
		Catalog: catalogRepo,
	}
	subsHandler := &subscription.Handler{Svc: subsSvc}

	cartSvc := &cart.Service{
		Store:   repo.CartRepo{Pool: pool},
		Catalog: catalogRepo,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validate}

	confirmations := payment.ConfirmationStore{R: redisClient}
	paymentWebhook := payment.Webhook{Store: confirmations}

	purchaseSvc := &purchase.Service{
		Carts:    cartSvc,
		Billing:  billingSvc,
		Subs:     subsSvc,
		Payments: confirmations,
		Events:   bus,
		Locker:   lock.Locker{R: redisClient, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL:  cfg.PurchaseLockTTL,
		Logger:   logger,
	}
	purchaseHandler := &purchase.Handler{Svc: purchaseSvc, Validate: validate}

	attendanceSvc := &attendance.Service{
		Store:  repo.AttendanceRepo{Pool: pool},
		Access: subsSvc,
	}
	attendanceHandler := &attendance.Handler{Svc: attendanceSvc, Validate: validate}

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise token verifier")
	}
	authMiddleware := auth.Middleware{Verifier: verifier}

	purchaseLimiter, err := newPurchaseLimiter(redisClient, cfg.RateLimitPurchase)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Group(func(member chi.Router) {
			member.Use(authMiddleware.RequireAuth)

			member.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Post("/items", cartHandler.AddItem)
				c.Delete("/items/{itemID}", cartHandler.RemoveItem)
			})

			member.Route("/purchases", func(p chi.Router) {
				p.Use(purchaseLimiter)
				p.Post("/all", purchaseHandler.PurchaseAll)
				p.Post("/some", purchaseHandler.PurchaseSome)
				p.Post("/renew/{subscriptionID}", purchaseHandler.Renew)
			})

			member.Get("/bills", billingHandler.List)
			member.Get("/bills/{billID}", billingHandler.Get)

			member.Get("/subscriptions/{subscriptionID}", subsHandler.Get)
			member.Post("/subscriptions/{subscriptionID}/check-expiry", subsHandler.CheckExpiry)
			member.Get("/facilities/{facilityID}/access", subsHandler.Access)

			member.Post("/attendances", attendanceHandler.Record)
			member.Get("/attendances", attendanceHandler.History)

			member.Post("/payments/confirm", paymentWebhook.Confirm)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func newPurchaseLimiter(rdb *redis.Client, format string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit:purchase",
	})
	if err != nil {
		return nil, err
	}
	return limiterstdlib.NewMiddleware(limiter.New(store, rate)).Handler, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
