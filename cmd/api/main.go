package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-pustaka/internal/auth"
	"github.com/noah-isme/backend-pustaka/internal/cart"
	"github.com/noah-isme/backend-pustaka/internal/catalog"
	"github.com/noah-isme/backend-pustaka/internal/checkout"
	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/config"
	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/health"
	"github.com/noah-isme/backend-pustaka/internal/notify"
	"github.com/noah-isme/backend-pustaka/internal/obs"
	"github.com/noah-isme/backend-pustaka/internal/order"
	"github.com/noah-isme/backend-pustaka/internal/payment"
	"github.com/noah-isme/backend-pustaka/internal/promo"
	"github.com/noah-isme/backend-pustaka/internal/ratelimit"
	"github.com/noah-isme/backend-pustaka/internal/reader"
	"github.com/noah-isme/backend-pustaka/internal/reviews"
	"github.com/noah-isme/backend-pustaka/internal/royalty"
	"github.com/noah-isme/backend-pustaka/internal/security"
	"github.com/noah-isme/backend-pustaka/internal/store"
	"github.com/noah-isme/backend-pustaka/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pustaka")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pustaka-api",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if envBool("DB_AUTO_MIGRATE", true) {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pustaka-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := store.New(pool)

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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close asynq client")
		}
	}()

	validate := validator.New()

	authService, err := auth.NewService(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: cfg.JWTClockSkew,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authService}

	emailNotifier := notify.EmailNotifier{
		Mail:    common.NopEmailSender{},
		Enabled: cfg.EmailEnabled,
		From:    cfg.EmailFrom,
	}
	inboxNotifier := notify.InboxNotifier{Q: queries}
	bus := &events.Bus{
		Store:     queries,
		Notifiers: []events.Notifier{emailNotifier, inboxNotifier},
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})
	catalogAdmin := &catalog.AdminHandler{Q: queries, Svc: catalogService, Validate: validate}

	promoSvc := &promo.Service{Q: queries}
	promoHandler := &promo.Handler{Q: queries, Svc: promoSvc, Validate: validate}

	cartSvc := &cart.Service{Q: queries, Promo: promoSvc, TTL: cfg.CartTTL}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{
		Q:        queries,
		Pool:     pool,
		Promo:    promoSvc,
		Tax:      checkout.FlatRate{Bps: cfg.TaxBps},
		Events:   bus,
		Currency: cfg.DefaultCurrency,
		Log:      logger,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: validate}

	orderSvc := &order.Service{Q: queries, Log: logger}
	orderHandler := &order.Handler{Q: queries, Svc: orderSvc}
	orderAdmin := &order.AdminHandler{Svc: orderSvc}

	providers := map[string]payment.Provider{
		"stripe": payment.Stripe{
			SigningSecret: cfg.PaymentSigningSecret,
			BaseURL:       cfg.PaymentBaseURL,
			Sandbox:       cfg.PaymentSandbox,
			Tolerance:     cfg.WebhookTolerance,
		},
	}
	activeProvider := providers[cfg.PaymentProvider]
	if activeProvider == nil {
		activeProvider = providers["stripe"]
	}
	paymentSvc := &payment.Service{Q: queries, Provider: activeProvider, Log: logger}
	paymentHandler := &payment.Handler{Svc: paymentSvc}
	webhookHandler := payment.Webhook{
		Q:         queries,
		Pool:      pool,
		Providers: providers,
		Replay:    redisClient,
		ReplayTTL: cfg.WebhookReplayTTL,
		Promo:     promoSvc,
		Royalty:   royalty.Enqueuer{Client: asynqClient},
		Events:    bus,
		Log:       logger,
	}

	reviewHandler := &reviews.Handler{Q: queries, Events: bus, Validate: validate}
	readerHandler := &reader.Handler{Q: queries, Validate: validate}
	walletHandler := &wallet.Handler{Q: queries}
	inboxHandler := &notify.Handler{Q: queries}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	checkoutLimiter, err := ratelimit.NewRedisLimiter(redisClient, "ratelimit:checkout",
		ratelimit.ParseRate(cfg.CheckoutRateLimit, limiter.Rate{Period: time.Minute, Limit: 10}))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise checkout limiter")
	}
	paymentLimiter, err := ratelimit.NewRedisLimiter(redisClient, "ratelimit:payment",
		ratelimit.ParseRate(cfg.PaymentRateLimit, limiter.Rate{Period: time.Minute, Limit: 30}))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise payment limiter")
	}
	limitErr := func(err error) { logger.Error().Err(err).Msg("rate limit store") }
	checkoutLimit := ratelimit.Handler{Limiter: checkoutLimiter, Key: ratelimit.KeyByUserOrIP, OnError: limitErr}
	paymentLimit := ratelimit.Handler{Limiter: paymentLimiter, Key: ratelimit.KeyByUserOrIP, OnError: limitErr}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS", true),
		EnableHSTS: envBool("SECURE_HSTS", cfg.AppEnv == "production"),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cart.TokenHeader},
		ExposedHeaders:   []string{"Link", "X-Total-Count", cart.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/books", catalogHandler.Books)
		v.Get("/books/{slug}", catalogHandler.BookDetail)
		v.Get("/books/{bookId}/reviews", reviewHandler.List)

		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.Authenticate)
			c.Get("/", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items/{bookId}", cartHandler.SetItemQty)
				g.Delete("/items/{bookId}", cartHandler.RemoveItem)
				g.Post("/promo", cartHandler.ApplyPromo)
				g.Delete("/promo", cartHandler.RemovePromo)
				g.With(authMiddleware.RequireAuth).Post("/merge", cartHandler.Merge)
			})
		})

		v.With(authMiddleware.RequireAuth, idem.Middleware, checkoutLimit.Middleware).
			Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(authed chi.Router) {
			authed.Use(authMiddleware.RequireAuth)
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{orderId}", orderHandler.Get)
			authed.Post("/orders/{orderId}/cancel", orderHandler.Cancel)

			authed.Put("/books/{bookId}/review", reviewHandler.Upsert)
			authed.Get("/books/{bookId}/progress", readerHandler.Get)
			authed.Put("/books/{bookId}/progress", readerHandler.Put)

			authed.Get("/author/wallet", walletHandler.Get)
			authed.Get("/author/royalties", walletHandler.Royalties)

			authed.Get("/notifications", inboxHandler.List)
			authed.Post("/notifications/{notificationId}/read", inboxHandler.MarkRead)
		})

		v.Route("/payments", func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)
			p.With(idem.Middleware, paymentLimit.Middleware).Post("/intent", paymentHandler.CreateIntent)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireRole("admin"))
			admin.Post("/promos", promoHandler.Create)
			admin.Put("/promos/{code}", promoHandler.Update)
			admin.Post("/promos/preview", promoHandler.Preview)
			admin.Patch("/orders/{orderId}/status", orderAdmin.PatchStatus)
			admin.Put("/books/{bookId}/pricing", catalogAdmin.UpdatePricing)
		})

		v.Post("/webhooks/payment/{provider}", webhookHandler.Handle)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
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

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
