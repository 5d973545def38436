package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	accounttypeapp "github.com/crm/backend/internal/application/accounttype"
	financeapp "github.com/crm/backend/internal/application/finance"
	identityapp "github.com/crm/backend/internal/application/identity"
	leadapp "github.com/crm/backend/internal/application/lead"
	listviewapp "github.com/crm/backend/internal/application/listview"
	settingsapp "github.com/crm/backend/internal/application/settings"
	tradingapp "github.com/crm/backend/internal/application/trading"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/messaging"
	"github.com/crm/backend/internal/infrastructure/migration"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//	@title			CRM Backend API
//	@version		1.0
//	@description	Brokerage CRM: leads, clients, positions, transactions and configurable list views

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter("crm-backend")

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger: logger.NewGormLogger(log, cfg.Log.Level, cfg.Telemetry.DBSlowQueryThresh, false),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := prepareSchema(db, cfg.Database, log); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, db.Driver, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	log.Info("Database connected successfully")

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}

	var (
		blacklist auth.TokenBlacklist
		prefStore cache.Store
	)
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		prefStore = cache.NewRedisStore(redisClient, "crm:colprefs:")
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("Redis not configured, token revocation and caches are per-process")
		blacklist = auth.NewInMemoryTokenBlacklist()
		mem := cache.NewInMemoryStore(time.Minute)
		defer func() { _ = mem.Close() }()
		prefStore = mem
	}

	bus := event.NewInMemoryEventBus(log)
	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}
	bus.Subscribe(businessMetrics)

	publisher, err := messaging.NewPublisher(ctx, cfg.Messaging, log)
	if err != nil {
		log.Fatal("Failed to initialize message publisher", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()
	bus.SubscribeAsync(messaging.NewForwarder(publisher, cfg.App.Name, cfg.Messaging.PublishTimeout, log))

	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	viewOpts := []listviewapp.Option{listviewapp.WithExportRecorder(businessMetrics)}
	if cfg.Storage.Enabled {
		exports, err := storage.NewS3Storage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export storage", zap.Error(err))
		}
		if err := exports.EnsureBucket(ctx); err != nil {
			log.Fatal("Export bucket unavailable", zap.Error(err))
		}
		viewOpts = append(viewOpts, listviewapp.WithExportStore(exports))
		log.Info("Stored exports enabled", zap.String("bucket", exports.Bucket()))
	}

	// Repositories
	txManager := persistence.NewTxManager(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	entityRepo := persistence.NewGormEntityRepository(db.DB)
	accountTypeRepo := persistence.NewGormAccountTypeRepository(db.DB)
	positionRepo := persistence.NewGormPositionRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	gatewayRepo := persistence.NewGormGatewayRepository(db.DB)
	templateRepo := persistence.NewGormEmailTemplateRepository(db.DB)
	viewRepo := persistence.NewGormViewRepository(db.DB)
	prefRepo := cache.NewColumnPreferenceCache(
		persistence.NewGormColumnPreferenceRepository(db.DB), prefStore, cfg.Views.PreferenceCacheTTL, log)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, bus, businessMetrics, log)
	userService := identityapp.NewUserService(userRepo, jwtService, blacklist, bus, log)
	entityService := leadapp.NewEntityService(entityRepo, userRepo, accountTypeRepo, bus, log)
	importService := leadapp.NewImportService(entityService, log)
	positionService := tradingapp.NewPositionService(positionRepo, entityRepo, accountTypeRepo, txManager, bus, log)
	transactionService := financeapp.NewTransactionService(transactionRepo, entityRepo, gatewayRepo, txManager, cfg.Finance, bus, log)
	gatewayService := financeapp.NewGatewayService(gatewayRepo, log)
	accountTypeService := accounttypeapp.NewAccountTypeService(accountTypeRepo, entityRepo, log)
	templateService := settingsapp.NewTemplateService(templateRepo, entityRepo, log)
	viewService := listviewapp.NewListViewService(
		listviewapp.NewRegistry(),
		listviewapp.NewRepositorySources(entityRepo, positionRepo, transactionRepo, userRepo),
		viewRepo, prefRepo, cfg.Views, log, viewOpts...,
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	handlers := router.Handlers{
		System:      systemHandler,
		Auth:        handler.NewAuthHandler(authService),
		User:        handler.NewUserHandler(userService),
		Entity:      handler.NewEntityHandler(entityService),
		Import:      handler.NewImportHandler(importService),
		Position:    handler.NewPositionHandler(positionService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Gateway:     handler.NewGatewayHandler(gatewayService),
		AccountType: handler.NewAccountTypeHandler(accountTypeService),
		Template:    handler.NewTemplateHandler(templateService),
		View:        handler.NewViewHandler(viewService),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Warn("HTTP metrics disabled", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.SpanErrorMarker(),
		httpMetrics,
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	sweepers := make(chan struct{})
	defer close(sweepers)
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.RunSweeper(sweepers)
		engine.Use(middleware.RateLimit(limiter))
	}
	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.RateLimitWindow)
	go loginLimiter.RunSweeper(sweepers)

	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine)
	engine.GET(r.Prefix()+"/health", systemHandler.Health)
	r.Use(
		middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			Validator: authService,
			SkipPaths: router.PublicPaths(r.Prefix()),
			Logger:    log,
		}),
		middleware.TracingAttributeInjector(),
	)
	for _, group := range router.CRMRoutes(handlers, router.Policy{
		LoginLimit: middleware.RateLimit(loginLimiter),
		Logger:     log,
	}) {
		r.Register(group)
	}
	r.Setup()
	log.Info("Routes registered", zap.Int("count", len(r.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	_ = meterProvider.Shutdown(shutdownCtx)
	_ = tracerProvider.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// prepareSchema brings the schema up to date: SQL migrations on Postgres,
// model migration on sqlite
func prepareSchema(db *persistence.Database, cfg config.DatabaseConfig, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}

	// a separate handle, since closing the migrator closes its connection
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(conn, cfg.MigrationsPath, log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
