package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/tasagro-dev/tasagro/internal/config"
	"github.com/tasagro-dev/tasagro/internal/database"
	"github.com/tasagro-dev/tasagro/internal/geo"
	"github.com/tasagro-dev/tasagro/internal/handlers"
	"github.com/tasagro-dev/tasagro/internal/listings"
	"github.com/tasagro-dev/tasagro/internal/logger"
	"github.com/tasagro-dev/tasagro/internal/middleware"
	"github.com/tasagro-dev/tasagro/internal/services"
	"github.com/tasagro-dev/tasagro/internal/telemetry"
)

func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.GetLogger("main")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()

	// OpenTelemetry tracer
	ctx := context.Background()
	tracerShutdown, err := telemetry.InitTracer(ctx, "tasagro-api", cfg.SigNozEndpoint)
	if err != nil {
		log.Warnf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if tracerShutdown != nil {
			if err := tracerShutdown(ctx); err != nil {
				log.Warnf("error shutting down tracer: %v", err)
			}
		}
	}()

	// OpenTelemetry metrics
	meterShutdown, err := telemetry.InitMeter(ctx, "tasagro-api", cfg.SigNozEndpoint)
	if err != nil {
		log.Warnf("failed to initialize metrics: %v", err)
	}
	defer func() {
		if meterShutdown != nil {
			if err := meterShutdown(ctx); err != nil {
				log.Warnf("error shutting down metrics: %v", err)
			}
		}
	}()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Connection pool gauges
	poolCtx, poolCancel := context.WithCancel(ctx)
	defer poolCancel()
	go database.StartConnectionPoolMetricsCollector(poolCtx, db.DB, 30*time.Second)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TasAgro API",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     `{"time":"${time}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}","user_agent":"${ua}","error":"${error}"}` + "\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		TimeZone:   "America/Argentina/Buenos_Aires",
	}))
	app.Use(telemetry.New(telemetry.Config{
		ServiceName: "tasagro-api",
	}))
	app.Use(middleware.PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Accept, Accept-Encoding, Authorization, Content-Type, DNT, Origin, User-Agent, X-Requested-With",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length, Content-Type",
		MaxAge:           86400,
	}))

	setupRoutes(app, db, cfg)

	port := cfg.ServerPort
	if port == "" {
		port = "3000"
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Warnf("error shutting down server: %v", err)
		}
	}()

	log.Infof("server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, db *database.DB, cfg *config.Config) {
	// Health check endpoints for k8s probes
	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/v1/healthz", handlers.HealthCheck)
	app.Get("/v1/readiness", handlers.ReadinessCheck(db))
	app.Get("/v1/liveness", handlers.LivenessCheck)

	// Prometheus scrape endpoint
	app.Get("/metrics", middleware.PrometheusHandler())

	// Pipeline wiring
	cache := services.NewCacheService(db, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	geocache := services.NewGeocodeCacheService(db, time.Duration(cfg.GeocodeTTLHours)*time.Hour)
	searcher := listings.NewClient(cfg)

	var geocoder services.Locator
	if cfg.GeocodeEnabled {
		geocoder = geo.NewClient(cfg)
	}

	estimator := services.NewEstimationService(cache, geocache, searcher, geocoder)

	// API v1 group
	v1 := app.Group("/v1")

	tasaciones := v1.Group("/tasaciones")
	handlers.SetupEstimationRoutes(tasaciones, estimator)
}
