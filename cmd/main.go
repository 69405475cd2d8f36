package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"retail-scraper-service/internal/config"
	"retail-scraper-service/internal/events"
	"retail-scraper-service/internal/handlers"
	"retail-scraper-service/internal/middleware"
	"retail-scraper-service/internal/repository"
	"retail-scraper-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Retail Scraper Catalog API
// @version 1.0.0
// @description Product catalog and bulk CSV import service for scraped retail products

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Redis backs the read cache and the import run history
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (falling back to localhost)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	var runStore repository.ImportRunStore
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching and import history disabled)", err)
		redisClient = nil
	} else {
		runStore = repository.NewRedisImportRunStore(redisClient, cfg.ImportRunTTL)
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	catalogRepo := repository.NewCatalogRepository(db, redisClient)

	// Import events are only published when NATS_URL is set
	var publisher services.ImportEventPublisher
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, cfg.EventsTenantID, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			publisher = eventsPublisher
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	importService := services.NewImportService(catalogRepo, runStore, publisher, logger)
	exportService := services.NewExportService(catalogRepo)

	importHandler := handlers.NewImportHandler(importService, cfg.ImportDir, cfg.MaxImportFileMB, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, exportService, cfg.DefaultPageSize, cfg.MaxPageSize)

	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("retail-scraper-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("retail-scraper-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	metrics := gosharedmw.InitGlobalMetrics("tesseract", "retail_scraper_service")

	rbacMw := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("retail-scraper-service"))
	router.Use(gosharedmw.CompressionMiddleware())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")

	// In development: DevelopmentAuthMiddleware for local testing
	// Otherwise: IstioAuth reading x-jwt-claim-* headers, with X-* header fallback
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true,
			Logger:             logrus.NewEntry(logger).WithField("component", "istio_auth"),
		}))
	}

	products := api.Group("/products")
	{
		products.GET("", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetProducts)
		products.GET("/:id", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetProduct)

		// Import/Export
		products.GET("/export", rbacMw.RequirePermission(rbac.PermissionProductsExport), catalogHandler.ExportProducts)
		products.GET("/import/template", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportTemplate)
		products.POST("/import", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.ImportProducts)
		products.GET("/import/runs/:id", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportRun)
	}

	retailers := api.Group("/retailers")
	{
		retailers.GET("", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetRetailers)
		retailers.POST("", rbacMw.RequirePermission(rbac.PermissionProductsCreate), catalogHandler.CreateRetailer)
	}

	api.GET("/pack-sizes", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetPackSizes)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Retail scraper service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down retail-scraper-service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}

	log.Println("Retail scraper service stopped")
}
