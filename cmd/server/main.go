// CakeVision backend: orchestrates AI cake-image generation against an
// external gateway, persists kept images to Supabase (Postgres + Storage),
// and serves the gallery, entitlement, and holiday-sale endpoints behind
// Supabase JWT auth.
package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"cakevision-backend/internal/config"
	"cakevision-backend/internal/database"
	"cakevision-backend/internal/gateway"
	"cakevision-backend/internal/handlers"
	"cakevision-backend/internal/mailer"
	"cakevision-backend/internal/middleware"
	"cakevision-backend/internal/services"
	"cakevision-backend/internal/supabase"
	"cakevision-backend/internal/tasks"

	"cakevision-backend/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slogger := logger.New()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// AI gateway client
	gatewayClient := gateway.NewClient(
		cfg.GatewayBaseURL, cfg.GatewayAPIKey,
		cfg.ImageModelFast, cfg.ImageModelHigh, cfg.TextModel,
		slogger,
	)

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Direct database connection for queries and migrations
	var dbClient *supabase.DatabaseClient
	if cfg.DatabaseURL == "" {
		slogger.Warn("DATABASE_URL not set; persistence, quotas and sales are disabled")
	} else {
		dbClient, err = supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database client: %v", err)
		}
		defer dbClient.Close()

		migrator, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize migrator: %v", err)
		}
		defer migrator.Close()
		if err := migrator.Run(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slogger.Info("migrations completed")
	}

	// Redis is an optional cache in front of holiday-sale resolution
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	mailClient := mailer.NewClient("", cfg.ResendAPIKey, cfg.EmailFrom, slogger)

	// A nil *DatabaseClient stored in an interface is not a nil interface,
	// so the store interfaces are only assigned when the database is up.
	var (
		entitlementStore services.EntitlementStore
		imageStore       services.ImageStore
		saleStore        services.SaleStore
		galleryStore     handlers.GalleryStore
		saleAdminStore   handlers.SaleAdminStore
		premiumStore     handlers.PremiumStore
	)
	if dbClient != nil {
		entitlementStore = dbClient
		imageStore = dbClient
		saleStore = dbClient
		galleryStore = dbClient
		saleAdminStore = dbClient
		premiumStore = dbClient
	}

	// Services
	entitlementService := services.NewEntitlementService(entitlementStore, cfg.FreeLifetimeLimit, cfg.PremiumYearlyLimit, slogger)
	saveService := services.NewSaveService(imageStore, storageClient, realtimeClient, slogger)
	saleResolver := services.NewSaleResolver(saleStore, redisClient, slogger)

	// Handlers
	generateHandler := handlers.NewGenerateHandler(gatewayClient, entitlementService, cfg.GenerationTimeout, slogger)
	imagesHandler := handlers.NewImagesHandler(saveService, galleryStore, slogger)
	profilesHandler := handlers.NewProfilesHandler(entitlementService, slogger)
	salesHandler := handlers.NewSalesHandler(saleResolver, saleAdminStore, slogger)
	webhookHandler := handlers.NewPaymentsWebhookHandler(cfg, premiumStore, mailClient, realtimeClient, slogger)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Client-Info", "apikey"},
	}))

	router.GET("/health", handlers.HealthHandler)

	// Public marketing endpoint
	router.GET("/api/v1/sales/active", salesHandler.GetActiveSale)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/cakes/generate", generateHandler.Generate)

	api.POST("/images", imagesHandler.SaveImage)
	api.GET("/images", imagesHandler.ListImages)
	api.PATCH("/images/:image_id/featured", imagesHandler.FeatureImage)
	api.DELETE("/images/:image_id", imagesHandler.DeleteImage)

	api.GET("/profile", profilesHandler.GetProfile)

	api.GET("/admin/sales", salesHandler.ListSales)
	api.POST("/admin/sales", salesHandler.CreateSale)
	api.PUT("/admin/sales/:sale_id", salesHandler.UpdateSale)
	api.DELETE("/admin/sales/:sale_id", salesHandler.DeleteSale)

	// Webhook (no JWT, shared token)
	router.POST("/api/v1/webhooks/payments", webhookHandler.HandleWebhook)

	// Background jobs
	if dbClient != nil {
		scheduler := tasks.NewScheduler(dbClient, slogger)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	slogger.Info("server starting", "port", port, "environment", cfg.Environment)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
