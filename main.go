package main

import (
	"fmt"
	"log"
	"os"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"REDIS_URL",
		"JWT_SECRET_KEY",
		"PORT",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	// Initialize JWT
	utils.InitJWT()
	// Initialize MongoDB connection
	utils.InitMongoClient()
}

func setupRouter(cfg config.PresenceConfig, cache *services.PresenceCache, audit *services.AuditSink) *gin.Engine {
	// Create default gin router
	router := gin.Default()

	// Initialize repositories
	presenceRepo := repository.GetPresenceRepo(utils.MongoClient)
	accessModeRepo := repository.GetAccessModeRepo(utils.MongoClient)
	adminRepo := repository.GetAdminRepo(utils.MongoClient)
	alertRepo := repository.GetAttackAlertRepo(utils.MongoClient)

	// Initialize services
	presenceService := &usecase.PresenceService{
		PresenceRepo:   presenceRepo,
		AdminRepo:      adminRepo,
		Cache:          cache,
		SessionTimeout: cfg.SessionTimeout,
	}
	accessService := &usecase.AccessModeService{
		ModeRepo:     accessModeRepo,
		PresenceRepo: presenceRepo,
		Cache:        cache,
		Audit:        audit,
		BatchSize:    cfg.PurgeBatchSize,
	}

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestSizeLimiter(1 << 20))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Authenticated routes behind the single-user gate
	api := router.Group("/api")
	api.Use(middleware.NoStoreMiddleware())
	api.Use(middleware.AuthMiddleware())
	api.Use(middleware.SingleUserGateMiddleware(accessModeRepo))
	{
		presence := api.Group("/presence")
		{
			presence.POST("/heartbeat", func(c *gin.Context) {
				handler.HeartbeatHandler(c, presenceRepo)
			})
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/presence", func(c *gin.Context) {
				handler.GetActivePresence(c, presenceService)
			})
			admin.GET("/attack-alerts", func(c *gin.Context) {
				handler.ListAttackAlerts(c, alertRepo)
			})
			admin.POST("/attack-alerts/:id/acknowledge", func(c *gin.Context) {
				handler.AcknowledgeAttackAlert(c, alertRepo, audit)
			})
			admin.GET("/status", func(c *gin.Context) {
				handler.GetSystemStatus(c, cache)
			})
		}
	}

	// The access mode control surface sits outside the gate so any
	// administrator can always read the mode and deactivate it.
	control := router.Group("/api/admin/access-mode")
	control.Use(middleware.NoStoreMiddleware())
	control.Use(middleware.AuthMiddleware())
	control.Use(middleware.RequireAdmin())
	{
		control.GET("", func(c *gin.Context) {
			handler.GetAccessMode(c, accessService)
		})
		control.POST("/activate", func(c *gin.Context) {
			handler.ActivateSingleUserMode(c, accessService, adminRepo)
		})
		control.POST("/deactivate", func(c *gin.Context) {
			handler.DeactivateSingleUserMode(c, accessService, adminRepo)
		})
	}

	return router
}

func main() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("pin", utils.ValidatePINRule)
	}

	cfg := config.LoadPresenceConfig()

	if err := repository.SetupIndexes(utils.MongoClient.Database(os.Getenv("MONGO_DB"))); err != nil {
		log.Printf("Warning: failed to create indexes: %v", err)
	}

	cache, err := services.NewPresenceCache(os.Getenv("REDIS_URL"), cfg.SnapshotTTL, cfg.SnapshotStaleAfter)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	auditRepo := repository.GetAuditRepo(utils.MongoClient)
	audit := services.NewAuditSink(auditRepo, cfg.AuditQueueSize)
	defer audit.Close()

	router := setupRouter(cfg, cache, audit)

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
