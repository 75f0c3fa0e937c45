package main

import (
	"context"
	"fleet-backend/config"
	"fleet-backend/database"
	"fleet-backend/handlers"
	"fleet-backend/middleware"
	"fleet-backend/services"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db := database.Connect(cfg.DatabaseURL, cfg.LogLevel)
	store := database.NewStore(db)

	// Connect to Redis (optional, won't crash if unavailable)
	redisClient := database.ConnectRedis(cfg.RedisURL)

	loc := cfg.Location()
	opts := []services.GeneratorOption{
		services.WithLocation(loc),
		services.WithNotifier(services.NewNotificationService(context.Background(), cfg)),
	}
	if redisClient != nil {
		opts = append(opts, services.WithRunLock(services.NewRedisRunLock(redisClient)))
	}
	generator := services.NewGenerator(
		store,
		services.NewTargetResolver(store),
		services.NewMaterializer(store),
		opts...,
	)

	h := handlers.New(store, store, store, generator, handlers.WithLocation(loc))

	r := setupRouter(h, cfg.AppName, cfg.JWTSecret, cfg.CronSecret)

	// Start server
	addr := "0.0.0.0:" + cfg.Port
	log.Printf("🚀 %s server listening on %s", cfg.AppName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(h *handlers.Handler, appName, jwtSecret, cronSecret string) *gin.Engine {
	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": appName,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==========================================
	// SCHEDULED TRIGGER
	// ==========================================
	r.OPTIONS("/functions/generate-automatic-activities", h.GeneratePreflight)
	r.POST("/functions/generate-automatic-activities", middleware.CronSecretRequired(cronSecret), h.GenerateAutomaticActivities)

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(jwtSecret))
	{
		// Automatic activities
		api.GET("/automatic-activities", h.ListAutomaticActivities)
		api.POST("/automatic-activities", h.CreateAutomaticActivity)
		api.GET("/automatic-activities/:id", h.GetAutomaticActivity)
		api.PUT("/automatic-activities/:id", h.UpdateAutomaticActivity)
		api.DELETE("/automatic-activities/:id", h.DeleteAutomaticActivity)

		// Activities
		api.GET("/activities", h.ListActivities)
		api.PATCH("/activities/:id/status", h.UpdateActivityStatus)
		api.DELETE("/activities/:id", h.DeleteActivity)

		// Expenses & revenues
		api.POST("/expenses", h.CreateExpense)
		api.GET("/expenses", h.ListExpenses)
		api.POST("/revenues", h.CreateRevenue)
		api.GET("/revenues", h.ListRevenues)
	}

	return r
}
