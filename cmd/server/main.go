package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/openbook/backend/internal/auth"
	"github.com/openbook/backend/internal/cache"
	"github.com/openbook/backend/internal/config"
	"github.com/openbook/backend/internal/database"
	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/handlers"
	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/metrics"
	"github.com/openbook/backend/internal/middleware"
	"github.com/openbook/backend/internal/openlibrary"
	"github.com/openbook/backend/internal/recommendations"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	metrics.Initialize()

	log.Println("=== OpenBook server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Fatalf("JWT_SECRET environment variable is required")
	}

	authService := auth.NewService(jwtSecret, database.DB)
	favoritesStore := favorites.NewGormStore(database.DB)
	books := openlibrary.NewClient(cfg.OpenLibraryBaseURL, cfg.CoverBaseURL, cfg.DefaultCoverPath)

	tuning := recommendations.DefaultTuning()
	tuning.CacheTTL = cfg.Recommendations.CacheTTL
	tuning.AuthorPassWeight = cfg.Recommendations.AuthorPassWeight
	tuning.SubjectPassWeight = cfg.Recommendations.SubjectPassWeight
	tuning.PopularPassWeight = cfg.Recommendations.PopularPassWeight
	tuning.AuthorMatchWeight = cfg.Recommendations.AuthorMatchWeight
	tuning.SubjectMatchWeight = cfg.Recommendations.SubjectMatchWeight
	tuning.DecadeMatchWeight = cfg.Recommendations.DecadeMatchWeight

	// Recommendation cache: Redis when configured, in-memory otherwise.
	var recCache recommendations.Cache = recommendations.NewMemoryCache(tuning.CacheTTL)
	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			log.Printf("Warning: Redis unavailable, using in-memory recommendation cache: %v", err)
		} else {
			defer redisClient.Close()
			recCache = recommendations.NewRedisCache(redisClient, tuning.CacheTTL)
		}
	}

	engine := recommendations.NewEngine(favoritesStore, books, recCache, tuning, nil)
	h := handlers.NewHandlers(authService, favoritesStore, books, engine)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.GinLogger())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := database.Health(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		}
		c.JSON(status, gin.H{
			"status":    dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   "openbook-backend",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		// Authentication routes (public, strictly rate limited)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitAuth())
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.Me)
		}

		// Book catalog routes (public; proxied to OpenLibrary, so bound
		// tighter than the rest of the API)
		booksGroup := api.Group("/books")
		booksGroup.Use(middleware.RateLimitSearch())
		{
			booksGroup.GET("/search", h.SearchBooks)
			booksGroup.GET("/subject/:subject", h.GetBooksBySubject)
			booksGroup.GET("/:id", h.GetBook)
		}

		// Favorite routes
		favGroup := api.Group("/favorites")
		{
			favGroup.Use(h.AuthMiddleware())
			favGroup.GET("", h.GetFavorites)
			favGroup.POST("", h.AddFavorite)
			favGroup.DELETE("/:bookId", h.RemoveFavorite)
		}

		// Recommendation routes
		recGroup := api.Group("/recommendations")
		{
			recGroup.Use(h.AuthMiddleware())
			recGroup.GET("", h.GetRecommendations)
			recGroup.GET("/profile", h.GetRecommendationProfile)
			recGroup.DELETE("/cache", h.ClearRecommendationCache)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("📚 OpenBook backend starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
