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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Emynex4real/innovateam-sub004/internal/config"
	"github.com/Emynex4real/innovateam-sub004/internal/handler"
	"github.com/Emynex4real/innovateam-sub004/internal/middleware"
	pgRepo "github.com/Emynex4real/innovateam-sub004/internal/repository/postgres"
	redisRepo "github.com/Emynex4real/innovateam-sub004/internal/repository/redis"
	"github.com/Emynex4real/innovateam-sub004/internal/service"
	"github.com/Emynex4real/innovateam-sub004/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	attemptRepo := pgRepo.NewAttemptRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Services
	limiter := service.NewRateLimiter(cacheRepo, service.RateLimitConfig{
		MaxRequests: cfg.RateLimit.MaxSubmissions,
		Window:      cfg.RateLimit.Window(),
		KeyPrefix:   "rl:scoring",
	})
	sessionService := service.NewSessionService(attemptRepo, limiter)
	leaderboardService := service.NewLeaderboardService(attemptRepo, cacheRepo, service.LeaderboardConfig{
		StreakPolicy: service.StreakPolicy(cfg.Leaderboard.StreakPolicy),
		CacheTTL:     time.Duration(cfg.Leaderboard.CacheTTLSec) * time.Second,
	})

	// Handlers and middleware
	attemptHandler := handler.NewAttemptHandler(sessionService, leaderboardService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.AccessTokenSecret)
	httpLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// Trusted proxies: in production don't trust proxy headers (IP spoofing
	// protection); in development trust localhost only.
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Scoring submissions: coarse per-IP guard first, then auth, then the
		// per-user limiter inside the session recorder.
		attempts := api.Group("/attempts")
		attempts.Use(httpLimiter.LimitByIP(middleware.DefaultWriteRateLimitConfig()))
		attempts.Use(authMiddleware.RequireAuth())
		{
			attempts.POST("", attemptHandler.SubmitAttempt)
		}

		// Leaderboard reads are public and unthrottled
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		api.GET("/leaderboard/champion", leaderboardHandler.GetWeeklyChampion)
		api.GET("/leaderboard/export", authMiddleware.RequireAuth(), leaderboardHandler.ExportLeaderboard)

		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me/streak", attemptHandler.GetMyStreak)
			users.GET("/me/attempts", attemptHandler.GetMyAttempts)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
