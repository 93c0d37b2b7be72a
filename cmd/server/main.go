package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/luizbraga/baseapi/internal/audit"
	"github.com/luizbraga/baseapi/internal/config"
	"github.com/luizbraga/baseapi/internal/database"
	"github.com/luizbraga/baseapi/internal/handler"
	"github.com/luizbraga/baseapi/internal/middleware"
	"github.com/luizbraga/baseapi/internal/repository"
	"github.com/luizbraga/baseapi/internal/service"
	"github.com/luizbraga/baseapi/internal/session"
	"github.com/luizbraga/baseapi/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	isProduction := cfg.Environment == "production"
	if err := logger.Init(!isProduction); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Audit log for auth events
	auditLog, err := audit.NewLog(cfg.AuditLogPath)
	if err != nil {
		log.Fatalf("Failed to initialize audit log: %v", err)
	}
	defer auditLog.Close()

	// Redis backs both the session store and the login throttle
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	sessionStore := session.NewRedisStoreFromClient(redisClient)

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	tokenRepo := repository.NewTokenRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.Environment)
	tokenService := service.NewTokenService(tokenRepo, sessionStore, cfg.SessionTTL)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, tokenService, auditLog)
	userHandler := handler.NewUserHandler(authService, tokenService, auditLog)

	loginLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: cfg.LoginRateLimitMaxRequests,
		Window:      cfg.LoginRateLimitWindow,
	})

	// Setup Gin router
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(isProduction))

	// Public routes
	router.POST("/api/auth/login", loginLimiter.Middleware(), authHandler.Login)

	// Protected routes (require a bearer token)
	protected := router.Group("/api")
	protected.Use(middleware.TokenAuthMiddleware(tokenRepo))
	{
		protected.GET("/users/me", userHandler.Me)

		staff := protected.Group("")
		staff.Use(middleware.StaffMiddleware())
		{
			staff.GET("/users", userHandler.ListUsers)
			staff.POST("/users", userHandler.CreateUser)
			staff.POST("/users/:id/deactivate", userHandler.Deactivate)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
