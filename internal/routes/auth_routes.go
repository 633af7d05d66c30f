package routes

import (
	"time"

	"cms0/internal/api/middleware"
	"cms0/internal/config"
	"cms0/internal/handlers"
	"cms0/internal/ratelimit"
	"cms0/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupAuthRoutes registers the public auth endpoints plus the authenticated
// /auth/me route. Login attempts share a redis sliding window (5 per minute
// per email); pass a nil redis client to disable throttling.
func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, users *services.UserService, rdb *redis.Client) {
	var limiter *ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.New(rdb, ratelimit.Config{
			Name:   "login",
			Window: time.Minute,
			Max:    5,
		})
	}

	authHandler := handlers.NewAuthHandler(db, users, limiter)

	base := e.Group("/api/v1")

	// Public auth routes group
	auth := base.Group("/auth")

	// Public routes (no auth required)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected auth routes (require authentication)
	protectedAuth := auth.Group("")
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	protectedAuth.Use(authMiddleware.Middleware())

	protectedAuth.GET("/me", authHandler.GetMe) // accessible to any authenticated user
}
