package api

import (
	"net/http"

	"cms0/internal/api/middleware"
	"cms0/internal/api/registry"
	"cms0/internal/routes"

	_ "cms0/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "cms0")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group: authentication first, then the permission guard
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret)
	api.Use(auth.Middleware())
	api.Use(s.guard.Middleware())

	// Register guarded CRUD routes for all models
	registry.RegisterCRUDRoutes(api, s.db, s.guard, s.roles, s.users)

	routes.SetupUploadRoutes(api, s.config, s.uploader)
}
