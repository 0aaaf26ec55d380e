package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/metrics"
	"bookshelf/internal/middleware"
	"bookshelf/internal/session"
	"bookshelf/internal/supabase"
)

// Services bundles everything the handlers need.
type Services struct {
	Config   *config.Config
	Gateway  *supabase.Client
	Sessions *session.Manager
	Catalog  *catalog.Engine
	Metrics  *metrics.Collector
}

func SetupRoutes(r *gin.Engine, svc *Services) {
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(svc.Config))
	r.Use(addServices(svc))
	r.Use(middleware.TrimSpaces())

	r.GET("/", middleware.AuthOptional(svc.Sessions), handleHome)
	r.POST("/login", middleware.AuthRateLimit(svc.Config), handleLogin)
	r.POST("/signup", middleware.AuthRateLimit(svc.Config), handleSignup)
	r.POST("/logout", middleware.AuthRequired(svc.Sessions), handleLogout)

	protected := r.Group("/")
	protected.Use(middleware.AuthRequired(svc.Sessions))
	protected.Use(middleware.CSRF(svc.Config, svc.Sessions))
	{
		protected.GET("/books", handleBooks)
		protected.GET("/books/:id/edit", handleEditBook)
		protected.POST("/books/:id", handleUpdateBook)

		protected.GET("/api/csrf-token", handleCSRFToken)
	}

	r.GET("/healthz", handleHealth)
	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
}

func addServices(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("services", svc)
		c.Next()
	}
}

func services(c *gin.Context) *Services {
	return c.MustGet("services").(*Services)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleCSRFToken(c *gin.Context) {
	svc := services(c)

	token, err := svc.Sessions.IssueCSRF(c.GetString("session_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}
