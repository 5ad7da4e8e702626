package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/captains-log/config"
	"github.com/ikkim/captains-log/internal/app/controller"
	"github.com/ikkim/captains-log/internal/middleware"
)

type Router struct {
	authController        *controller.AuthController
	explorationController *controller.ExplorationController
	archiveController     *controller.ArchiveController
	authMiddleware        *middleware.AuthMiddleware
	config                *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	explorationController *controller.ExplorationController,
	archiveController *controller.ArchiveController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:        authController,
		explorationController: explorationController,
		archiveController:     archiveController,
		authMiddleware:        authMiddleware,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Captain's Log API is running",
		})
	})

	auth := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", r.authController.Register)
		v1.POST("/login", r.authController.Login)
		v1.POST("/logout", auth, r.authController.Logout)
		v1.GET("/me", auth, r.authController.GetMe)
		v1.DELETE("/me", auth, r.authController.DeleteMe)

		reset := v1.Group("/reset_password")
		{
			reset.POST("", r.authController.RequestReset)
			reset.GET("/:token", r.authController.CheckResetToken)
			reset.POST("/:token", r.authController.ResetPassword)
		}

		explore := v1.Group("/explore", auth)
		{
			explore.GET("", r.explorationController.Current)
			explore.POST("", r.explorationController.Start)
			explore.GET("/:planet_id/discoveries/:number", r.explorationController.GetDiscovery)
			explore.POST("/:planet_id/discoveries/:number", r.explorationController.LogDiscovery)
			explore.POST("/:planet_id/name", r.explorationController.NamePlanet)
		}

		archive := v1.Group("/archive", auth)
		{
			archive.GET("", r.archiveController.List)
			archive.GET("/export", r.archiveController.Export)
			archive.GET("/:planet_id", r.archiveController.Get)
			archive.POST("/:planet_id/rename", r.archiveController.Rename)
			archive.POST("/:planet_id/delete", r.archiveController.Delete)
			archive.POST("/:planet_id/discoveries/:number/edit", r.archiveController.EditDiscovery)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
