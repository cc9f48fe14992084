// Package server assembles the Gin engine.
package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-console/internal/bootstrap"
	"compliance-console/internal/shared/config"
	"compliance-console/internal/shared/metrics"
	"compliance-console/internal/shared/server/middleware"
	"compliance-console/internal/shared/server/respond"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env == "production"),
	)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	app.RegisterRoutes(api)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// Addr formats the listen address for a port.
func Addr(port string) string {
	return ":" + port
}
