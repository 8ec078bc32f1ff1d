package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/api"
	"github.com/gastro-elite/backend/internal/middleware"
)

// SetupRouter builds the engine with the shared middleware stack, the API
// routes and the Prometheus endpoint.
func SetupRouter(cfg *config.Config, services *api.Services) *gin.Engine {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(),
		middleware.ErrorHandler(services.Audit),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(router, services)

	return router
}
