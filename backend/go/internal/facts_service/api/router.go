package api

import (
	"github.com/gin-gonic/gin"

	"country_facts/backend/go/internal/config"
	"country_facts/backend/go/pkg/httpmiddleware"
	"country_facts/backend/go/pkg/logger"
	"country_facts/backend/go/pkg/ratelimiter"
)

// NewRouter builds the gin engine with the project middleware. limiter may be
// nil, in which case requests are not rate limited.
func NewRouter(api *API, cors config.CORSConfig, limiter ratelimiter.KeyedLimiter, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		httpmiddleware.RequestID(log),
		httpmiddleware.AccessLog(log),
		httpmiddleware.Recovery(log),
	)
	if cors.Enabled {
		router.Use(httpmiddleware.CORS(cors.AllowedOrigins))
	}
	RegisterRoutes(router, api, limiter, log)
	return router
}

// RegisterRoutes registers all the routes for the facts service. Only the
// generation endpoints are rate limited.
func RegisterRoutes(router *gin.Engine, api *API, limiter ratelimiter.KeyedLimiter, log *logger.Logger) {
	router.GET("/health", api.HealthHandler)

	limited := router.Group("/")
	if limiter != nil {
		limited.Use(httpmiddleware.RateLimit(limiter, log))
	}
	{
		limited.POST("/generate-facts", api.GenerateFactsHandler)
		limited.POST("/chat", api.ChatHandler)
	}
}
