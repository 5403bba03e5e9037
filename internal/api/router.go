package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"careerPilot/internal/api/middleware"
	"careerPilot/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：健康检查、指标与 /api 下的业务路由。
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		corsMiddleware(deps.AllowedOrigins),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(deps.Logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	RegisterRoutes(router.Group("/api"), deps)
	return router
}

// 未配置白名单时允许全部来源。
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Correlation-ID"},
		ExposeHeaders: []string{"X-Correlation-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
