package api

import (
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"

	"previewd/internal/middleware"
	"previewd/internal/preview"
)

// NewRouter wires the preview routes. When apiKey is non-empty every
// preview route requires a matching X-API-KEY header.
func NewRouter(pre *preview.Prefetcher, apiKey string, log *zap.Logger) *gin.Engine {
	h := NewHandler(pre, log)
	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	protected := router.Group("/")
	if apiKey != "" {
		protected.Use(middleware.APIKeyMiddleware(apiKey))
	}
	{
		protected.POST("/preview", h.HandleEnqueue)
		protected.GET("/preview", h.HandleGetPreview)
		protected.GET("/preview/wait", h.HandleWaitPreview)
		protected.POST("/preview/batch", h.HandleEnqueueBatch)
		protected.DELETE("/cache", h.HandleClear)
		protected.GET("/stats", h.HandleStats)
	}

	return router
}

// Run starts the HTTP server and blocks.
func Run(router *gin.Engine, addr string, log *zap.Logger) error {
	log.Info("server started", zap.String("addr", addr))
	return router.Run(addr)
}
