package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts the stego API under /api/v1. A nil origins list allows
// the local frontend only.
func NewRouter(h *StegoHandler, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), accessLog(h))

	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}
	config.ExposeHeaders = []string{
		"Content-Disposition",
		"X-Request-ID",
		"X-Stego-Message",
		"X-Stego-Images",
		"X-Stego-Capacity",
		"X-Stego-PSNR",
		"X-Stego-Quality",
		"X-Stego-Digest",
		"X-Stego-Warning",
	}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/hide", h.HideAudio)
			stego.POST("/extract", h.ExtractAudio)
			stego.POST("/capacity", h.Capacity)
		}
	}

	return router
}

func accessLog(h *StegoHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLogger(c, h.logger).
			WithField("status", c.Writer.Status()).
			WithField("latency", time.Since(start).String()).
			Debug("request served")
	}
}
