package main

import (
	"net/http"

	apierrors "github.com/factbook-ai/factbook-proxy/internal/errors"
	"github.com/factbook-ai/factbook-proxy/internal/linkmeta"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
	"github.com/factbook-ai/factbook-proxy/internal/upload"
	"github.com/gin-gonic/gin"
)

type routerDeps struct {
	logger          *logger.Logger
	metrics         *metrics.Metrics
	linkHandler     *linkmeta.Handler
	uploadHandler   *upload.Handler
	maxUploadMemory int64
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLoggingMiddleware(deps.logger))
	router.MaxMultipartMemory = deps.maxUploadMemory
	router.NoRoute(apierrors.NoRoute)

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/link-metadata", deps.linkHandler.GetLinkMetadata)
		api.POST("/upload", deps.uploadHandler.UploadRFP)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"instance_id": logger.InstanceID(),
	})
}
