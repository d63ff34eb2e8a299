package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/factbook-ai/factbook-proxy/internal/common"
	"github.com/factbook-ai/factbook-proxy/internal/config"
	"github.com/factbook-ai/factbook-proxy/internal/linkmeta"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
	"github.com/factbook-ai/factbook-proxy/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Backend extraction can take a while since it calls an LLM.
const uploadTimeout = 2 * time.Minute

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))

	// Set Gin mode
	log.Info("Setting Gin mode", slog.String("mode", cfg.GinMode))
	gin.SetMode(cfg.GinMode)

	m := metrics.New()

	// Link metadata
	titleCache := linkmeta.NewTitleCache(cfg.LinkMetadata.CacheMaxEntries, cfg.LinkMetadata.CacheTTL)
	resolver, err := linkmeta.NewResolver(cfg.LinkMetadata, nil, titleCache, m, log)
	if err != nil {
		log.Error("Failed to initialize link title resolver", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sweeper, err := linkmeta.StartSweeper(cfg.LinkMetadata.SweepSchedule, titleCache, m, log)
	if err != nil {
		log.Error("Failed to start link title cache sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// RFP upload relay
	uploadService := upload.NewService(
		cfg.BackendURL,
		common.NewHTTPClient(uploadTimeout, cfg),
		cfg.Upload.MaxBytes,
		cfg.Upload.AllowedExtensions,
	)

	router := setupRouter(routerDeps{
		logger:          log,
		metrics:         m,
		linkHandler:     linkmeta.NewHandler(resolver, log),
		uploadHandler:   upload.NewHandler(uploadService, m, log),
		maxUploadMemory: cfg.Upload.MaxBytes,
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: true,
	})

	port := ":" + cfg.Port
	srv := &http.Server{
		Addr:              port,
		Handler:           corsMiddleware.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("🔁  factbook proxy listening on " + port)
	log.Info("🔗  link metadata",
		slog.String("extractor", cfg.LinkMetadata.Extractor),
		slog.Duration("cache_ttl", cfg.LinkMetadata.CacheTTL),
		slog.Duration("fetch_timeout", cfg.LinkMetadata.FetchTimeout))
	log.Info("📄  RFP uploads relayed", slog.String("backend_url", cfg.BackendURL))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	<-sweeper.Stop().Done()
	log.Info("✅ Link title cache sweeper stopped")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("✅ Server exited")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
