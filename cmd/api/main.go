package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/socialsphere/composer-backend/api/middleware"
	"github.com/socialsphere/composer-backend/api/routes"
	"github.com/socialsphere/composer-backend/internal/generate"
	"github.com/socialsphere/composer-backend/internal/links"
	"github.com/socialsphere/composer-backend/internal/publish"
	"github.com/socialsphere/composer-backend/internal/workflow"
	"github.com/socialsphere/composer-backend/pkg/config"
	"github.com/socialsphere/composer-backend/pkg/enums"
	"github.com/socialsphere/composer-backend/pkg/logger"
	"github.com/socialsphere/composer-backend/pkg/metrics"
	"github.com/socialsphere/composer-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Outgoing platform calls run on the caller's own bearer token.
	tokens := middleware.ContextTokenSource()

	generator, err := generate.NewClient(cfg.Generation.BaseURL, tokens,
		generate.WithHTTPClient(&http.Client{Timeout: cfg.Generation.Timeout}))
	if err != nil {
		logg.Error(context.Background(), "failed to create generation client", err)
		os.Exit(1)
	}

	publisher, err := publish.NewClient(map[enums.Platform]string{
		enums.PlatformYouTube:   cfg.Publish.YouTubeURL,
		enums.PlatformTikTok:    cfg.Publish.TikTokURL,
		enums.PlatformInstagram: cfg.Publish.InstagramURL,
		enums.PlatformX:         cfg.Publish.XURL,
	}, tokens, publish.WithHTTPClient(&http.Client{Timeout: cfg.Publish.Timeout}))
	if err != nil {
		logg.Error(context.Background(), "failed to create publish client", err)
		os.Exit(1)
	}

	linkProvider, err := links.NewProvider(cfg.Links.BaseURL, tokens,
		links.WithCache(redisClient, cfg.Links.CacheTTL))
	if err != nil {
		logg.Error(context.Background(), "failed to create link provider", err)
		os.Exit(1)
	}

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	workflowService, err := workflow.NewService(generator, publisher, linkProvider, logg, workflowMetrics, workflow.Options{
		MaxUploadBytes: cfg.Media.MaxUploadBytes(),
		MaxAttachments: cfg.Media.MaxAttachments,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create workflow service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, workflowService, linkProvider),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
