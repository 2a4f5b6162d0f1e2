package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storyforge/docs"
	"storyforge/internal/ai"
	"storyforge/internal/config"
	"storyforge/internal/database"
	"storyforge/internal/extractor"
	handlers "storyforge/internal/http/handler"
	"storyforge/internal/http/middleware"
	"storyforge/internal/logger"
	"storyforge/internal/metrics"
	"storyforge/internal/otel"
	"storyforge/internal/repository"
	"storyforge/internal/repository/postgres"
	"storyforge/internal/service"
	"storyforge/internal/storage"
)

// @title storyforge API
// @version 1.0
// @description Turns slide decks into gamified learning stories.
// @BasePath /
func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	convMetrics, err := metrics.NewConversionMetrics(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}

	// Conversion history is optional and needs a database.
	var history repository.ConversionRepository
	db, err := database.OpenHistory(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("database_init_failed", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		history = postgres.NewConversionPostgres(db)
	}

	var archive storage.Storage
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("object_storage_init_failed", zap.Error(err))
		}
	}

	uploads, err := storage.NewUploadDir(cfg.Upload.Dir)
	if err != nil {
		log.Fatal("upload_dir_init_failed", zap.String("dir", cfg.Upload.Dir), zap.Error(err))
	}

	// client stays a nil interface when no key is configured.
	var client ai.Client
	if cfg.Gemini.APIKey != "" {
		gc, err := ai.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Fatal("gemini_init_failed", zap.Error(err))
		}
		client = gc
	}
	selector := ai.NewSelector(client, cfg.Gemini.Models, log)
	generator := ai.NewGenerator(client, selector, time.Duration(cfg.Gemini.TimeoutSec)*time.Second, convMetrics, log)

	log.Info("startup",
		zap.String("port", cfg.Port),
		zap.Bool("gemini_configured", client != nil),
		zap.String("extractor", cfg.Upload.Extractor),
		zap.Bool("history_enabled", history != nil),
		zap.Bool("archive_enabled", archive != nil),
		zap.Int("max_upload_mb", cfg.Upload.MaxMB),
	)

	if client != nil {
		dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		// Failure is logged by the selector; the fallback list still applies.
		_, _ = selector.Discover(dctx)
		cancel()
	}

	svc := service.NewConversionService(service.Deps{
		Uploads:      uploads,
		Extractor:    extractor.New(cfg.Upload.Extractor, log),
		Generator:    generator,
		Selector:     selector,
		History:      history,
		Archive:      archive,
		Metrics:      convMetrics,
		KeywordLimit: cfg.KeywordLimit,
		Log:          log,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.Upload.BodyLimit(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, svc, int64(cfg.Upload.MaxBytes()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("server_shutdown_failed", zap.Error(err))
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server_start_failed", zap.Error(err))
	}
	log.Info("server_stopped")
}
