package main

import (
	"context"
	"log/slog"
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

	"dataplatform/docs"
	"dataplatform/internal/config"
	"dataplatform/internal/database"
	handlers "dataplatform/internal/http/handler"
	"dataplatform/internal/http/middleware"
	"dataplatform/internal/logging"
	"dataplatform/internal/otel"
	"dataplatform/internal/repository/postgres"
	"dataplatform/internal/service"
	"dataplatform/internal/storage"
)

// multipart framing on top of the file itself
const bodyOverhead = 1 << 20

// @title Data Platform API
// @version 1.0
// @description File uploads and monitoring data imports bound to locations.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "dataplatform")
	if err != nil {
		fatal("failed to initialize tracing", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		fatal("failed to initialize object storage", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		fatal("failed to register http metrics", err)
	}
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		fatal("failed to register domain metrics", err)
	}

	// Initialize repositories and services
	locationRepo := postgres.NewLocationPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)
	monitoringRepo := postgres.NewMonitoringPostgres(db)

	dataSvc := service.NewDataService(objStore, locationRepo, fileRepo, monitoringRepo, service.DataOptions{
		MaxFileSize: cfg.Upload.MaxFileSize,
		KeyPrefix:   cfg.Upload.KeyPrefix,
		Metrics:     metrics,
	})
	fileSvc := service.NewFileService(objStore, fileRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Oversized files must reach validation to be reported as OverSize.
		BodyLimit: int(cfg.Upload.MaxFileSize + bodyOverhead),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, db, dataSvc, fileSvc)

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
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	slog.Info("server starting", "addr", addr)
	if err := app.Listen(addr); err != nil {
		fatal("failed to start server", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		slog.Error("tracing shutdown failed", "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
