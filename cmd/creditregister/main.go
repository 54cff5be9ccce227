package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"creditregister/internal/backend"
	"creditregister/internal/cache"
	"creditregister/internal/cli"
	"creditregister/internal/export"
	apphttp "creditregister/internal/http"
	"creditregister/internal/log"
	"creditregister/internal/report"
	"creditregister/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), nil)
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid ledger timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	ledger := services.NewLedgerService(res.Backend, opts...)
	docs := cache.NewLRUCache[export.Document](32, 15*time.Minute)
	reports := report.NewEngine(res.Backend, export.NewRenderer(export.DefaultLayout), logger,
		report.WithDocumentCache(docs))

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:           ledger,
		Reports:          reports,
		Health:           res.Backend,
		Logger:           logger,
		ExportsPerMinute: cfg.ExportRateLimit,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(docs)
	cacheManager.Start(ctx, 5*time.Minute)

	logger.Info("Starting credit register",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
