// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ammerola/stockroom/internal/adapters/jsonstore"
	"github.com/ammerola/stockroom/internal/adapters/storage"
	"github.com/ammerola/stockroom/internal/core/ports"
	"github.com/ammerola/stockroom/internal/core/services"
	"github.com/ammerola/stockroom/internal/handlers"
	"github.com/ammerola/stockroom/internal/handlers/middleware"
	"github.com/ammerola/stockroom/internal/pkg/config"
	"github.com/ammerola/stockroom/internal/pkg/logger"
	"github.com/ammerola/stockroom/internal/pkg/metrics"
	"github.com/ammerola/stockroom/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stockroom",
		Short:         "Inventory registration service",
		Long:          "Stockroom registers inventory items with an optional photo and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}

	flags := cmd.Flags()
	// -h is the host; help keeps its long form only.
	flags.Bool("help", false, "help for stockroom")
	flags.StringP("host", "h", "", "Server host")
	flags.StringP("port", "p", "", "Server port")
	flags.StringP("cache", "c", "", "Cache directory for the inventory file and uploads")
	flags.String("config", "", "Config file path (YAML or JSON)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(importCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockroom version %s (build: %s)\n", Version, BuildTime)
		},
	})

	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Register inventory items from a spreadsheet",
		Long: "Import reads the first sheet of an Excel workbook and registers one item per row. " +
			"Files produced by GET /export/excel are accepted as-is.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringP("cache", "c", "", "Cache directory for the inventory file and uploads")
	flags.String("config", "", "Config file path (YAML or JSON)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// loadConfig resolves configuration for cmd and installs the configured logger
func loadConfig(cmd *cobra.Command, validators ...config.Validator) (*config.Config, *slog.Logger, error) {
	slogger := logger.SetupLogger("info", "json")

	v := config.NewViper()
	v.SetDefault("app.version", Version)
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v, slogger, validators...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.NewLogger(&logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		AddSource:      cfg.App.Debug,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
	}, os.Stdout)
	slog.SetDefault(slogger)

	return cfg, slogger, nil
}

func runImport(cmd *cobra.Command, path string) error {
	cfg, slogger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Storage.CacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	repo := jsonstore.NewInventoryRepository(ctx, cfg.InventoryPath(), slogger)
	photos, err := newPhotoStorage(ctx, cfg, slogger)
	if err != nil {
		return err
	}

	service := services.NewInventoryService(repo, photos, nil, slogger)
	result, err := workers.NewExcelProcessor(service, slogger).ImportFile(ctx, path)
	if result != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d item(s), skipped %d row(s)\n", result.Imported, result.Skipped)
	}
	return err
}

func run(cmd *cobra.Command) error {
	cfg, slogger, err := loadConfig(cmd, &config.ServerValidator{})
	if err != nil {
		return err
	}

	slogger.Info("starting stockroom",
		slog.String("version", cfg.App.Version),
		slog.String("build_time", BuildTime),
		slog.String("environment", cfg.App.Environment),
		slog.String("cache_dir", cfg.Storage.CacheDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.cleanup(slogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		deps.cleanupProcessor.Run(ctx)
	}()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		stop()
		wg.Wait()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		server.Close()
	}
	wg.Wait()

	slogger.Info("server shutdown complete")
	return nil
}

// dependencies holds all application dependencies
type dependencies struct {
	repo             *jsonstore.InventoryRepository
	photos           ports.PhotoStorage
	watcher          *jsonstore.Watcher
	metrics          *metrics.Metrics
	inventoryHandler *handlers.InventoryHandler
	healthHandler    *handlers.HealthHandler
	exportHandler    *handlers.ExportHandler
	docsHandler      *handlers.DocsHandler
	cleanupProcessor *workers.CleanupProcessor
}

func (d *dependencies) cleanup(logger *slog.Logger) {
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			logger.Warn("failed to stop inventory watcher", slog.String("error", err.Error()))
		}
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if err := os.MkdirAll(cfg.Storage.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if cfg.Metrics.Enabled {
		deps.metrics = metrics.New()
	}

	deps.repo = jsonstore.NewInventoryRepository(ctx, cfg.InventoryPath(), logger)
	if n, err := deps.repo.Count(ctx); err == nil {
		deps.metrics.SetInventoryItems(n)
	}

	photos, err := newPhotoStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.photos = photos

	if cfg.Storage.WatchInventory {
		watcher, err := jsonstore.NewWatcher(deps.repo, cfg.Storage.WatchDebounce, logger)
		if err != nil {
			return nil, err
		}
		watcher.OnReload = func() {
			deps.metrics.InventoryReloaded()
			if n, err := deps.repo.Count(ctx); err == nil {
				deps.metrics.SetInventoryItems(n)
			}
		}
		if err := watcher.Start(ctx); err != nil {
			watcher.Stop()
			return nil, err
		}
		deps.watcher = watcher
	}

	inventoryService := services.NewInventoryService(deps.repo, deps.photos, deps.metrics, logger)

	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, cfg.MaxUploadBytes(), logger)
	deps.healthHandler = handlers.NewHealthHandler(deps.repo, deps.photos, cfg, logger)
	deps.exportHandler = handlers.NewExportHandler(inventoryService, logger)

	docs, err := handlers.NewDocsHandler(cfg.App.Version, logger)
	if err != nil {
		return nil, err
	}
	deps.docsHandler = docs

	deps.cleanupProcessor = workers.NewCleanupProcessor(
		deps.repo,
		deps.photos,
		cfg.Storage.CleanupInterval,
		cfg.Storage.CleanupGracePeriod,
		deps.metrics,
		logger,
	)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func newPhotoStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.PhotoStorage, error) {
	switch cfg.Storage.PhotoBackend {
	case config.PhotoBackendS3:
		logger.Info("using S3 photo storage",
			slog.String("bucket", cfg.AWS.S3Bucket),
			slog.String("region", cfg.AWS.Region))
		return storage.NewS3PhotoStorage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			Prefix:          cfg.AWS.S3Prefix,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
	default:
		logger.Info("using local photo storage", slog.String("dir", cfg.UploadPath()))
		return storage.NewLocalPhotoStorage(cfg.UploadPath(), logger)
	}
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	router := handlers.NewRouter(handlers.Routes{
		Inventory:   deps.inventoryHandler,
		Health:      deps.healthHandler,
		Export:      deps.exportHandler,
		Docs:        deps.docsHandler,
		Metrics:     deps.metrics,
		MetricsPath: cfg.Metrics.Path,
	})

	// Listed outermost first
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
	}
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.RateLimitRequests > 0 {
		chain = append(chain, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}

	return &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      middleware.Chain(router, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
