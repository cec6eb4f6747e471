package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cabanas/internal/api"
	"cabanas/internal/config"
	"cabanas/internal/database"
	"cabanas/internal/domain"
	"cabanas/internal/events"
	"cabanas/internal/export"
	"cabanas/internal/logging"
	"cabanas/internal/metrics"
	"cabanas/internal/pgstore"
	"cabanas/internal/repository"
	"cabanas/internal/retry"
	"cabanas/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, sqliteDB, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seedCabins(ctx, cfg, store, logger); err != nil {
		return err
	}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initCache(cfg, redisClient, logger)

	location, err := cfg.App.Location()
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	audit := events.AuditHandler(logging.Component(logger, "audit"))
	eventBus.Subscribe(events.EventBookingCreated, audit)
	eventBus.Subscribe(events.EventBookingConflict, audit)

	cabinService := service.NewCabinService(store, cache, logging.Component(logger, "cabins"))
	bookingService := service.NewBookingService(store, cabinService, cache, eventBus, service.BookingOptions{
		MaxAdvanceDays:   cfg.Booking.MaxAdvanceDays,
		SubmissionLimit:  cfg.Booking.SubmissionLimit,
		SubmissionWindow: cfg.Booking.SubmissionWindow,
		Location:         location,
		Retry: retry.Policy{
			MaxRetries:   cfg.Booking.StoreRetries,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}, logging.Component(logger, "bookings"))

	services := api.Services{
		Cabins:   cabinService,
		Bookings: bookingService,
		Exporter: export.NewExporter(cfg.Exports.Path, logging.Component(logger, "export")),
		Ping:     store.Ping,
	}

	if sqliteDB != nil && cfg.Backup.Enabled {
		backups := database.NewBackupService(sqliteDB, cfg.Backup, logging.Component(logger, "backup"))
		go backups.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, services, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}
	httpServer := api.NewHTTPServer(cfg.API, services, logger)

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// initStore opens the configured store. The SQLite handle is also returned for backups.
func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.Repository, *database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := pgstore.New(ctx, cfg.Database.Postgres.DSN(), logging.Component(logger, "pgstore"))
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, nil, err
		}
		return store, nil, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, nil, err
		}
		return db, db, nil
	}
}

// seedCabins loads the catalog file when it exists. A missing file is not an error.
func seedCabins(ctx context.Context, cfg *config.Config, store domain.CabinRepository, logger *zerolog.Logger) error {
	if _, err := os.Stat(cfg.CabinsFile); errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("cabins_file", cfg.CabinsFile).Msg("cabins file not found, skipping catalog seed")
		return nil
	}

	cabins, err := config.LoadCabins(cfg.CabinsFile)
	if err != nil {
		return err
	}
	for i := range cabins {
		if err := store.UpsertCabin(ctx, &cabins[i]); err != nil {
			return err
		}
	}
	logger.Info().Int("cabins", len(cabins)).Msg("catalog seeded")
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initCache always returns a usable cache; Redis sits in front of the in-process fallback.
func initCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.CatalogCache {
	memory := repository.NewMemoryCatalogCache(cfg.Booking.CatalogCacheTTL)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisCatalogCache(redisClient, cfg.Booking.CatalogCacheTTL)
	return repository.NewFailoverCatalogCache(primary, memory, logging.Component(logger, "cache"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Bool("grpc", grpcServer != nil).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
