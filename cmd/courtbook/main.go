package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"courtbook/internal/booking"
	"courtbook/internal/catalog"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/payment"
	"courtbook/internal/report"
	"courtbook/internal/repository"
	"courtbook/internal/storage"
)

// application holds the wired domain services.
type application struct {
	catalog  *catalog.Catalog
	engine   *booking.Engine
	payments *payment.Processor
	bus      *events.EventBus
}

func main() {
	cfg, err := config.Load(os.Getenv("COURTBOOK_CONFIG_PATH"))
	if err != nil {
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, sqlite, closeStore, err := openStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage error")
	}
	defer closeStore()

	app, err := wire(ctx, cfg, store, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire services error")
	}

	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	run(booking.NewSweeper(app.engine, cfg.CompletionInterval(), &logger).Start)

	if cfg.Report.Enabled {
		reports := report.NewService(report.Config{
			Dir:      cfg.Report.Dir,
			Interval: cfg.ReportInterval(),
		}, app.engine, app.catalog, report.NewExcelizeWriter, &logger)
		run(reports.Start)
	}

	if sqlite != nil {
		backups := database.NewBackupService(sqlite, database.BackupConfig{
			Enabled:   cfg.Backup.Enabled,
			Interval:  cfg.BackupInterval(),
			Dir:       cfg.Backup.Path,
			Retention: cfg.BackupRetention(),
		}, &logger)
		run(backups.Start)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	run(func(ctx context.Context) { startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, store, &logger) })

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		run(func(ctx context.Context) { startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger) })
	}

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Int("courts", len(app.catalog.List())).
		Str("timezone", app.engine.Location().String()).
		Msg("courtbook started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	wg.Wait()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.JSON {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// openStore builds the key-value backend named by storage.driver. The returned
// SQLite store is non-nil whenever SQLite is in use, so backups can snapshot it.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (storage.Store, *storage.SQLiteStore, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var sqlite *storage.SQLiteStore
	if cfg.UsesSQLite() {
		s, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, nil, closeAll, err
		}
		sqlite = s
		closers = append(closers, func() { _ = s.Close() })
	}

	var rstore *storage.RedisStore
	if cfg.UsesRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		rstore = storage.NewRedisStore(rdb, cfg.Redis.KeyPrefix)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rstore.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis not reachable at startup")
		}
		cancel()
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, closeAll, nil
	case config.DriverSQLite:
		return sqlite, sqlite, closeAll, nil
	case config.DriverRedis:
		return rstore, nil, closeAll, nil
	case config.DriverFailover:
		return storage.NewFailoverStore(rstore, sqlite, logger), sqlite, closeAll, nil
	default:
		closeAll()
		return nil, nil, func() {}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func wire(ctx context.Context, cfg *config.Config, store storage.Store, logger *zerolog.Logger) (*application, error) {
	metrics.Register()

	var cat *catalog.Catalog
	err := config.WatchCourts(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), logger, func(cc *config.CourtsConfig) error {
		courts, err := catalog.FromConfig(cc)
		if err != nil {
			return err
		}
		if cat == nil {
			cat, err = catalog.New(courts)
			return err
		}
		return cat.Replace(courts)
	})
	if err != nil {
		return nil, fmt.Errorf("load courts: %w", err)
	}

	bus := events.NewEventBus()
	bus.OnError(func(event events.Event, err error) {
		logger.Error().Err(err).Str("event", event.Type).Int64("event_id", event.ID).Msg("event handler failed")
	})
	logEvents(bus, logger)

	repo := repository.NewBookingRepository(store, cfg.Storage.BookingsKey, logger)
	engine := booking.New(cat, repo, booking.SystemClock{}, bus, booking.Options{
		Location:         cfg.Location(),
		MaxAdvanceMonths: cfg.MaxAdvanceMonths(),
		DefaultOpenHour:  cfg.Booking.DefaultOpenHour,
		DefaultCloseHour: cfg.Booking.DefaultCloseHour,
	}, logger)

	records := payment.NewRecordStore(store, cfg.Storage.PaymentsKey)
	payments := payment.NewProcessor(engine, records, payment.RandomAuthorizer{SuccessRate: cfg.Payments.SuccessRate}, bus, logger)

	return &application{catalog: cat, engine: engine, payments: payments, bus: bus}, nil
}

func logEvents(bus *events.EventBus, logger *zerolog.Logger) {
	for _, t := range []string{
		events.BookingCreated,
		events.BookingConfirmed,
		events.BookingCancelled,
		events.BookingCompleted,
		events.BookingDeleted,
		events.PaymentProcessed,
	} {
		bus.Subscribe(t, func(e events.Event) error {
			logger.Debug().Str("event", e.Type).Int64("event_id", e.ID).RawJSON("payload", e.Payload).Msg("domain event")
			return nil
		})
	}
}

func startHealthServer(ctx context.Context, port int, store storage.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.Ping(ctxPing); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
