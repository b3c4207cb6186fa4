package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/paytrack/paytrack-backend/api/routes"
	"github.com/paytrack/paytrack-backend/internal/auth"
	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/internal/payments"
	"github.com/paytrack/paytrack-backend/internal/realtime"
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/db"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/instance"
	"github.com/paytrack/paytrack-backend/pkg/logger"
	"github.com/paytrack/paytrack-backend/pkg/metrics"
	"github.com/paytrack/paytrack-backend/pkg/migrate"
	pkgredis "github.com/paytrack/paytrack-backend/pkg/redis"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bootstrap database")
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "run dev migrations")
	}

	params := routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DBPinger: dbClient,
	}

	if pkgredis.Configured(cfg.Redis) {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, redisErr, "bootstrap redis")
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		params.RedisPinger = redisClient
		params.Idempotency = redisClient
		params.RateLimits = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency and auth rate limits disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	params.Gatherer = reg
	params.HTTP = metrics.NewHTTPMetrics(reg)
	dispatchMetrics := metrics.NewDispatchMetrics(reg)

	registry := realtime.NewRegistry(dispatchMetrics)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, registry.CloseAll(closeCtx))
	}()

	live, err := realtime.NewHandler(realtime.HandlerParams{
		Registry: registry,
		JWT:      cfg.JWT,
		Live:     cfg.Live,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	params.Live = live

	resolver, err := notifications.NewResolver(notifications.NewDirectory(dbClient.DB()))
	if err != nil {
		return err
	}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Resolver: resolver,
		Repo:     notifications.NewRepository(dbClient.DB()),
		Pusher:   registry,
		Metrics:  dispatchMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	params.Notifications = dispatcher

	userRepo := users.NewRepository(dbClient.DB())
	params.Users = userRepo

	if params.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	}); err != nil {
		return err
	}
	if params.Register, err = auth.NewRegisterService(auth.RegisterServiceParams{
		Users:          userRepo,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	if params.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Suppliers: userRepo,
		Tx:        dbClient,
		Notifier:  dispatcher,
		Config:    cfg.Orders,
		Logger:    logg,
	}); err != nil {
		return err
	}
	if params.Payments, err = payments.NewService(payments.ServiceParams{
		Repo:     payments.NewRepository(dbClient.DB()),
		Orders:   ordersRepo,
		Tx:       dbClient,
		Notifier: dispatcher,
		Config:   cfg.Payments,
		Logger:   logg,
	}); err != nil {
		return err
	}

	handler, err := routes.NewRouter(params)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
