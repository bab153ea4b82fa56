package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/match-service/internal/api/http"
	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/observability"
	"github.com/spec-kit/match-service/internal/persistence"
	"github.com/spec-kit/match-service/internal/service"
	"github.com/spec-kit/match-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flags := pflag.NewFlagSet("match-service", pflag.ExitOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := flags.Bool("migrate-only", false, "apply database migrations and exit")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	if *migrateOnly {
		cfg.Postgres.RunMigrations = true
	}
	stores, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	if *migrateOnly {
		logger.Info("migrations complete; exiting", zap.String("storage_driver", cfg.Storage.Driver))
		return
	}

	metrics := observability.NewMetrics()
	hub := events.NewHub(logger, events.HubOptions{
		SubscriberBuffer: cfg.Broadcast.SubscriberBuffer,
		DeliveryTimeout:  cfg.Broadcast.DeliveryTimeout(),
	})

	checks := stores.checks
	var local events.Broadcaster = hub
	relayStopped := worker.StartRelayWorker(ctx, nil, logger, 0)
	if cfg.Broadcast.Driver == config.BroadcastDriverRedis {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		checks["redis"] = redis

		local = events.NewRedisBroadcaster(redis.Client, cfg.Redis.ChannelPrefix)
		relay := events.NewRedisRelay(redis.Client, cfg.Redis.ChannelPrefix, hub, logger)
		relayStopped = worker.StartRelayWorker(ctx, relay, logger, time.Second)
	}

	targets := []events.Broadcaster{local}
	if cfg.Kafka.Enabled() {
		mirror := events.NewKafkaMirror(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger))
		defer func() {
			if err := mirror.Close(); err != nil {
				logger.Warn("kafka mirror close", zap.Error(err))
			}
		}()
		targets = append(targets, mirror)
		logger.Info("mirroring lifecycle events to kafka", zap.String("topic", cfg.Kafka.Topic))
	}
	broadcaster := events.Instrument(events.Fanout(targets...), metrics)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	matchService := service.NewMatchService(service.MatchDependencies{
		MatchRepo:          stores.matches,
		Directory:          stores.participants,
		Broadcaster:        broadcaster,
		Logger:             logger,
		SuggestConcurrency: cfg.Matching.SuggestConcurrency,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		ParticipantRepo: stores.participants,
		Purger:          matchService,
		Tokens:          tokens,
		BcryptCost:      cfg.Auth.BcryptCost,
		Logger:          logger,
	})
	if cfg.Auth.SeedAdmin() {
		if _, err := directoryService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSAllowOrigins)

	eventsHandler := handlers.NewEventsHandler(hub, cfg.Broadcast.Heartbeat(), logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Auth:           handlers.NewAuthHandler(directoryService),
		Matches:        handlers.NewMatchesHandler(matchService),
		Events:         eventsHandler,
		Admin:          handlers.NewAdminHandler(directoryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, stores.participants),
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("match service started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("broadcast_driver", cfg.Broadcast.Driver))

	<-ctx.Done()
	logger.Info("shutting down")

	eventsHandler.Close()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	<-relayStopped

	tracingCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(tracingCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
