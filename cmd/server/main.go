package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"mesaYaCore/internal/config"
	"mesaYaCore/internal/modules/realtime/application"
	realtime "mesaYaCore/internal/modules/realtime/infrastructure"
	transport "mesaYaCore/internal/modules/realtime/interface"
	"mesaYaCore/internal/modules/restaurant/application/usecase"
	"mesaYaCore/internal/modules/restaurant/infrastructure"
	"mesaYaCore/internal/platform/broker"
	"mesaYaCore/internal/platform/storage"
	"mesaYaCore/internal/scheduler"
	"mesaYaCore/internal/shared/auth"
	"mesaYaCore/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, writer, err := logging.OpenDailyFile(cfg.Logging.Directory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.New(writer, logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: true})
	slog.SetDefault(logger)
	log.SetOutput(writer)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level))

	db, err := storage.Connect(storage.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	}, cfg.Database.MaxRetries, logger)
	if err != nil {
		slog.Error("database connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	deps := usecase.Deps{
		Store:  infrastructure.NewMySQLStore(db),
		Logger: logger,
	}

	var publisher *broker.KafkaPublisher
	if cfg.Kafka.Enabled() {
		publisher = broker.NewKafkaPublisher(cfg.Kafka.Brokers)
		defer publisher.Close()
		deps.Events = publisher
		slog.Info("kafka publisher wired", slog.Any("brokers", cfg.Kafka.Brokers))
	}
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Warn("redis unreachable, availability cache disabled", slog.Any("error", err))
		} else {
			deps.Cache = infrastructure.NewRedisSnapshotCache(client, cfg.Redis.SnapshotTTL)
			slog.Info("availability cache wired", slog.String("addr", cfg.Redis.Addr))
		}
	}

	engine := usecase.NewEngine(usecase.Policy{
		SlotGranularity:     cfg.Engine.SlotGranularity,
		ReservationDuration: cfg.Engine.ReservationDuration,
		HorizonDays:         cfg.Engine.HorizonDays,
		CheckInEarly:        cfg.Engine.CheckInEarly,
		CheckInGrace:        cfg.Engine.CheckInGrace,
		OfferWindow:         cfg.Engine.OfferWindow,
		MaxWait:             cfg.Engine.MaxWait,
	}, deps)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	err = engine.Load(loadCtx)
	cancelLoad()
	if err != nil {
		slog.Error("engine state load failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	router := realtime.NewRouter(hub.Touch)
	application.BindEngine(router, engine)

	validator := auth.NewJWTValidator(cfg.Security.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(writer)
	wsHandler := transport.NewWebsocketHandler(ctx, hub, router, validator)
	e.GET("/ws/:token", wsHandler)
	e.GET("/ws", wsHandler)
	e.GET("/healthz", transport.NewHealthHandler())

	sweeper := &scheduler.Sweeper{Engine: engine, Interval: cfg.Engine.SweepInterval, Logger: logger}
	go sweeper.Run(ctx)

	watchdog := &scheduler.Watchdog{
		Source:    hub,
		Interval:  cfg.Engine.WatchdogInterval,
		Threshold: cfg.Engine.IdleThreshold,
		Shutdown:  cancel,
		Logger:    logger,
	}
	go watchdog.Run(ctx)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
			cancel()
		}
	}()
	slog.Info("engine accepting commands", slog.String("port", cfg.Server.Port))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		slog.Info("signal received, shutting down")
	case <-ctx.Done():
		slog.Info("shutdown requested")
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", slog.Any("error", err))
	}
	hub.CloseAll()
	slog.Info("shutdown complete")
}
