package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"anoa.com/housecup/internal/config"
	"anoa.com/housecup/internal/logger"
	"anoa.com/housecup/internal/server"
	"anoa.com/housecup/pkg/clock"
	"anoa.com/housecup/pkg/database"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Tags:        map[string]string{"service": "housecup-api"},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(2 * time.Second)

	if err := run(cfg); err != nil {
		logger.Error(err)
		logger.Sync(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, database.Options{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           cfg.Debug,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	mongoDB, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, 0)
	if err != nil {
		return err
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis.URL, 0)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	srv, err := server.New(ctx, server.Deps{
		Config:  cfg,
		DB:      db,
		Mongo:   mongoDB,
		Redis:   redisClient,
		Clock:   clock.New(loc),
		Timeout: time.Minute,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.String("timezone", loc.String()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
