package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/auth"
	"github.com/flyingbingbong/jubsok-backend/internal/config"
	"github.com/flyingbingbong/jubsok-backend/internal/gateway"
	"github.com/flyingbingbong/jubsok-backend/internal/httpapi"
	"github.com/flyingbingbong/jubsok-backend/internal/logger"
	"github.com/flyingbingbong/jubsok-backend/internal/session"
	"github.com/flyingbingbong/jubsok-backend/internal/store/mongostore"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "jubsok-server",
		Short:         "Jubsok realtime backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime gateway server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JUBSOK_JWT_SECRET must be set")
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment == "development")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	mongoClient, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.MongoDatabase)
	users := mongostore.NewUsers(db)
	friends := mongostore.NewFriends(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()
	refreshTokens := session.NewRedisRefreshTokens(rdb)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)
	registry := gateway.NewRegistry()
	presence := gateway.NewBroadcaster(registry, friends, cfg.ActiveWindow, log)
	handlers := gateway.NewHandlers(users, friends, registry, presence, log)
	router := gateway.NewGatewayRouter(handlers)
	authn := gateway.NewAuthenticator(users, tokens)
	supervisor := gateway.NewSupervisor(registry, authn, router, users, presence, gateway.Options{
		PingPeriod:     cfg.PingPeriod,
		MaxMessageSize: cfg.MaxMessageSize,
		FrameBurst:     cfg.FrameBurst,
		FrameInterval:  cfg.FrameInterval,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)

	api := httpapi.New(tokens, refreshTokens, supervisor.HandleWS, log)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
