package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkoval/parley/internal/api"
	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/config"
	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/gateway"
	"github.com/nkoval/parley/internal/redis"
	"github.com/nkoval/parley/internal/service"
	"github.com/nkoval/parley/internal/snowflake"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	gen, err := snowflake.NewGenerator(cfg.NodeID)
	if err != nil {
		logger.Error("creating snowflake generator", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)

	users := database.NewUserRepository(pool)
	guilds := database.NewGuildRepository(pool)
	overwrites := database.NewOverwriteRepository(pool)
	channels := database.NewChannelRepository(pool, overwrites)
	roles := database.NewRoleRepository(pool)
	members := database.NewMemberRepository(pool)
	messages := database.NewMessageRepository(pool)

	gw := gateway.NewManager(tokens, guilds)

	perms := service.NewPermissionChecker(guilds, members, roles)
	authSvc := service.NewAuthService(users, tokens, redisClient, gen)
	guildSvc := service.NewGuildService(guilds, channels, roles, members, perms, gw, gen)
	channelSvc := service.NewChannelService(channels, overwrites, messages, users, roles, perms, gw, gen, logger)
	messageSvc := service.NewMessageService(messages, channels, perms, gw, gen)

	e := api.SetupRouter(api.Dependencies{
		Tokens:   redisClient,
		Auth:     api.NewAuthHandler(authSvc),
		Guilds:   api.NewGuildHandler(guildSvc),
		Channels: api.NewChannelHandler(channelSvc),
		Messages: api.NewMessageHandler(messageSvc),
		Gateway:  gw,
		JWT:      tokens,
		Logger:   logger,
	})

	go func() {
		logger.Info("server starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
