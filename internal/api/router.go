package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/gateway"
	"github.com/nkoval/parley/internal/redis"
)

// Dependencies carries everything the router needs to stand up routes.
type Dependencies struct {
	Tokens   *redis.Client
	Auth     *AuthHandler
	Guilds   *GuildHandler
	Channels *ChannelHandler
	Messages *MessageHandler
	Gateway  *gateway.Manager
	JWT      *auth.TokenService
	Logger   *slog.Logger
}

// SetupRouter wires all HTTP routes onto a fresh Echo instance.
func SetupRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			deps.Logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")

	// Auth routes sit behind a tighter anonymous rate limit.
	authGroup := api.Group("/auth", RateLimitMiddleware(deps.Tokens, deps.Logger, RateLimitConfig{
		Limit:  10,
		Window: time.Minute,
		Prefix: "rl:auth",
	}))
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.POST("/refresh", deps.Auth.Refresh)
	authGroup.POST("/logout", deps.Auth.Logout)

	// Everything else requires a valid access token.
	protected := api.Group("", deps.JWT.Middleware(), RateLimitMiddleware(deps.Tokens, deps.Logger, RateLimitConfig{
		Limit:  120,
		Window: time.Minute,
		Prefix: "rl:api",
	}))

	protected.GET("/users/@me", deps.Auth.Me)

	protected.POST("/guilds", deps.Guilds.Create)
	protected.GET("/guilds", deps.Guilds.List)
	protected.GET("/guilds/:guild_id", deps.Guilds.Get)
	protected.DELETE("/guilds/:guild_id", deps.Guilds.Delete)
	protected.GET("/guilds/:guild_id/channels", deps.Guilds.ListChannels)
	protected.POST("/guilds/:guild_id/channels", deps.Channels.Create)
	protected.POST("/guilds/:guild_id/members", deps.Guilds.Join)
	protected.DELETE("/guilds/:guild_id/members/@me", deps.Guilds.Leave)
	protected.GET("/guilds/:guild_id/members", deps.Guilds.ListMembers)
	protected.DELETE("/guilds/:guild_id/members/:user_id", deps.Guilds.KickMember)
	protected.POST("/guilds/:guild_id/roles", deps.Guilds.CreateRole)
	protected.GET("/guilds/:guild_id/roles", deps.Guilds.ListRoles)
	protected.PATCH("/guilds/:guild_id/roles/:role_id", deps.Guilds.UpdateRole)
	protected.DELETE("/guilds/:guild_id/roles/:role_id", deps.Guilds.DeleteRole)
	protected.PUT("/guilds/:guild_id/members/:user_id/roles/:role_id", deps.Guilds.AssignRole)
	protected.DELETE("/guilds/:guild_id/members/:user_id/roles/:role_id", deps.Guilds.UnassignRole)

	protected.GET("/channels/:channel_id", deps.Channels.Get)
	protected.PATCH("/channels/:channel_id", deps.Channels.Update)
	protected.DELETE("/channels/:channel_id", deps.Channels.Delete)
	protected.PUT("/channels/:channel_id/permissions/:target_id", deps.Channels.SetOverwrite)
	protected.DELETE("/channels/:channel_id/permissions/:target_id", deps.Channels.DeleteOverwrite)
	protected.POST("/users/@me/channels", deps.Channels.OpenDM)

	protected.POST("/channels/:channel_id/messages", deps.Messages.Send)
	protected.GET("/channels/:channel_id/messages", deps.Messages.List)
	protected.GET("/channels/:channel_id/messages/:message_id", deps.Messages.Get)
	protected.PATCH("/channels/:channel_id/messages/:message_id", deps.Messages.Edit)
	protected.DELETE("/channels/:channel_id/messages/:message_id", deps.Messages.Delete)
	protected.POST("/channels/:channel_id/messages/bulk-delete", deps.Channels.BulkDeleteMessages)

	e.GET("/gateway", deps.Gateway.HandleWebSocket)

	return e
}
