package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/adapters/signal"
	"github.com/marusyk/Converse/internal/auth"
	"github.com/marusyk/Converse/internal/config"
)

// AuthMiddleware validates the bearer credential and stores the resolved
// identity on the context. Browsers cannot set headers on a WebSocket
// upgrade, so a token query parameter is accepted as a fallback.
func AuthMiddleware(authsvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
			return
		}
		claims, err := authsvc.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("user_id", string(claims.UserID))
		c.Set("display_name", claims.DisplayName)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, h *Handler, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	authed := AuthMiddleware(h.Auth)

	r.Static("/static/uploads", cfg.UploadDir)

	user := r.Group("/user")
	{
		user.POST("/register", h.Register)
		user.POST("/login", h.Login)
		user.GET("/fetchUsers", authed, h.FetchUsers)
		user.GET("/online", authed, h.OnlineUsers)
	}

	chat := r.Group("/chat", authed)
	{
		chat.POST("", h.AccessChat)
		chat.GET("", h.FetchChats)
		chat.POST("/group", h.CreateGroupChat)
	}

	message := r.Group("/message", authed)
	{
		message.POST("", h.SendMessage)
		message.GET("/:chatId", h.ChatHistory)
	}

	r.POST("/upload", authed, h.Upload)

	r.GET("/ws", authed, func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("user_id")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	})

	return r
}
