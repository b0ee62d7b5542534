package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/codecollab/internal/identity"
)

type RouterDeps struct {
	Sessions       *SessionController
	Users          *UserController
	WebRTC         *WebRTCController
	Identity       identity.Provider
	AllowedOrigins []string
	Log            *slog.Logger
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Log != nil {
		router.Use(RequestLogger(deps.Log))
	}

	config := cors.DefaultConfig()
	if allowsAnyOrigin(deps.AllowedOrigins) {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = deps.AllowedOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.MaxAge = 12 * time.Hour
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(AuthMiddleware(deps.Identity))

	if deps.Users != nil {
		api.GET("/me", deps.Users.Me)
	}

	if deps.WebRTC != nil {
		api.GET("/webrtc/config", deps.WebRTC.Config)
	}

	if deps.Sessions != nil {
		sessions := api.Group("/sessions")
		sessions.POST("", deps.Sessions.CreateSession)
		sessions.GET("", deps.Sessions.ListSessions)
		sessions.GET("/code/:joinCode", deps.Sessions.GetSessionByJoinCode)
		sessions.GET("/:sessionID", deps.Sessions.GetSession)
		sessions.POST("/:sessionID/join", deps.Sessions.JoinSession)
		sessions.POST("/:sessionID/leave", deps.Sessions.LeaveSession)
		sessions.POST("/:sessionID/end", deps.Sessions.EndSession)
		sessions.PUT("/:sessionID/code", deps.Sessions.UpdateCode)
		sessions.PUT("/:sessionID/cursor", deps.Sessions.UpdateCursor)
		sessions.POST("/:sessionID/chat", deps.Sessions.PostChatMessage)
		sessions.GET("/:sessionID/chat", deps.Sessions.GetChatMessages)
		sessions.POST("/:sessionID/signals", deps.Sessions.RelaySignal)
		sessions.GET("/:sessionID/signals", deps.Sessions.GetSignals)
		sessions.GET("/:sessionID/export", deps.Sessions.ExportSession)
		sessions.GET("/:sessionID/ws", deps.Sessions.Connect)
	}

	return router
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
