package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/identity"
)

const identityKey = "identity"

// AuthMiddleware resolves the caller from the Authorization header. Websocket
// handshakes may pass the token in the access_token query parameter instead,
// since browsers cannot set headers on them.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx.GetHeader("Authorization"))
		if token == "" && websocket.IsWebSocketUpgrade(ctx.Request) {
			token = ctx.Query("access_token")
		}

		id, err := provider.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
			return
		}

		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func currentIdentity(ctx *gin.Context) domain.Identity {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	id, _ := v.(domain.Identity)
	return id
}

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		log.LogAttrs(ctx.Request.Context(), level, "http_request",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.Request.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ctx.Writer.Size()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_ip", ctx.ClientIP()),
		)
	}
}
