package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/codecollab/internal/api/http/converter"
	"github.com/immxrtalbeast/codecollab/internal/service"
)

type SessionController struct {
	sessions        service.SessionInteractor
	log             *slog.Logger
	upgrader        websocket.Upgrader
	maxMessageBytes int64
}

func NewSessionController(sessions service.SessionInteractor, log *slog.Logger, allowedOrigins []string, maxMessageBytes int64) *SessionController {
	if log == nil {
		log = slog.Default()
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = 1 << 20
	}
	return &SessionController{
		sessions:        sessions,
		log:             log,
		maxMessageBytes: maxMessageBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req converter.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := c.sessions.CreateSession(ctx.Request.Context(), currentIdentity(ctx), req.Title, req.Settings())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) ListSessions(ctx *gin.Context) {
	sessions, err := c.sessions.ListActiveSessions(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"sessions": converter.SessionsToApi(sessions)})
}

func (c *SessionController) GetSession(ctx *gin.Context) {
	session, err := c.sessions.GetSession(ctx.Request.Context(), ctx.Param("sessionID"))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) GetSessionByJoinCode(ctx *gin.Context) {
	session, err := c.sessions.GetSessionByJoinCode(ctx.Request.Context(), ctx.Param("joinCode"))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) JoinSession(ctx *gin.Context) {
	type request struct {
		DisplayName string `json:"display_name"`
	}
	var req request
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	user := currentIdentity(ctx)
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}

	session, err := c.sessions.JoinSession(ctx.Request.Context(), ctx.Param("sessionID"), user)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) LeaveSession(ctx *gin.Context) {
	if err := c.sessions.LeaveSession(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *SessionController) EndSession(ctx *gin.Context) {
	if err := c.sessions.EndSession(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *SessionController) UpdateCode(ctx *gin.Context) {
	var req converter.UpdateCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	version, err := c.sessions.UpdateCode(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID, *req.Content)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"version": version})
}

func (c *SessionController) UpdateCursor(ctx *gin.Context) {
	var req converter.UpdateCursorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cursors, err := c.sessions.UpdateCursor(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID, req.Cursor())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"cursors": cursors})
}

func (c *SessionController) PostChatMessage(ctx *gin.Context) {
	var req converter.PostChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	msg, err := c.sessions.PostChatMessage(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID, req.DisplayName, req.Text)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (c *SessionController) GetChatMessages(ctx *gin.Context) {
	since, ok := parseSince(ctx)
	if !ok {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	messages, err := c.sessions.GetChatMessages(ctx.Request.Context(), ctx.Param("sessionID"), since, limit)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (c *SessionController) RelaySignal(ctx *gin.Context) {
	var req converter.RelaySignalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	msg, err := c.sessions.RelaySignal(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID, req.ToUserID, req.Kind, req.Payload)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"signal": msg})
}

func (c *SessionController) GetSignals(ctx *gin.Context) {
	since, ok := parseSince(ctx)
	if !ok {
		return
	}

	signals, err := c.sessions.GetSignals(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID, since)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"signals": signals})
}

func (c *SessionController) ExportSession(ctx *gin.Context) {
	record, err := c.sessions.ExportSession(ctx.Request.Context(), ctx.Param("sessionID"), currentIdentity(ctx).UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"record": record})
}

func parseSince(ctx *gin.Context) (time.Time, bool) {
	raw := ctx.Query("since")
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
		return time.Time{}, false
	}
	return since, true
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
