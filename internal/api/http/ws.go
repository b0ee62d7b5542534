package http

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/codecollab/internal/api/http/converter"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/relay"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// room for the frame envelope around a full document
	frameOverhead = 4 << 10
	// a control character in a JSON string is written as \u00XX
	maxEscapeRatio = 6
)

// frameReadLimit bounds an inbound frame so that a document of maxDocumentBytes
// still fits after JSON escaping. Oversized documents are rejected by the
// service once decoded.
func frameReadLimit(maxDocumentBytes int64) int64 {
	return maxDocumentBytes*maxEscapeRatio + frameOverhead
}

type inboundFrame struct {
	Type        string                         `json:"type"`
	RequestID   string                         `json:"request_id,omitempty"`
	Content     *string                        `json:"content,omitempty"`
	Cursor      *converter.UpdateCursorRequest `json:"cursor,omitempty"`
	Text        string                         `json:"text,omitempty"`
	DisplayName string                         `json:"display_name,omitempty"`
	ToUserID    string                         `json:"to_user_id,omitempty"`
	Kind        domain.SignalKind              `json:"kind,omitempty"`
	Payload     domain.SignalPayload           `json:"payload"`
}

type replyFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Version   int64  `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

var errUnknownFrame = errors.New("unknown frame type")

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// Connect joins the caller to the session, subscribes and then upgrades. Events
// go out as they are published; inbound frames are dispatched to the service.
// Dropping the connection unsubscribes but keeps the participant.
func (c *SessionController) Connect(ctx *gin.Context) {
	const op = "api.http.session.connect"

	sessionID := ctx.Param("sessionID")
	user := currentIdentity(ctx)
	log := c.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID),
		slog.String("user_id", user.UserID),
	)

	if _, err := c.sessions.JoinSession(ctx.Request.Context(), sessionID, user); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	sub, err := c.sessions.Subscribe(ctx.Request.Context(), sessionID, user.UserID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	defer c.sessions.Unsubscribe(sub.ID)

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	connCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		c.writePump(connCtx, client, sub, log)
	}()
	go func() {
		defer wg.Done()
		c.pingLoop(connCtx, client)
	}()

	c.readPump(connCtx, client, sessionID, user, log)
	cancel()
	// unblocks a write pump stuck in Next
	c.sessions.Unsubscribe(sub.ID)
	wg.Wait()
	log.Debug("websocket closed")
}

func (c *SessionController) writePump(ctx context.Context, client *wsClient, sub *relay.Subscription, log *slog.Logger) {
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				client.close(websocket.CloseGoingAway, "connection closing")
			case errors.Is(err, relay.ErrSubscriptionClosed):
				client.close(websocket.CloseNormalClosure, "session closed")
			}
			if n := sub.Pending(); n > 0 {
				log.Debug("websocket closed with undelivered events", slog.Int("pending", n))
			}
			// unblocks the read pump
			_ = client.conn.Close()
			return
		}
		if err := client.send(ev); err != nil {
			log.Debug("websocket write failed", sl.Err(err))
			_ = client.conn.Close()
			return
		}
	}
}

func (c *SessionController) pingLoop(ctx context.Context, client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *SessionController) readPump(ctx context.Context, client *wsClient, sessionID string, user domain.Identity, log *slog.Logger) {
	conn := client.conn
	conn.SetReadLimit(frameReadLimit(c.maxMessageBytes))
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug("websocket read failed", sl.Err(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := c.dispatch(ctx, sessionID, user, frame, log)
		if err := client.send(reply); err != nil {
			return
		}
	}
}

func (c *SessionController) dispatch(ctx context.Context, sessionID string, user domain.Identity, frame inboundFrame, log *slog.Logger) replyFrame {
	reply := replyFrame{Type: "ack", RequestID: frame.RequestID}

	var err error
	switch frame.Type {
	case "ping":
		return replyFrame{Type: "pong", RequestID: frame.RequestID}
	case "code":
		if frame.Content == nil {
			err = domain.ErrInvalidInput
			break
		}
		reply.Version, err = c.sessions.UpdateCode(ctx, sessionID, user.UserID, *frame.Content)
	case "cursor":
		if frame.Cursor == nil {
			err = domain.ErrInvalidCursor
			break
		}
		reply.Data, err = c.sessions.UpdateCursor(ctx, sessionID, user.UserID, frame.Cursor.Cursor())
	case "chat":
		displayName := frame.DisplayName
		if displayName == "" {
			displayName = user.DisplayName
		}
		reply.Data, err = c.sessions.PostChatMessage(ctx, sessionID, user.UserID, displayName, frame.Text)
	case "signal":
		reply.Data, err = c.sessions.RelaySignal(ctx, sessionID, user.UserID, frame.ToUserID, frame.Kind, frame.Payload)
	default:
		err = errUnknownFrame
	}

	if err != nil {
		msg := errorMessage(err)
		if errors.Is(err, errUnknownFrame) {
			msg = err.Error()
		} else if statusFromError(err) >= 500 {
			log.Error("websocket request failed", slog.String("frame", frame.Type), sl.Err(err))
		}
		return replyFrame{Type: "error", RequestID: frame.RequestID, Error: msg}
	}
	return reply
}
