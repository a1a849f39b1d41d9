package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swizkhalifaa/Distributed-System-Project-C/auth"
	"github.com/swizkhalifaa/Distributed-System-Project-C/dispatch"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
	"github.com/swizkhalifaa/Distributed-System-Project-C/services"
)

const (
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	writeWait     = 10 * time.Second
	maxFrameBytes = 1 << 16
)

// Client owns one WebSocket connection: a read pump that turns frames
// into chat actions and a write pump that drains the connection's sink
// into frames. The client id is the connection id, and therefore the
// session token handed out on login.
type Client struct {
	id          string
	conn        *websocket.Conn
	sink        *dispatch.ChannelSink
	chat        services.IChatService
	adminSecret []byte
	log         *slog.Logger
	done        chan struct{}
}

func NewClient(id string, conn *websocket.Conn, sink *dispatch.ChannelSink,
	chat services.IChatService, adminSecret []byte, log *slog.Logger) *Client {
	conn.SetReadLimit(maxFrameBytes)
	return &Client{
		id:          id,
		conn:        conn,
		sink:        sink,
		chat:        chat,
		adminSecret: adminSecret,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer close(c.done)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) {
				c.log.Debug("Read failed", "connection", c.id, "err", err)
			}
			// Transport event: ack the disconnecting caller only and
			// leave the session store alone.
			c.chat.Disconnect(ctx, c.id)
			return
		}

		var frame ActionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.notify(ctx, errorNotice{Code: "badFrame", Message: "malformed frame"})
			continue
		}
		c.handleAction(ctx, frame)
	}
}

func (c *Client) handleAction(ctx context.Context, frame ActionFrame) {
	switch frame.Action {
	case ActionLogin:
		token, err := c.chat.Login(ctx, c.id, frame.Username, frame.Credential)
		if err != nil {
			c.log.Info("Login rejected", "connection", c.id, "err", err)
			c.notify(ctx, loginResult{OK: false})
			if stderrors.Is(err, errors.ErrStorage) {
				c.notify(ctx, errorNotice{Code: errorCode(err), Message: "login failed"})
			}
			return
		}
		c.notify(ctx, loginResult{Token: token, OK: true})

	case ActionSend:
		if err := c.chat.Send(ctx, frame.SessionID, frame.Text); err != nil {
			c.notify(ctx, errorNotice{Code: errorCode(err), Message: "send failed"})
		}

	case ActionLoad:
		if err := c.chat.Load(ctx, c.id); err != nil {
			c.notify(ctx, errorNotice{Code: errorCode(err), Message: "load failed"})
		}

	case ActionLogout:
		if err := c.chat.Logout(ctx, frame.SessionID); err != nil {
			c.notify(ctx, errorNotice{Code: errorCode(err), Message: "logout failed"})
		}

	case ActionClear:
		if _, err := auth.ValidateAdminToken(c.adminSecret, frame.AdminToken); err != nil {
			c.notify(ctx, errorNotice{Code: "unauthorized", Message: "admin token required"})
			return
		}
		if err := c.chat.Clear(ctx); err != nil {
			c.notify(ctx, errorNotice{Code: errorCode(err), Message: "clear failed"})
		}

	default:
		c.notify(ctx, errorNotice{Code: "unknownAction", Message: frame.Action})
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case e := <-c.sink.Events:
			if !c.writeFrame(toFrame(e)) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ctx.Done():
			return
		}
	}
}

// flush drains whatever is already queued so the disconnect ack has a
// chance to reach the peer before the close frame.
func (c *Client) flush() {
	for {
		select {
		case e := <-c.sink.Events:
			if !c.writeFrame(toFrame(e)) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeFrame(frame EventFrame) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("Write failed", "connection", c.id, "err", err)
		}
		return false
	}
	return true
}

// notify queues a caller-only frame through the connection's own sink
// so it keeps its order relative to broadcasts already queued.
func (c *Client) notify(ctx context.Context, e event.DomainEvent) {
	if err := c.sink.Consume(ctx, e); err != nil {
		c.log.Debug("Notice dropped", "connection", c.id, "err", err)
	}
}

func errorCode(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrValidation):
		return "validation"
	case stderrors.Is(err, errors.ErrAuthentication):
		return "authentication"
	case stderrors.Is(err, errors.ErrNotFound):
		return "notFound"
	case stderrors.Is(err, errors.ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}

// isExpectedCloseError checks whether an error is part of a normal
// connection teardown.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		return true
	}
	if stderrors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
