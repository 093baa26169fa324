package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 64
)

// HandlerFunc handles one inbound event. A returned error is reported to the sender
// as an "error" event.
type HandlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// Router maps event names onto handlers.
type Router map[string]HandlerFunc

// Client is one websocket connection. Inbound events are handled one at a time by
// the read loop; outbound frames go through the buffered send queue.
type Client struct {
	Identity models.Identity

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// guarded by hub.mu
	rooms  map[string]struct{}
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, id models.Identity, buffer int) *Client {
	return &Client{
		Identity: id,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, buffer),
		rooms:    map[string]struct{}{},
	}
}

// Emit sends an event to this client only.
func (c *Client) Emit(name string, data any) {
	msg, ok := c.hub.encode(name, data)
	if !ok {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	c.hub.deliver(c, name, msg)
}

// NewUpgrader accepts websocket upgrades from the given origins. An empty list or "*"
// accepts any origin.
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
		},
	}
}

// Serve runs conn until it closes or ctx ends. The client starts in the given rooms.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, id models.Identity, rooms []string, router Router) {
	c := newClient(h, conn, id, sendBuffer)
	h.register(c)
	for _, room := range rooms {
		h.Join(c, room)
	}
	logger := h.Logger.With(zap.String("user", id.Username))
	logger.Info("socket connected", zap.Strings("rooms", rooms))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump(ctx, router, logger)

	h.unregister(c)
	<-done
	logger.Info("socket disconnected")
}

func (c *Client) readPump(ctx context.Context, router Router, logger *zap.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("socket read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(ctx, router, raw, logger)
	}
}

func (c *Client) dispatch(ctx context.Context, router Router, raw []byte, logger *zap.Logger) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Name == "" {
		c.Emit("error", errorBody{Message: "malformed event"})
		return
	}
	handle, ok := router[ev.Name]
	if !ok {
		c.Emit("error", errorBody{Message: "unknown event " + ev.Name})
		return
	}
	if err := handle(ctx, c, ev.Data); err != nil {
		logger.Debug("socket event failed", zap.String("event", ev.Name), zap.Error(err))
		c.Emit("error", errorFor(err))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func errorFor(err error) errorBody {
	kind := utils.KindOf(err)
	if kind == utils.KindInternal {
		return errorBody{Message: "internal error"}
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return errorBody{Message: appErr.Message, Code: string(kind)}
	}
	return errorBody{Message: "internal error"}
}
