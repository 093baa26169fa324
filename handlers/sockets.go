package handlers

import (
	"studybuddy/realtime"
	"studybuddy/services/chat"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SocketHandler upgrades authenticated requests onto the realtime namespaces.
type SocketHandler struct {
	Chat     *realtime.ChatSocket
	Meetup   *realtime.MeetupSocket
	Chats    chat.ChatService
	Upgrader *websocket.Upgrader
}

// ChatSocketHandler handles GET /ws/chat?chatId=. The room is checked before the upgrade
// so a non-member gets a plain HTTP error.
func (h *SocketHandler) ChatSocketHandler(c *gin.Context) {
	id := identity(c)
	var rooms []string
	if chatID := c.Query("chatId"); chatID != "" {
		if _, err := h.Chats.Room(c.Request.Context(), id, chatID); err != nil {
			utils.RespondError(c, err)
			return
		}
		rooms = append(rooms, chatID)
	}
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		getLogger(c).Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Chat.Hub.Serve(c.Request.Context(), conn, id, rooms, h.Chat.Router())
}

// MeetupSocketHandler handles GET /ws/meet-up; rooms are joined with "join room".
func (h *SocketHandler) MeetupSocketHandler(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		getLogger(c).Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Meetup.Hub.Serve(c.Request.Context(), conn, identity(c), nil, h.Meetup.Router())
}
