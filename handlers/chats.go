package handlers

import (
	"net/http"

	"studybuddy/models"
	"studybuddy/services/chat"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Service chat.ChatService
}

func NewChatHandler(svc chat.ChatService) *ChatHandler {
	return &ChatHandler{Service: svc}
}

func (h *ChatHandler) ListRoomsHandler(c *gin.Context) {
	rooms, err := h.Service.ListRooms(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if rooms == nil {
		rooms = []models.Chatroom{}
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *ChatHandler) CreateRoomHandler(c *gin.Context) {
	var req models.CreateChatroomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.Service.CreateRoom(c.Request.Context(), identity(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *ChatHandler) MessagesHandler(c *gin.Context) {
	msgs, err := h.Service.Messages(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}
