package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studybuddy/services/chat"
	"studybuddy/utils"

	"go.uber.org/zap"
)

const previewLength = 50

// ChatSocket serves the /chat namespace.
type ChatSocket struct {
	Hub    *Hub
	Chats  chat.ChatService
	Logger *zap.Logger
}

func NewChatSocket(chats chat.ChatService, logger *zap.Logger) *ChatSocket {
	return &ChatSocket{Hub: NewHub("/chat", logger), Chats: chats, Logger: logger}
}

func (s *ChatSocket) Router() Router {
	return Router{
		"message":    s.onMessage,
		"leave":      s.onLeave,
		"add-users":  s.onAddUsers,
		"join-chat":  s.onJoinChat,
		"leave-chat": s.onLeaveChat,
	}
}

type messageIn struct {
	Chatroom string `json:"chatroom"`
	Body     string `json:"body"`
}

type notification struct {
	Type       string    `json:"type"`
	From       string    `json:"from,omitempty"`
	ChatID     string    `json:"chatId"`
	ChatTitle  string    `json:"chatTitle"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
	TargetUser string    `json:"targetUser,omitempty"`
	// Participants is set on group notifications.
	Participants []string `json:"participants,omitempty"`
}

// onMessage persists first; nothing is broadcast when the write fails.
func (s *ChatSocket) onMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var in messageIn
	if err := decode(data, &in); err != nil {
		return err
	}
	msg, err := s.Chats.PostMessage(ctx, c.Identity, in.Chatroom, in.Body)
	if err != nil {
		return err
	}
	s.Hub.ToRoom(msg.ChatID, c, "response", msg)

	room, err := s.Chats.Room(ctx, c.Identity, msg.ChatID)
	if err != nil {
		s.Logger.Warn("message notifications skipped", zap.String("chatId", msg.ChatID), zap.Error(err))
		return nil
	}
	others := without(room.Users, c.Identity.Username)
	n := notification{
		Type:      "message",
		From:      msg.FromUser,
		ChatID:    room.ID,
		ChatTitle: room.Title,
		Body:      preview(msg.Body),
		Timestamp: msg.Sent,
	}
	for _, username := range others {
		n.TargetUser = username
		s.Hub.ToUsers([]string{username}, nil, "notification", n)
	}
	n.TargetUser = ""
	n.Participants = others
	s.Hub.ToUsers(others, c, "group-notification", n)
	return nil
}

type roomRef struct {
	Chatroom string `json:"chatroom"`
}

func (s *ChatSocket) onLeave(ctx context.Context, c *Client, data json.RawMessage) error {
	var in roomRef
	if err := decode(data, &in); err != nil {
		return err
	}
	if err := s.Chats.Leave(ctx, c.Identity, in.Chatroom); err != nil {
		return err
	}
	user := c.Identity.Username
	s.Hub.ToRoom(in.Chatroom, c, "update-users", nil)
	s.Hub.ToRoom(in.Chatroom, c, "user-left", map[string]string{
		"user":    user,
		"message": user + " left the chat",
	})
	s.Hub.Leave(c, in.Chatroom)
	return nil
}

type addUsersIn struct {
	Chatroom string   `json:"chatroom"`
	Users    []string `json:"users"`
}

func (s *ChatSocket) onAddUsers(ctx context.Context, c *Client, data json.RawMessage) error {
	var in addUsersIn
	if err := decode(data, &in); err != nil {
		return err
	}
	before, err := s.Chats.Room(ctx, c.Identity, in.Chatroom)
	if err != nil {
		return err
	}
	after, err := s.Chats.AddUsers(ctx, c.Identity, in.Chatroom, in.Users)
	if err != nil {
		return err
	}
	var added []string
	for _, u := range after.Users {
		if !before.HasUser(u) {
			added = append(added, u)
		}
	}
	if len(added) == 0 {
		return nil
	}
	s.Hub.ToRoom(in.Chatroom, c, "update-users", nil)
	s.Hub.ToRoom(in.Chatroom, c, "users-added", map[string]any{
		"addedUsers": added,
		"message":    strings.Join(added, ", ") + " joined the chat",
	})
	for _, username := range added {
		s.Hub.ToUsers([]string{username}, nil, "notification", notification{
			Type:       "added-to-chat",
			ChatID:     after.ID,
			ChatTitle:  after.Title,
			Body:       fmt.Sprintf("You were added to %s", after.Title),
			Timestamp:  time.Now().UTC(),
			TargetUser: username,
		})
	}
	return nil
}

type chatRef struct {
	ChatID string `json:"chatId"`
}

func (s *ChatSocket) onJoinChat(ctx context.Context, c *Client, data json.RawMessage) error {
	var in chatRef
	if err := decode(data, &in); err != nil {
		return err
	}
	if _, err := s.Chats.Room(ctx, c.Identity, in.ChatID); err != nil {
		return err
	}
	s.Hub.Join(c, in.ChatID)
	return nil
}

func (s *ChatSocket) onLeaveChat(_ context.Context, c *Client, data json.RawMessage) error {
	var in chatRef
	if err := decode(data, &in); err != nil {
		return err
	}
	s.Hub.Leave(c, in.ChatID)
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return utils.InvalidInput("event data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return utils.InvalidInput("malformed event data")
	}
	return nil
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLength {
		return body
	}
	return string(r[:previewLength]) + "..."
}

func without(users []string, username string) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u != username {
			out = append(out, u)
		}
	}
	return out
}
