package realtime

import (
	"context"
	"encoding/json"

	"studybuddy/models"
	"studybuddy/services/chat"

	"go.uber.org/zap"
)

// MeetupSocket serves the /meet-up namespace: a shared map per chatroom.
type MeetupSocket struct {
	Hub    *Hub
	Chats  chat.ChatService
	Logger *zap.Logger
}

func NewMeetupSocket(chats chat.ChatService, logger *zap.Logger) *MeetupSocket {
	return &MeetupSocket{Hub: NewHub("/meet-up", logger), Chats: chats, Logger: logger}
}

func (s *MeetupSocket) Router() Router {
	return Router{
		"join room":  s.onJoinRoom,
		"add-marker": s.onAddMarker,
	}
}

// onJoinRoom accepts the room id either bare or as {"room": id}.
func (s *MeetupSocket) onJoinRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		var in struct {
			Room string `json:"room"`
		}
		if err := decode(data, &in); err != nil {
			return err
		}
		room = in.Room
	}
	if _, err := s.Chats.Room(ctx, c.Identity, room); err != nil {
		return err
	}
	s.Hub.Join(c, room)
	return nil
}

type markerIn struct {
	Room   string          `json:"room"`
	Marker models.Marker   `json:"marker"`
	Dic    json.RawMessage `json:"dic,omitempty"`
}

func (s *MeetupSocket) onAddMarker(ctx context.Context, c *Client, data json.RawMessage) error {
	var in markerIn
	if err := decode(data, &in); err != nil {
		return err
	}
	if _, err := s.Chats.SetMeetspot(ctx, c.Identity, in.Room, in.Marker); err != nil {
		return err
	}
	s.Logger.Info("meet spot updated", zap.String("chatId", in.Room), zap.String("by", c.Identity.Username))
	s.Hub.ToRoom(in.Room, c, "newmarker", in)
	return nil
}
