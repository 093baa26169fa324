package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	chatRepo "studybuddy/database/repository/chat"
	userRepo "studybuddy/database/repository/user"
	"studybuddy/models"
	"studybuddy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 2000
	historyLimit     = 200
)

// ChatService manages chatrooms, their members, message logs and meet spots.
type ChatService interface {
	ListRooms(ctx context.Context, actor models.Identity) ([]models.Chatroom, error)
	CreateRoom(ctx context.Context, actor models.Identity, req models.CreateChatroomRequest) (*models.Chatroom, error)
	// Room returns a chatroom the actor belongs to.
	Room(ctx context.Context, actor models.Identity, chatID string) (*models.Chatroom, error)
	Messages(ctx context.Context, actor models.Identity, chatID string) ([]models.Message, error)
	// PostMessage persists a message from the actor.
	PostMessage(ctx context.Context, actor models.Identity, chatID, body string) (*models.Message, error)
	AddUsers(ctx context.Context, actor models.Identity, chatID string, usernames []string) (*models.Chatroom, error)
	Leave(ctx context.Context, actor models.Identity, chatID string) error
	SetMeetspot(ctx context.Context, actor models.Identity, chatID string, marker models.Marker) (*models.GeoPoint, error)
}

// DefaultChatService is the production implementation.
type DefaultChatService struct {
	Repo   chatRepo.ChatRepository
	Users  userRepo.UserRepository
	Logger *zap.Logger
}

func (s *DefaultChatService) ListRooms(ctx context.Context, actor models.Identity) ([]models.Chatroom, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.Repo.ListRoomsFor(ctx, actor.Username)
}

func (s *DefaultChatService) CreateRoom(ctx context.Context, actor models.Identity, req models.CreateChatroomRequest) (*models.Chatroom, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, utils.InvalidInput("title is required")
	}
	members, err := s.existingUsers(ctx, append([]string{actor.Username}, req.Users...))
	if err != nil {
		return nil, err
	}
	room := &models.Chatroom{ID: uuid.NewString(), Title: title, Users: members}
	if err := s.Repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	s.Logger.Info("chatroom created", zap.String("chatId", room.ID), zap.Int("members", len(members)))
	return room, nil
}

func (s *DefaultChatService) Room(ctx context.Context, actor models.Identity, chatID string) (*models.Chatroom, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	room, err := s.Repo.GetRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !room.HasUser(actor.Username) {
		return nil, utils.NotFound("chatroom not found")
	}
	return room, nil
}

func (s *DefaultChatService) Messages(ctx context.Context, actor models.Identity, chatID string) ([]models.Message, error) {
	if _, err := s.Room(ctx, actor, chatID); err != nil {
		return nil, err
	}
	return s.Repo.ListMessages(ctx, chatID, historyLimit)
}

func (s *DefaultChatService) PostMessage(ctx context.Context, actor models.Identity, chatID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, utils.InvalidInput("message is empty")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, utils.InvalidInput("message is longer than %d characters", maxMessageLength)
	}
	if _, err := s.Room(ctx, actor, chatID); err != nil {
		return nil, err
	}
	msg := &models.Message{ChatID: chatID, FromUser: actor.Username, Body: body}
	if err := s.Repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *DefaultChatService) AddUsers(ctx context.Context, actor models.Identity, chatID string, usernames []string) (*models.Chatroom, error) {
	if _, err := s.Room(ctx, actor, chatID); err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return nil, utils.InvalidInput("no users given")
	}
	added, err := s.existingUsers(ctx, usernames)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddUsers(ctx, chatID, added); err != nil {
		return nil, err
	}
	return s.Repo.GetRoom(ctx, chatID)
}

func (s *DefaultChatService) Leave(ctx context.Context, actor models.Identity, chatID string) error {
	if _, err := s.Room(ctx, actor, chatID); err != nil {
		return err
	}
	return s.Repo.RemoveUser(ctx, chatID, actor.Username)
}

func (s *DefaultChatService) SetMeetspot(ctx context.Context, actor models.Identity, chatID string, marker models.Marker) (*models.GeoPoint, error) {
	if marker.Lat < -90 || marker.Lat > 90 || marker.Lng < -180 || marker.Lng > 180 {
		return nil, utils.InvalidInput("coordinates out of range")
	}
	if _, err := s.Room(ctx, actor, chatID); err != nil {
		return nil, err
	}
	spot := models.NewGeoPoint(marker.Lat, marker.Lng)
	if err := s.Repo.SetMeetspot(ctx, chatID, spot); err != nil {
		return nil, err
	}
	return spot, nil
}

// existingUsers dedupes usernames and fails with NotFound on the first unknown one.
func (s *DefaultChatService) existingUsers(ctx context.Context, usernames []string) ([]string, error) {
	var wanted []string
	seen := map[string]bool{}
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		wanted = append(wanted, u)
	}
	found, err := s.Users.GetByUsernames(ctx, wanted)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, u := range found {
		known[u.Username] = true
	}
	for _, u := range wanted {
		if !known[u] {
			return nil, utils.NotFound("user %s not found", u)
		}
	}
	return wanted, nil
}
