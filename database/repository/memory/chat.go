package memoryRepo

import (
	"context"
	"sync"
	"time"

	"studybuddy/models"
	"studybuddy/utils"
)

// Chats implements chatRepo.ChatRepository.
type Chats struct {
	mu       sync.Mutex
	rooms    map[string]*models.Chatroom
	messages []models.Message

	// FailAppend, when set, is returned by AppendMessage.
	FailAppend error
}

func NewChats(rooms ...models.Chatroom) *Chats {
	r := &Chats{rooms: map[string]*models.Chatroom{}}
	for _, room := range rooms {
		room := room
		r.rooms[room.ID] = &room
	}
	return r
}

func (r *Chats) CreateRoom(_ context.Context, room *models.Chatroom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; ok {
		return utils.Conflict("chatroom already exists")
	}
	room.CreatedAt = time.Now()
	cp := *room
	cp.Users = append([]string(nil), room.Users...)
	r.rooms[room.ID] = &cp
	return nil
}

func (r *Chats) GetRoom(_ context.Context, id string) (*models.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, utils.NotFound("chatroom not found")
	}
	cp := *room
	cp.Users = append([]string(nil), room.Users...)
	return &cp, nil
}

func (r *Chats) ListRoomsFor(_ context.Context, username string) ([]models.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Chatroom{}
	for _, room := range r.rooms {
		if room.HasUser(username) {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (r *Chats) AddUsers(_ context.Context, id string, usernames []string) error {
	return r.update(id, func(room *models.Chatroom) {
		for _, u := range usernames {
			if !room.HasUser(u) {
				room.Users = append(room.Users, u)
			}
		}
	})
}

func (r *Chats) RemoveUser(_ context.Context, id, username string) error {
	return r.update(id, func(room *models.Chatroom) {
		kept := []string{}
		for _, u := range room.Users {
			if u != username {
				kept = append(kept, u)
			}
		}
		room.Users = kept
	})
}

func (r *Chats) SetMeetspot(_ context.Context, id string, spot *models.GeoPoint) error {
	return r.update(id, func(room *models.Chatroom) { room.Meetspot = spot })
}

func (r *Chats) update(id string, fn func(*models.Chatroom)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return utils.NotFound("chatroom not found")
	}
	fn(room)
	return nil
}

func (r *Chats) AppendMessage(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAppend != nil {
		return r.FailAppend
	}
	if msg.Sent.IsZero() {
		msg.Sent = time.Now()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *Chats) ListMessages(_ context.Context, chatID string, limit int64) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}
