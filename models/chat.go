package models

import "time"

// Chatroom is a group conversation; Meetspot is the shared meet-up marker.
type Chatroom struct {
	ID        string    `bson:"id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Users     []string  `bson:"users" json:"users"`
	Meetspot  *GeoPoint `bson:"meetspot,omitempty" json:"meetspot,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// HasUser reports whether username is a member.
func (c *Chatroom) HasUser(username string) bool {
	for _, u := range c.Users {
		if u == username {
			return true
		}
	}
	return false
}

// Message is one entry of a chatroom's log.
type Message struct {
	ChatID   string    `bson:"chatId" json:"chatroom"`
	FromUser string    `bson:"fromUser" json:"fromUser"`
	Body     string    `bson:"body" json:"body"`
	Sent     time.Time `bson:"sent" json:"sent"`
}

// CreateChatroomRequest opens a chatroom.
type CreateChatroomRequest struct {
	Title string   `json:"title" binding:"required"`
	Users []string `json:"users"`
}

// Marker is a meet-up map pin.
type Marker struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
