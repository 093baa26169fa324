package models

import "time"

// Match is a directed match request from UserSent to UserTo.
type Match struct {
	UserSent  string    `bson:"userSent" json:"userSent"`
	UserTo    string    `bson:"userTo" json:"userTo"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// MatchRequest is the body of match and unmatch calls.
type MatchRequest struct {
	Username string `json:"username" binding:"required"`
}
