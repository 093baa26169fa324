// models/user.go
package models

import (
	"time"

	"studybuddy/utils"
)

// User is a registered student. Username is the stable participant identifier used by
// buddy lists, match edges, availability and sessions.
type User struct {
	ID             string    `bson:"id" json:"id"`
	Username       string    `bson:"username" json:"username"`
	PasswordHash   string    `bson:"passwordHash,omitempty" json:"-"`
	// LegacyPassword holds plaintext passwords of accounts created before hashing.
	// It is cleared on the first successful login.
	LegacyPassword string    `bson:"password,omitempty" json:"-"`
	University     string    `bson:"university" json:"university"`
	Courses        []string  `bson:"courses" json:"courses"`
	Bio            string    `bson:"bio" json:"bio"`
	AvatarURL      string    `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	AvatarID       string    `bson:"avatarId,omitempty" json:"-"`
	Buddies        []string  `bson:"buddies" json:"buddies"`
	ViewBuddy      string    `bson:"viewBuddy,omitempty" json:"viewBuddy,omitempty"`
	Reviews        []string  `bson:"reviews,omitempty" json:"reviews,omitempty"`
	Available      bool      `bson:"available" json:"available"`
	Location       *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	FCMToken       string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// GeoPoint is a GeoJSON point; Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Identity is the authenticated caller, established at login and cleared at logout.
type Identity struct {
	UserID    string
	Username  string
	SessionID string
}

// Valid reports whether the identity names a participant.
func (i Identity) Valid() bool {
	return i.UserID != "" && i.Username != ""
}

// Require returns Unauthorized for an empty identity.
func (i Identity) Require() error {
	if !i.Valid() {
		return utils.Unauthorized("login required")
	}
	return nil
}

// SignupInput is the parsed multipart signup form.
type SignupInput struct {
	Username   string
	Password   string
	University string
	Bio        string
	Courses    []string
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	University *string
	Bio        *string
	Courses    []string
}

// Review is one entry of a batch review submission.
type Review struct {
	Name    string `json:"name" binding:"required"`
	Reviews string `json:"reviews" binding:"required"`
}
