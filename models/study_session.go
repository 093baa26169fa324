package models

import "time"

type ParticipantStatus string

const (
	ParticipantInvited  ParticipantStatus = "invited"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionOngoing   SessionStatus = "ongoing"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionParticipant is one invitee. Only that participant may change Status.
type SessionParticipant struct {
	Username string            `bson:"username" json:"username"`
	Status   ParticipantStatus `bson:"status" json:"status"`
}

// SessionLocation is where a session happens.
type SessionLocation struct {
	Type    string `bson:"type,omitempty" json:"type,omitempty"` // "physical" or "online"
	Details string `bson:"details,omitempty" json:"details,omitempty"`
}

// StudySession is a scheduled meeting. Sessions are never deleted; cancellation is a status.
type StudySession struct {
	SessionID       string               `bson:"sessionId" json:"sessionId"`
	Title           string               `bson:"title" json:"title"`
	Course          string               `bson:"course" json:"course"`
	Organizer       string               `bson:"organizer" json:"organizer"`
	Participants    []SessionParticipant `bson:"participants" json:"participants"`
	ScheduledTime   time.Time            `bson:"scheduledTime" json:"scheduledTime"`
	DurationMinutes int                  `bson:"duration" json:"duration"`
	Location        SessionLocation      `bson:"location" json:"location"`
	Status          SessionStatus        `bson:"status" json:"status"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Participant returns the entry for username, if invited.
func (s *StudySession) Participant(username string) (*SessionParticipant, bool) {
	for i := range s.Participants {
		if s.Participants[i].Username == username {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// Involves reports whether username organizes or was invited to the session.
func (s *StudySession) Involves(username string) bool {
	if s.Organizer == username {
		return true
	}
	_, ok := s.Participant(username)
	return ok
}

// CreateSessionRequest is the body of a create call.
type CreateSessionRequest struct {
	Title         string          `json:"title" binding:"required"`
	Course        string          `json:"course" binding:"required"`
	Participants  []string        `json:"participants"`
	ScheduledTime time.Time       `json:"scheduledTime" binding:"required"`
	Duration      *int            `json:"duration"`
	Location      SessionLocation `json:"location"`
	Description   string          `json:"description"`
}

// RespondRequest carries a participant's answer.
type RespondRequest struct {
	Response ParticipantStatus `json:"response" binding:"required"`
}

// SessionStatusRequest carries an organizer status change.
type SessionStatusRequest struct {
	Status SessionStatus `json:"status" binding:"required"`
}
