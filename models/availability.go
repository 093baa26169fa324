package models

import "time"

// Availability is one stored interval of a participant's week.
type Availability struct {
	Username    string    `bson:"username" json:"username"`
	DayOfWeek   int       `bson:"dayOfWeek" json:"dayOfWeek"`     // 0 = Sunday
	StartMinute int       `bson:"startMinute" json:"startMinute"` // minutes from midnight
	EndMinute   int       `bson:"endMinute" json:"endMinute"`     // exclusive
	IsAvailable bool      `bson:"isAvailable" json:"isAvailable"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// TimeInterval is the wire form of one interval, in "HH:MM".
type TimeInterval struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
	IsAvailable bool   `json:"isAvailable"`
}

// SlotInput is one requested interval. IsAvailable defaults to true.
type SlotInput struct {
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	IsAvailable *bool  `json:"isAvailable"`
}

// UpdateAvailabilityRequest replaces one day's intervals.
type UpdateAvailabilityRequest struct {
	DayOfWeek *int        `json:"dayOfWeek" binding:"required"`
	Slots     []SlotInput `json:"slots"`
}

// DailyAvailability groups one participant's intervals for a day.
type DailyAvailability struct {
	DayOfWeek int            `json:"dayOfWeek"`
	DayName   string         `json:"dayName"`
	Slots     []TimeInterval `json:"slots"`
}

// SuggestTimesRequest asks for common free windows.
type SuggestTimesRequest struct {
	Participants []string `json:"participants"`
	Duration     *int     `json:"duration"`
}

// SuggestedSlot is a window where every participant is free. Derived, never stored.
type SuggestedSlot struct {
	DayOfWeek        int    `json:"dayOfWeek"`
	DayName          string `json:"dayName"`
	StartMinute      int    `json:"startMinute"`
	EndMinute        int    `json:"endMinute"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	ParticipantCount int    `json:"availableParticipants"`
}
