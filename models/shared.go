package models

// ReminderPayload is the task body of a study session reminder.
type ReminderPayload struct {
	SessionID string `json:"sessionId"`
}
