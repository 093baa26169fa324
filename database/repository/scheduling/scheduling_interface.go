package schedulingRepo

import (
	"context"

	"studybuddy/models"
)

// SchedulingRepository stores weekly availability, study sessions and course enrollments.
type SchedulingRepository interface {
	// ListAvailability returns every interval of username ordered by day then start.
	ListAvailability(ctx context.Context, username string) ([]models.Availability, error)
	// ReplaceDay swaps username's intervals for one day with rows.
	ReplaceDay(ctx context.Context, username string, day int, rows []models.Availability) error
	// ListAvailableFor returns isAvailable intervals of all usernames ordered by day then start.
	ListAvailableFor(ctx context.Context, usernames []string) ([]models.Availability, error)

	CreateSession(ctx context.Context, session *models.StudySession) error
	GetSession(ctx context.Context, sessionID string) (*models.StudySession, error)
	// ListSessionsFor returns sessions organized by or inviting username, by scheduled time.
	ListSessionsFor(ctx context.Context, username string) ([]models.StudySession, error)
	// SetParticipantStatus moves username's entry from one status to another. The write
	// only lands if the entry still holds from and the session still holds sessionStatus.
	SetParticipantStatus(ctx context.Context, sessionID, username string, from, to models.ParticipantStatus, sessionStatus models.SessionStatus) error
	// SetSessionStatus moves the session from one status to another, conditional on from.
	SetSessionStatus(ctx context.Context, sessionID string, from, to models.SessionStatus) error

	UpsertEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error
	ListEnrollments(ctx context.Context, username string) ([]models.CourseEnrollment, error)
	// ListEnrollmentsByCourse returns enrollments in courseID by anyone but exclude.
	ListEnrollmentsByCourse(ctx context.Context, courseID, exclude string) ([]models.CourseEnrollment, error)
}
