package scheduling

import (
	"context"

	schedulingRepo "studybuddy/database/repository/scheduling"
	userRepo "studybuddy/database/repository/user"
	"studybuddy/models"
	"studybuddy/services/notification"
	"studybuddy/services/tasks"

	"go.uber.org/zap"
)

const (
	defaultSuggestionLimit = 10
	defaultSessionMinutes  = 120
)

// SchedulingService covers weekly availability, time suggestions, study sessions and
// course enrollments. Every call acts on behalf of an explicit identity.
type SchedulingService interface {
	GetAvailability(ctx context.Context, actor models.Identity) ([]models.DailyAvailability, error)
	ReplaceAvailability(ctx context.Context, actor models.Identity, req models.UpdateAvailabilityRequest) (*models.DailyAvailability, error)
	SuggestTimes(ctx context.Context, actor models.Identity, req models.SuggestTimesRequest) ([]models.SuggestedSlot, error)

	CreateSession(ctx context.Context, actor models.Identity, req models.CreateSessionRequest) (*models.StudySession, error)
	ListSessions(ctx context.Context, actor models.Identity) ([]models.StudySession, error)
	GetSession(ctx context.Context, actor models.Identity, sessionID string) (*models.StudySession, error)
	RespondToSession(ctx context.Context, actor models.Identity, sessionID string, response models.ParticipantStatus) (*models.StudySession, error)
	UpdateSessionStatus(ctx context.Context, actor models.Identity, sessionID string, status models.SessionStatus) (*models.StudySession, error)

	ListCourses(ctx context.Context, actor models.Identity) ([]models.CourseEnrollment, error)
	UpsertCourse(ctx context.Context, actor models.Identity, enrollment models.CourseEnrollment) (*models.CourseEnrollment, error)
	FindPartners(ctx context.Context, actor models.Identity, courseID string, day, minute *int) ([]models.Partner, error)
}

// DefaultSchedulingService is the production implementation.
type DefaultSchedulingService struct {
	Repo      schedulingRepo.SchedulingRepository
	Users     userRepo.UserRepository
	Notifier  notification.NotificationService
	Reminders tasks.ReminderScheduler
	Logger    *zap.Logger

	Strategy        Strategy
	SuggestionLimit int
	DefaultDuration int
}

func (s *DefaultSchedulingService) strategy() Strategy {
	if s.Strategy == nil {
		return SuggestCommonSlots
	}
	return s.Strategy
}

func (s *DefaultSchedulingService) suggestionLimit() int {
	if s.SuggestionLimit <= 0 {
		return defaultSuggestionLimit
	}
	return s.SuggestionLimit
}

func (s *DefaultSchedulingService) defaultDuration() int {
	if s.DefaultDuration <= 0 {
		return defaultSessionMinutes
	}
	return s.DefaultDuration
}
