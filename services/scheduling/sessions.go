package scheduling

import (
	"context"
	"fmt"
	"strings"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionTransitions lists the organizer status changes that are allowed.
var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionScheduled: {models.SessionOngoing, models.SessionCancelled},
	models.SessionOngoing:   {models.SessionCompleted, models.SessionCancelled},
}

func canTransition(from, to models.SessionStatus) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateSession persists a session organized by the caller and invites the participants.
// Invitation pushes and the reminder are best effort once the session is stored.
func (s *DefaultSchedulingService) CreateSession(ctx context.Context, actor models.Identity, req models.CreateSessionRequest) (*models.StudySession, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	course := strings.TrimSpace(req.Course)
	if title == "" || course == "" {
		return nil, utils.InvalidInput("title and course are required")
	}
	if req.ScheduledTime.IsZero() {
		return nil, utils.InvalidInput("scheduledTime is required")
	}
	duration := s.defaultDuration()
	if req.Duration != nil {
		duration = *req.Duration
	}
	if duration <= 0 {
		return nil, utils.InvalidInput("duration must be a positive number of minutes")
	}
	switch req.Location.Type {
	case "", "physical", "online":
	default:
		return nil, utils.InvalidInput("location type must be physical or online")
	}

	var invitees []string
	seen := map[string]bool{actor.Username: true}
	for _, p := range req.Participants {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, utils.InvalidInput("participant identifiers must not be empty")
		}
		if !seen[p] {
			seen[p] = true
			invitees = append(invitees, p)
		}
	}
	if err := s.requireUsers(ctx, invitees); err != nil {
		return nil, err
	}

	session := &models.StudySession{
		SessionID:       uuid.NewString(),
		Title:           title,
		Course:          course,
		Organizer:       actor.Username,
		Participants:    make([]models.SessionParticipant, 0, len(invitees)),
		ScheduledTime:   req.ScheduledTime.UTC(),
		DurationMinutes: duration,
		Location:        req.Location,
		Status:          models.SessionScheduled,
		Description:     req.Description,
	}
	for _, p := range invitees {
		session.Participants = append(session.Participants, models.SessionParticipant{Username: p, Status: models.ParticipantInvited})
	}

	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	logger := s.Logger.With(zap.String("sessionId", session.SessionID), zap.String("organizer", actor.Username))
	logger.Info("study session created", zap.Int("invited", len(invitees)))

	if s.Reminders != nil {
		if err := s.Reminders.ScheduleReminder(ctx, session); err != nil {
			logger.Warn("failed to schedule reminder", zap.Error(err))
		}
	}
	for _, p := range invitees {
		s.push(ctx, logger, p, "New study session", fmt.Sprintf("%s invited you to %s (%s)", actor.Username, title, course), session)
	}
	return session, nil
}

func (s *DefaultSchedulingService) ListSessions(ctx context.Context, actor models.Identity) ([]models.StudySession, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.Repo.ListSessionsFor(ctx, actor.Username)
}

// GetSession hides sessions the caller is not part of behind NotFound.
func (s *DefaultSchedulingService) GetSession(ctx context.Context, actor models.Identity, sessionID string) (*models.StudySession, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	session, err := s.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Involves(actor.Username) {
		return nil, utils.NotFound("study session not found")
	}
	return session, nil
}

// RespondToSession records the caller's own answer. Only their participant entry is
// written, and only if nobody changed it since it was read.
func (s *DefaultSchedulingService) RespondToSession(ctx context.Context, actor models.Identity, sessionID string, response models.ParticipantStatus) (*models.StudySession, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if response != models.ParticipantAccepted && response != models.ParticipantDeclined {
		return nil, utils.InvalidInput("response must be accepted or declined")
	}
	session, err := s.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry, ok := session.Participant(actor.Username)
	if !ok {
		return nil, utils.NotFound("you are not a participant of this session")
	}
	if session.Status == models.SessionCancelled || session.Status == models.SessionCompleted {
		return nil, utils.Conflict("session is %s", session.Status)
	}
	if entry.Status == response {
		return nil, utils.Conflict("already %s", response)
	}

	if err := s.Repo.SetParticipantStatus(ctx, sessionID, actor.Username, entry.Status, response, session.Status); err != nil {
		return nil, err
	}
	entry.Status = response

	logger := s.Logger.With(zap.String("sessionId", sessionID), zap.String("username", actor.Username))
	logger.Info("session response recorded", zap.String("response", string(response)))
	s.push(ctx, logger, session.Organizer, "Study session update", fmt.Sprintf("%s %s %s", actor.Username, response, session.Title), session)
	return session, nil
}

// UpdateSessionStatus lets the organizer move a session along its lifecycle.
func (s *DefaultSchedulingService) UpdateSessionStatus(ctx context.Context, actor models.Identity, sessionID string, status models.SessionStatus) (*models.StudySession, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	session, err := s.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Involves(actor.Username) {
		return nil, utils.NotFound("study session not found")
	}
	if session.Organizer != actor.Username {
		return nil, utils.Forbidden("only the organizer can change the session status")
	}
	switch status {
	case models.SessionScheduled, models.SessionOngoing, models.SessionCompleted, models.SessionCancelled:
	default:
		return nil, utils.InvalidInput("unknown session status %q", status)
	}
	if !canTransition(session.Status, status) {
		return nil, utils.Conflict("cannot move session from %s to %s", session.Status, status)
	}

	if err := s.Repo.SetSessionStatus(ctx, sessionID, session.Status, status); err != nil {
		return nil, err
	}
	session.Status = status

	logger := s.Logger.With(zap.String("sessionId", sessionID))
	logger.Info("session status changed", zap.String("status", string(status)))
	if status == models.SessionCancelled {
		for _, p := range session.Participants {
			if p.Status != models.ParticipantDeclined {
				s.push(ctx, logger, p.Username, "Study session cancelled", session.Title+" was cancelled", session)
			}
		}
	}
	return session, nil
}

func (s *DefaultSchedulingService) push(ctx context.Context, logger *zap.Logger, username, title, body string, session *models.StudySession) {
	if s.Notifier == nil {
		return
	}
	data := map[string]string{"type": "study_session", "sessionId": session.SessionID}
	if err := s.Notifier.SendUserPushNotification(ctx, username, title, body, data); err != nil {
		logger.Warn("push notification failed", zap.String("to", username), zap.Error(err))
	}
}
