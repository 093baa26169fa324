package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	schedulingRepo "studybuddy/database/repository/scheduling"
	"studybuddy/models"
	"studybuddy/services/notification"
	"studybuddy/services/tasks"
	"studybuddy/utils"

	"github.com/hibiken/asynq"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ReminderHandler delivers session reminders to the organizer and everyone who accepted.
type ReminderHandler struct {
	Sessions schedulingRepo.SchedulingRepository
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// ProcessTask implements asynq.Handler.
func (h *ReminderHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := h.Logger.With(zap.String("sessionId", p.SessionID))

	session, err := h.Sessions.GetSession(ctx, p.SessionID)
	if utils.IsKind(err, utils.KindNotFound) {
		logger.Warn("reminder for unknown session dropped")
		return nil
	}
	if err != nil {
		return err
	}
	if session.Status != models.SessionScheduled {
		logger.Debug("reminder skipped", zap.String("status", string(session.Status)))
		return nil
	}

	title := "Study session starting soon"
	body := fmt.Sprintf("%s starts at %s", session.Title, session.ScheduledTime.UTC().Format(time.Kitchen))
	data := map[string]string{"sessionId": session.SessionID, "type": "session_reminder"}

	var errs []error
	for _, username := range reminderRecipients(session) {
		if err := h.Notifier.SendUserPushNotification(ctx, username, title, body, data); err != nil {
			logger.Warn("reminder push failed", zap.String("to", username), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func reminderRecipients(session *models.StudySession) []string {
	out := []string{session.Organizer}
	for _, p := range session.Participants {
		if p.Status == models.ParticipantAccepted && p.Username != session.Organizer {
			out = append(out, p.Username)
		}
	}
	return out
}

// StartReminderWorker starts an asynq server for reminder tasks once the queue's Redis
// answers, retrying with backoff. The caller owns Shutdown.
func StartReminderWorker(ctx context.Context, redisOpt asynq.RedisClientOpt, handler *ReminderHandler) (*asynq.Server, error) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      handler.Logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeSessionReminder, handler)

	backoff := retry.WithMaxRetries(4, retry.NewExponential(2*time.Second))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := srv.Ping(); err != nil {
			handler.Logger.Warn("reminder queue not reachable", zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, utils.Unavailable(err, "reminder worker could not start")
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start reminder worker: %w", err)
	}
	handler.Logger.Info("reminder worker started")
	return srv, nil
}
