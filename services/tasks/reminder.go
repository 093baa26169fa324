package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSessionReminder = "session:reminder"

// ReminderTaskID is the asynq task id of a session's reminder, one per session.
func ReminderTaskID(sessionID string) string {
	return "reminder:" + sessionID
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSessionReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(payload.SessionID)),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// ReminderScheduler enqueues study session reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, session *models.StudySession) error
}

// Enqueuer is the part of asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReminderScheduler fires reminders Lead before a session starts.
type AsynqReminderScheduler struct {
	Client Enqueuer
	Lead   time.Duration
	Now    func() time.Time
}

func NewAsynqReminderScheduler(client Enqueuer, lead time.Duration) *AsynqReminderScheduler {
	return &AsynqReminderScheduler{Client: client, Lead: lead, Now: time.Now}
}

// ScheduleReminder skips sessions whose reminder time has passed. A reminder already
// queued for the session is left as is.
func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, session *models.StudySession) error {
	fireAt := session.ScheduledTime.Add(-s.Lead)
	if !fireAt.After(s.Now()) {
		return nil
	}
	task, opts, err := NewReminderTask(models.ReminderPayload{SessionID: session.SessionID}, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return utils.Unavailable(err, "failed to enqueue reminder")
	}
	utils.GetLogger().Debug("reminder scheduled",
		zap.String("sessionId", session.SessionID),
		zap.String("taskId", info.ID),
		zap.Time("fireAt", fireAt))
	return nil
}
