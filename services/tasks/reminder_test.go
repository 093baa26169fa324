package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]interface{}
}

type fakeEnqueuer struct {
	calls []enqueued
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	byType := map[asynq.OptionType]interface{}{}
	for _, o := range opts {
		byType[o.Type()] = o.Value()
	}
	f.calls = append(f.calls, enqueued{task: task, opts: byType})
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: byType[asynq.TaskIDOpt].(string)}, nil
}

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newScheduler(client Enqueuer) *AsynqReminderScheduler {
	s := NewAsynqReminderScheduler(client, 30*time.Minute)
	s.Now = func() time.Time { return now }
	return s
}

func TestScheduleReminderEnqueuesBeforeSession(t *testing.T) {
	client := &fakeEnqueuer{}
	session := &models.StudySession{SessionID: "s-1", ScheduledTime: now.Add(2 * time.Hour)}

	require.NoError(t, newScheduler(client).ScheduleReminder(context.Background(), session))
	require.Len(t, client.calls, 1)

	call := client.calls[0]
	assert.Equal(t, TypeSessionReminder, call.task.Type())
	var payload models.ReminderPayload
	require.NoError(t, json.Unmarshal(call.task.Payload(), &payload))
	assert.Equal(t, "s-1", payload.SessionID)
	assert.Equal(t, "reminder:s-1", call.opts[asynq.TaskIDOpt])
	fireAt, ok := call.opts[asynq.ProcessAtOpt].(time.Time)
	require.True(t, ok)
	assert.True(t, now.Add(90*time.Minute).Equal(fireAt), "fire time %v", fireAt)
}

func TestScheduleReminderSkipsPastFireTime(t *testing.T) {
	client := &fakeEnqueuer{}
	scheduler := newScheduler(client)

	for _, start := range []time.Duration{-time.Hour, 0, 30 * time.Minute, 10 * time.Minute} {
		session := &models.StudySession{SessionID: "s-2", ScheduledTime: now.Add(start)}
		require.NoError(t, scheduler.ScheduleReminder(context.Background(), session))
	}
	assert.Empty(t, client.calls)
}

func TestScheduleReminderEnqueueErrors(t *testing.T) {
	session := &models.StudySession{SessionID: "s-3", ScheduledTime: now.Add(time.Hour)}

	conflict := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	assert.NoError(t, newScheduler(conflict).ScheduleReminder(context.Background(), session))
	assert.Len(t, conflict.calls, 1)

	down := &fakeEnqueuer{err: errors.New("dial tcp: connection refused")}
	err := newScheduler(down).ScheduleReminder(context.Background(), session)
	assert.True(t, utils.IsKind(err, utils.KindDependencyUnavailable), "got %v", err)
}
