package cron

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	memoryRepo "studybuddy/database/repository/memory"
	"studybuddy/models"
	"studybuddy/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func (n *recordingNotifier) SendUserPushNotification(_ context.Context, username, _, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, username)
	return n.fail[username]
}

func reminderTask(t *testing.T, sessionID string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(models.ReminderPayload{SessionID: sessionID})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeSessionReminder, b)
}

func seedSession(t *testing.T, repo *memoryRepo.Scheduling, status models.SessionStatus) {
	t.Helper()
	require.NoError(t, repo.CreateSession(context.Background(), &models.StudySession{
		SessionID: "s1",
		Title:     "Linear algebra",
		Organizer: "alice",
		Participants: []models.SessionParticipant{
			{Username: "bob", Status: models.ParticipantAccepted},
			{Username: "carol", Status: models.ParticipantInvited},
			{Username: "dave", Status: models.ParticipantDeclined},
		},
		ScheduledTime: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		Status:        status,
	}))
}

func TestReminderGoesToOrganizerAndAccepted(t *testing.T) {
	repo := memoryRepo.NewScheduling()
	seedSession(t, repo, models.SessionScheduled)
	n := &recordingNotifier{}
	h := &ReminderHandler{Sessions: repo, Notifier: n, Logger: zap.NewNop()}

	require.NoError(t, h.ProcessTask(context.Background(), reminderTask(t, "s1")))
	assert.Equal(t, []string{"alice", "bob"}, n.sent)
}

func TestReminderSkipsInactiveSessions(t *testing.T) {
	for _, status := range []models.SessionStatus{models.SessionCancelled, models.SessionOngoing, models.SessionCompleted} {
		t.Run(string(status), func(t *testing.T) {
			repo := memoryRepo.NewScheduling()
			seedSession(t, repo, status)
			n := &recordingNotifier{}
			h := &ReminderHandler{Sessions: repo, Notifier: n, Logger: zap.NewNop()}

			require.NoError(t, h.ProcessTask(context.Background(), reminderTask(t, "s1")))
			assert.Empty(t, n.sent)
		})
	}
}

func TestReminderErrors(t *testing.T) {
	repo := memoryRepo.NewScheduling()
	seedSession(t, repo, models.SessionScheduled)
	boom := errors.New("fcm down")
	n := &recordingNotifier{fail: map[string]error{"alice": boom}}
	h := &ReminderHandler{Sessions: repo, Notifier: n, Logger: zap.NewNop()}

	err := h.ProcessTask(context.Background(), reminderTask(t, "s1"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"alice", "bob"}, n.sent, "one failed push does not stop the rest")

	assert.NoError(t, h.ProcessTask(context.Background(), reminderTask(t, "missing")))

	err = h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeSessionReminder, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
