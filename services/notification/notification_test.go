package notification

import (
	"context"
	"errors"
	"testing"

	memoryRepo "studybuddy/database/repository/memory"
	"studybuddy/models"
	"studybuddy/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func newService(sender MessageSender) *DefaultNotificationService {
	users := memoryRepo.NewUsers(
		models.User{ID: "1", Username: "ana", FCMToken: "tok-ana"},
		models.User{ID: "2", Username: "ben"},
	)
	svc := &DefaultNotificationService{Users: users, Logger: zap.NewNop()}
	if sender != nil {
		svc.Sender = sender
	}
	return svc
}

func TestSendUserPushNotification(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	err := svc.SendUserPushNotification(context.Background(), "ana", "New match", "ben wants to study", map[string]string{"from": "ben"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "tok-ana", sender.sent[0].Token)
	assert.Equal(t, "New match", sender.sent[0].Notification.Title)
	assert.Equal(t, "ben", sender.sent[0].Data["from"])
}

func TestSendSkipsUsersWithoutToken(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	require.NoError(t, svc.SendUserPushNotification(context.Background(), "ben", "t", "b", nil))
	assert.Empty(t, sender.sent)
}

func TestSendWithoutSenderIsNoop(t *testing.T) {
	svc := newService(nil)
	assert.NoError(t, svc.SendUserPushNotification(context.Background(), "nobody", "t", "b", nil))
}

func TestSendFailures(t *testing.T) {
	svc := newService(&fakeSender{err: errors.New("fcm down")})

	err := svc.SendUserPushNotification(context.Background(), "ana", "t", "b", nil)
	assert.True(t, utils.IsKind(err, utils.KindDependencyUnavailable))

	err = svc.SendUserPushNotification(context.Background(), "ghost", "t", "b", nil)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}
