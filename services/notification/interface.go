package notification

import (
	"context"
	"fmt"

	userRepo "studybuddy/database/repository/user"
	"studybuddy/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NotificationService defines methods for sending FCM pushes.
type NotificationService interface {
	SendUserPushNotification(ctx context.Context, username, title, body string, data map[string]string) error
}

// MessageSender is the part of the FCM client the service uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// DefaultNotificationService is the production implementation. With a nil Sender
// every push is logged and dropped.
type DefaultNotificationService struct {
	Users  userRepo.UserRepository
	Sender MessageSender
	Logger *zap.Logger
}

func NewDefaultNotificationService(users userRepo.UserRepository, sender MessageSender) *DefaultNotificationService {
	return &DefaultNotificationService{Users: users, Sender: sender, Logger: utils.GetLogger()}
}

// NewFCMClient initializes Firebase messaging from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting messaging client: %w", err)
	}
	return client, nil
}

// SendUserPushNotification looks up a user's FCM token and sends a push. Users without a
// token are skipped.
func (s *DefaultNotificationService) SendUserPushNotification(ctx context.Context, username, title, body string, data map[string]string) error {
	logger := s.Logger.With(zap.String("username", username), zap.String("title", title))
	if s.Sender == nil {
		logger.Debug("push notifications disabled, dropping message")
		return nil
	}

	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("could not find user %s: %w", username, err)
	}
	if u.FCMToken == "" {
		logger.Debug("user has no FCM token, skipping push")
		return nil
	}

	msg := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	id, err := s.Sender.Send(ctx, msg)
	if err != nil {
		return utils.Unavailable(err, "failed to send push notification")
	}
	logger.Debug("push notification sent", zap.String("messageId", id))
	return nil
}
