package matching

import (
	"context"
	"time"

	matchRepo "studybuddy/database/repository/match"
	userRepo "studybuddy/database/repository/user"
	"studybuddy/models"
	"studybuddy/services/notification"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// MatchingService turns directed match requests into mutual buddy relationships.
type MatchingService interface {
	// Match records actor -> target. A reciprocal request makes both buddies.
	Match(ctx context.Context, actor models.Identity, target string) (*MatchResult, error)
	// Unmatch removes both directed edges and both buddy entries.
	Unmatch(ctx context.Context, actor models.Identity, target string) error
	Buddies(ctx context.Context, actor models.Identity) ([]models.User, error)
	// IncomingRequests lists users who sent actor a request that is not yet mutual.
	IncomingRequests(ctx context.Context, actor models.Identity) ([]models.User, error)
	// Candidates lists same-university users actor has neither befriended nor asked.
	Candidates(ctx context.Context, actor models.Identity) ([]models.User, error)
}

// MatchResult tells the caller whether the request completed a mutual match.
type MatchResult struct {
	Matched bool   `json:"matched"`
	Buddy   string `json:"buddy,omitempty"`
}

// DefaultMatchingService is the production implementation.
type DefaultMatchingService struct {
	Users    userRepo.UserRepository
	Matches  matchRepo.MatchRepository
	Notifier notification.NotificationService
	Logger   *zap.Logger

	// Backoff builds the retry policy for each buddy list write.
	Backoff func() retry.Backoff
}

func NewDefaultMatchingService(users userRepo.UserRepository, matches matchRepo.MatchRepository, notifier notification.NotificationService, logger *zap.Logger) *DefaultMatchingService {
	return &DefaultMatchingService{
		Users:    users,
		Matches:  matches,
		Notifier: notifier,
		Logger:   logger,
		Backoff:  defaultBackoff,
	}
}

func defaultBackoff() retry.Backoff {
	b := retry.NewExponential(50 * time.Millisecond)
	b = retry.WithCappedDuration(time.Second, b)
	return retry.WithMaxRetries(3, b)
}
