package matching

import (
	"context"

	"studybuddy/utils"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// write runs one idempotent buddy list update, retrying failures other than a
// missing user.
func (s *DefaultMatchingService) write(ctx context.Context, op func(context.Context) error) error {
	backoff := s.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}
	return retry.Do(ctx, backoff(), func(ctx context.Context) error {
		err := op(ctx)
		if err == nil || utils.IsKind(err, utils.KindNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// linkBuddies adds a and b to each other's lists. If b's side cannot be written, a's
// side is rolled back so neither list claims a one-sided buddy.
func (s *DefaultMatchingService) linkBuddies(ctx context.Context, a, b string) error {
	if err := s.write(ctx, func(ctx context.Context) error { return s.Users.AddBuddy(ctx, a, b) }); err != nil {
		return buddyError(err)
	}
	if err := s.write(ctx, func(ctx context.Context) error { return s.Users.AddBuddy(ctx, b, a) }); err != nil {
		if undoErr := s.write(ctx, func(ctx context.Context) error { return s.Users.RemoveBuddy(ctx, a, b) }); undoErr != nil {
			s.Logger.Error("buddy lists left one-sided",
				zap.String("user", a), zap.String("buddy", b), zap.Error(undoErr))
		}
		return buddyError(err)
	}
	return nil
}

// unlinkBuddies removes a and b from each other's lists, restoring a's entry if b's
// side cannot be written.
func (s *DefaultMatchingService) unlinkBuddies(ctx context.Context, a, b string, aHadB bool) error {
	if err := s.write(ctx, func(ctx context.Context) error { return s.Users.RemoveBuddy(ctx, a, b) }); err != nil {
		return buddyError(err)
	}
	if err := s.write(ctx, func(ctx context.Context) error { return s.Users.RemoveBuddy(ctx, b, a) }); err != nil {
		if aHadB {
			if undoErr := s.write(ctx, func(ctx context.Context) error { return s.Users.AddBuddy(ctx, a, b) }); undoErr != nil {
				s.Logger.Error("buddy lists left one-sided",
					zap.String("user", b), zap.String("buddy", a), zap.Error(undoErr))
			}
		}
		return buddyError(err)
	}
	return nil
}

func buddyError(err error) error {
	if utils.IsKind(err, utils.KindNotFound) {
		return err
	}
	return utils.Unavailable(err, "failed to update buddy lists, please retry")
}
