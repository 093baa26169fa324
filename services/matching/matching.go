package matching

import (
	"context"
	"strings"

	"studybuddy/models"
	"studybuddy/utils"

	"go.uber.org/zap"
)

func (s *DefaultMatchingService) Match(ctx context.Context, actor models.Identity, target string) (*MatchResult, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, utils.InvalidInput("username is required")
	}
	if target == actor.Username {
		return nil, utils.InvalidInput("you cannot match with yourself")
	}
	exists, err := s.Users.Exists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.NotFound("user %s not found", target)
	}

	if err := s.Matches.Create(ctx, models.Match{UserSent: actor.Username, UserTo: target}); err != nil {
		return nil, err
	}
	logger := s.Logger.With(zap.String("from", actor.Username), zap.String("to", target))

	reciprocal, err := s.Matches.Exists(ctx, target, actor.Username)
	if err != nil {
		s.dropEdge(ctx, logger, actor.Username, target)
		return nil, err
	}
	if !reciprocal {
		logger.Info("match request sent")
		s.push(ctx, logger, target, "New study buddy request", actor.Username+" wants to study with you")
		return &MatchResult{Matched: false}, nil
	}

	if err := s.linkBuddies(ctx, actor.Username, target); err != nil {
		s.dropEdge(ctx, logger, actor.Username, target)
		return nil, err
	}
	logger.Info("mutual match, buddies linked")
	s.push(ctx, logger, target, "It's a match!", actor.Username+" is now your study buddy")
	return &MatchResult{Matched: true, Buddy: target}, nil
}

// dropEdge withdraws a freshly recorded request whose follow-up failed, so the caller
// can send it again.
func (s *DefaultMatchingService) dropEdge(ctx context.Context, logger *zap.Logger, sender, recipient string) {
	if err := s.Matches.Delete(ctx, sender, recipient); err != nil {
		logger.Error("failed to withdraw match request", zap.Error(err))
	}
}

func (s *DefaultMatchingService) Unmatch(ctx context.Context, actor models.Identity, target string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return utils.InvalidInput("username is required")
	}
	if target == actor.Username {
		return utils.InvalidInput("you cannot unmatch yourself")
	}
	me, err := s.Users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}
	exists, err := s.Users.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return utils.NotFound("user %s not found", target)
	}

	if err := s.unlinkBuddies(ctx, actor.Username, target, contains(me.Buddies, target)); err != nil {
		return err
	}
	removed, err := s.Matches.DeleteBetween(ctx, actor.Username, target)
	if err != nil {
		return err
	}
	s.Logger.Info("unmatched",
		zap.String("user", actor.Username),
		zap.String("other", target),
		zap.Int64("edgesRemoved", removed))
	return nil
}

func (s *DefaultMatchingService) Buddies(ctx context.Context, actor models.Identity) ([]models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	me, err := s.Users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	return s.Users.GetByUsernames(ctx, me.Buddies)
}

func (s *DefaultMatchingService) IncomingRequests(ctx context.Context, actor models.Identity) ([]models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	me, err := s.Users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	senders, err := s.Matches.ListSentTo(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	pending := make([]string, 0, len(senders))
	for _, sender := range senders {
		if !contains(me.Buddies, sender) {
			pending = append(pending, sender)
		}
	}
	return s.Users.GetByUsernames(ctx, pending)
}

func (s *DefaultMatchingService) Candidates(ctx context.Context, actor models.Identity) ([]models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	me, err := s.Users.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(me.University) == "" {
		return []models.User{}, nil
	}
	sent, err := s.Matches.ListSentBy(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	exclude := append([]string{actor.Username}, me.Buddies...)
	exclude = append(exclude, sent...)
	return s.Users.ListByUniversity(ctx, me.University, exclude)
}

func (s *DefaultMatchingService) push(ctx context.Context, logger *zap.Logger, to, title, body string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendUserPushNotification(ctx, to, title, body, map[string]string{"type": "match"}); err != nil {
		logger.Warn("push notification failed", zap.Error(err))
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
