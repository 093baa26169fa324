package scheduling

import (
	"context"
	"sort"

	"studybuddy/models"
	"studybuddy/utils"

	"go.uber.org/zap"
)

// SuggestTimes finds common free windows for the requested participants plus the caller.
// The caller is always appended, so a request naming only others still includes them.
func (s *DefaultSchedulingService) SuggestTimes(ctx context.Context, actor models.Identity, req models.SuggestTimesRequest) ([]models.SuggestedSlot, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	duration := s.defaultDuration()
	if req.Duration != nil {
		duration = *req.Duration
	}
	if duration <= 0 {
		return nil, utils.InvalidInput("duration must be a positive number of minutes")
	}

	participants := append(append([]string{}, req.Participants...), actor.Username)
	distinct := make([]string, 0, len(participants))
	seen := map[string]bool{}
	for _, p := range participants {
		if p == "" {
			return nil, utils.InvalidInput("participant identifiers must not be empty")
		}
		if !seen[p] {
			seen[p] = true
			distinct = append(distinct, p)
		}
	}

	if err := s.requireUsers(ctx, distinct); err != nil {
		return nil, err
	}

	rows, err := s.Repo.ListAvailableFor(ctx, distinct)
	if err != nil {
		return nil, err
	}
	slots, err := s.strategy()(GroupByDay(rows), participants, duration)
	if err != nil {
		return nil, err
	}

	if limit := s.suggestionLimit(); len(slots) > limit {
		slots = slots[:limit]
	}
	s.Logger.Debug("suggested times",
		zap.String("username", actor.Username),
		zap.Strings("participants", participants),
		zap.Int("duration", duration),
		zap.Int("slots", len(slots)))
	return slots, nil
}

// requireUsers returns NotFound naming the first unknown username.
func (s *DefaultSchedulingService) requireUsers(ctx context.Context, usernames []string) error {
	users, err := s.Users.GetByUsernames(ctx, usernames)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.Username] = true
	}
	for _, name := range usernames {
		if !known[name] {
			return utils.NotFound("participant %s not found", name)
		}
	}
	return nil
}

func sortAvailability(rows []models.Availability) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DayOfWeek != rows[j].DayOfWeek {
			return rows[i].DayOfWeek < rows[j].DayOfWeek
		}
		return rows[i].StartMinute < rows[j].StartMinute
	})
}
