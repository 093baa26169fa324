package scheduling

import (
	"context"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"go.uber.org/zap"
)

// GetAvailability returns the caller's week grouped by day, days and slots ascending.
// Days without intervals are omitted.
func (s *DefaultSchedulingService) GetAvailability(ctx context.Context, actor models.Identity) ([]models.DailyAvailability, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	rows, err := s.Repo.ListAvailability(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	var week [7][]models.TimeInterval
	for _, row := range sortedRows(rows) {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			continue
		}
		week[row.DayOfWeek] = append(week[row.DayOfWeek], toTimeInterval(row))
	}

	out := []models.DailyAvailability{}
	for day, slots := range week {
		if len(slots) == 0 {
			continue
		}
		out = append(out, models.DailyAvailability{DayOfWeek: day, DayName: utils.DayName(day), Slots: slots})
	}
	return out, nil
}

// ReplaceAvailability swaps one day of the caller's week. An empty slot list clears it.
func (s *DefaultSchedulingService) ReplaceAvailability(ctx context.Context, actor models.Identity, req models.UpdateAvailabilityRequest) (*models.DailyAvailability, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if req.DayOfWeek == nil {
		return nil, utils.InvalidInput("dayOfWeek is required")
	}
	day := *req.DayOfWeek
	if day < 0 || day > 6 {
		return nil, utils.InvalidInput("dayOfWeek must be between 0 and 6")
	}

	now := time.Now()
	rows := make([]models.Availability, 0, len(req.Slots))
	for i, in := range req.Slots {
		start, err := utils.ParseClock(in.StartTime)
		if err != nil {
			return nil, utils.InvalidInput("slot %d: %v", i, err)
		}
		end, err := utils.ParseClock(in.EndTime)
		if err != nil {
			return nil, utils.InvalidInput("slot %d: %v", i, err)
		}
		if err := ValidateInterval(Interval{start, end}); err != nil {
			return nil, err
		}
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		rows = append(rows, models.Availability{
			Username:    actor.Username,
			DayOfWeek:   day,
			StartMinute: start,
			EndMinute:   end,
			IsAvailable: available,
			CreatedAt:   now,
		})
	}

	if err := s.Repo.ReplaceDay(ctx, actor.Username, day, rows); err != nil {
		return nil, err
	}
	s.Logger.Info("availability replaced",
		zap.String("username", actor.Username),
		zap.Int("dayOfWeek", day),
		zap.Int("slots", len(rows)))

	result := &models.DailyAvailability{DayOfWeek: day, DayName: utils.DayName(day), Slots: []models.TimeInterval{}}
	for _, row := range sortedRows(rows) {
		result.Slots = append(result.Slots, toTimeInterval(row))
	}
	return result, nil
}

func toTimeInterval(row models.Availability) models.TimeInterval {
	return models.TimeInterval{
		StartTime:   utils.FormatClock(row.StartMinute),
		EndTime:     utils.FormatClock(row.EndMinute),
		StartMinute: row.StartMinute,
		EndMinute:   row.EndMinute,
		IsAvailable: row.IsAvailable,
	}
}

func sortedRows(rows []models.Availability) []models.Availability {
	out := append([]models.Availability(nil), rows...)
	sortAvailability(out)
	return out
}
