package scheduling

import (
	"fmt"
	"sort"

	"studybuddy/models"
	"studybuddy/utils"
)

// Interval is a half-open [Start, End) range of minutes from midnight.
type Interval struct {
	Start int
	End   int
}

func (i Interval) overlaps(o Interval) bool {
	return o.Start < i.End && o.End > i.Start
}

// DayAvailability maps a participant to their available intervals on one day.
type DayAvailability map[string][]Interval

// Strategy computes common windows for a participant list.
type Strategy func(byDay map[int]DayAvailability, participants []string, duration int) ([]models.SuggestedSlot, error)

const (
	StrategyAnchored = "anchored"
	StrategySweep    = "sweep"
)

// StrategyFor resolves a configured strategy name. Unknown names fall back to anchored.
func StrategyFor(name string) Strategy {
	if name == StrategySweep {
		return SweepCommonSlots
	}
	return SuggestCommonSlots
}

// SuggestCommonSlots anchors on the first participant's intervals. Each candidate is
// narrowed by every overlapping interval of each remaining participant in turn and is
// dropped as soon as one participant has no overlap left. Windows that exist only
// outside the first participant's intervals are never found, so reordering the
// participants can change the result.
func SuggestCommonSlots(byDay map[int]DayAvailability, participants []string, duration int) ([]models.SuggestedSlot, error) {
	if err := validate(byDay, participants, duration); err != nil {
		return nil, err
	}
	slots := []models.SuggestedSlot{}
	if len(participants) == 0 {
		return slots, nil
	}

	for day := 0; day < 7; day++ {
		avail := byDay[day]
		if !everyoneHasIntervals(avail, participants) {
			continue
		}
		for _, candidate := range sortedByStart(avail[participants[0]]) {
			window, ok := narrow(candidate, avail, participants[1:])
			if !ok || window.End-window.Start < duration {
				continue
			}
			slots = append(slots, newSlot(day, window, len(participants)))
		}
	}
	sortSlots(slots)
	return slots, nil
}

func narrow(window Interval, avail DayAvailability, others []string) (Interval, bool) {
	for _, p := range others {
		found := false
		for _, other := range sortedByStart(avail[p]) {
			if !window.overlaps(other) {
				continue
			}
			window.Start = max(window.Start, other.Start)
			window.End = min(window.End, other.End)
			found = true
		}
		if !found {
			return Interval{}, false
		}
	}
	return window, true
}

// SweepCommonSlots computes the true intersection of everyone's availability: the
// maximal windows during which every distinct participant is free. A repeated
// participant is satisfied by their own intervals. Touching or overlapping rows of one
// participant count as a single free stretch.
func SweepCommonSlots(byDay map[int]DayAvailability, participants []string, duration int) ([]models.SuggestedSlot, error) {
	if err := validate(byDay, participants, duration); err != nil {
		return nil, err
	}
	slots := []models.SuggestedSlot{}
	if len(participants) == 0 {
		return slots, nil
	}

	distinct := make([]string, 0, len(participants))
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if !seen[p] {
			seen[p] = true
			distinct = append(distinct, p)
		}
	}

	type event struct {
		at    int
		delta int
	}

	for day := 0; day < 7; day++ {
		avail := byDay[day]
		if !everyoneHasIntervals(avail, participants) {
			continue
		}
		var events []event
		for _, p := range distinct {
			for _, iv := range merge(avail[p]) {
				events = append(events, event{iv.Start, 1}, event{iv.End, -1})
			}
		}
		// Ends sort before starts at the same minute so touching intervals never meet.
		sort.Slice(events, func(i, j int) bool {
			if events[i].at != events[j].at {
				return events[i].at < events[j].at
			}
			return events[i].delta < events[j].delta
		})

		active, openedAt := 0, -1
		for _, ev := range events {
			active += ev.delta
			switch {
			case active == len(distinct) && ev.delta > 0:
				openedAt = ev.at
			case openedAt >= 0 && active < len(distinct):
				if ev.at-openedAt >= duration {
					slots = append(slots, newSlot(day, Interval{openedAt, ev.at}, len(participants)))
				}
				openedAt = -1
			}
		}
	}
	sortSlots(slots)
	return slots, nil
}

// merge unions one participant's possibly overlapping intervals.
func merge(intervals []Interval) []Interval {
	sorted := sortedByStart(intervals)
	var out []Interval
	for _, iv := range sorted {
		if n := len(out); n > 0 && iv.Start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}

func validate(byDay map[int]DayAvailability, participants []string, duration int) error {
	if duration <= 0 {
		return utils.InvalidInput("duration must be a positive number of minutes")
	}
	for _, p := range participants {
		if p == "" {
			return utils.InvalidInput("participant identifiers must not be empty")
		}
	}
	for day, avail := range byDay {
		if day < 0 || day > 6 {
			return utils.InvalidInput("day of week %d out of range", day)
		}
		for p, intervals := range avail {
			for _, iv := range intervals {
				if problem := intervalProblem(iv); problem != "" {
					return utils.InvalidInput("%s on %s: %s", p, utils.DayName(day), problem)
				}
			}
		}
	}
	return nil
}

// ValidateInterval checks 0 <= Start < End <= 1440.
func ValidateInterval(iv Interval) error {
	if problem := intervalProblem(iv); problem != "" {
		return utils.InvalidInput("%s", problem)
	}
	return nil
}

func intervalProblem(iv Interval) string {
	if iv.Start < 0 || iv.End > utils.MinutesPerDay {
		return fmt.Sprintf("interval %d-%d is outside the day", iv.Start, iv.End)
	}
	if iv.Start >= iv.End {
		return fmt.Sprintf("interval start %s must be before end %s", utils.FormatClock(iv.Start), utils.FormatClock(iv.End))
	}
	return ""
}

func everyoneHasIntervals(avail DayAvailability, participants []string) bool {
	for _, p := range participants {
		if len(avail[p]) == 0 {
			return false
		}
	}
	return true
}

func sortedByStart(intervals []Interval) []Interval {
	out := append([]Interval(nil), intervals...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func sortSlots(slots []models.SuggestedSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
}

func newSlot(day int, window Interval, count int) models.SuggestedSlot {
	return models.SuggestedSlot{
		DayOfWeek:        day,
		DayName:          utils.DayName(day),
		StartMinute:      window.Start,
		EndMinute:        window.End,
		StartTime:        utils.FormatClock(window.Start),
		EndTime:          utils.FormatClock(window.End),
		ParticipantCount: count,
	}
}

// GroupByDay turns stored rows into the intersector's input, skipping unavailable rows.
func GroupByDay(rows []models.Availability) map[int]DayAvailability {
	byDay := make(map[int]DayAvailability)
	for _, row := range rows {
		if !row.IsAvailable {
			continue
		}
		if byDay[row.DayOfWeek] == nil {
			byDay[row.DayOfWeek] = DayAvailability{}
		}
		byDay[row.DayOfWeek][row.Username] = append(byDay[row.DayOfWeek][row.Username], Interval{row.StartMinute, row.EndMinute})
	}
	return byDay
}
