package scheduling

import (
	"math/rand"
	"testing"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monday    = 1
	wednesday = 3
)

func slot(day, start, end, count int) models.SuggestedSlot {
	return newSlot(day, Interval{start, end}, count)
}

func TestSuggestCommonSlots(t *testing.T) {
	tests := []struct {
		name         string
		byDay        map[int]DayAvailability
		participants []string
		duration     int
		want         []models.SuggestedSlot
	}{
		{
			name: "narrows to the inner window",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 720}}, "y": {{600, 660}}},
			},
			participants: []string{"x", "y"},
			duration:     30,
			want:         []models.SuggestedSlot{slot(monday, 600, 660, 2)},
		},
		{
			name: "touching intervals do not overlap",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 600}}, "y": {{600, 660}}},
			},
			participants: []string{"x", "y"},
			duration:     15,
			want:         []models.SuggestedSlot{},
		},
		{
			name: "day without everyone is eliminated",
			byDay: map[int]DayAvailability{
				monday:    {"x": {{540, 720}}, "y": {{600, 660}}},
				wednesday: {"x": {{540, 720}}},
			},
			participants: []string{"x", "y"},
			duration:     30,
			want:         []models.SuggestedSlot{slot(monday, 600, 660, 2)},
		},
		{
			name: "window shorter than duration is dropped",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 720}}, "y": {{600, 620}}},
			},
			participants: []string{"x", "y"},
			duration:     30,
			want:         []models.SuggestedSlot{},
		},
		{
			name: "exact duration is kept",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 720}}, "y": {{600, 630}}},
			},
			participants: []string{"x", "y"},
			duration:     30,
			want:         []models.SuggestedSlot{slot(monday, 600, 630, 2)},
		},
		{
			name: "ordered by day then start",
			byDay: map[int]DayAvailability{
				wednesday: {"x": {{800, 900}, {600, 700}}, "y": {{0, 1440}}},
				monday:    {"x": {{540, 600}}, "y": {{500, 1000}}},
			},
			participants: []string{"x", "y"},
			duration:     30,
			want: []models.SuggestedSlot{
				slot(monday, 540, 600, 2),
				slot(wednesday, 600, 700, 2),
				slot(wednesday, 800, 900, 2),
			},
		},
		{
			name: "duplicates count as separate attendees",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 720}}, "y": {{600, 660}}},
			},
			participants: []string{"x", "x", "y"},
			duration:     30,
			want:         []models.SuggestedSlot{slot(monday, 600, 660, 3)},
		},
		{
			name: "single participant gets their own intervals",
			byDay: map[int]DayAvailability{
				monday: {"x": {{540, 720}}},
			},
			participants: []string{"x"},
			duration:     60,
			want:         []models.SuggestedSlot{slot(monday, 540, 720, 1)},
		},
		{
			name:         "no participants",
			byDay:        map[int]DayAvailability{monday: {"x": {{540, 720}}}},
			participants: nil,
			duration:     30,
			want:         []models.SuggestedSlot{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SuggestCommonSlots(tt.byDay, tt.participants, tt.duration)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SuggestCommonSlots() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSuggestCommonSlotsDependsOnBaseParticipant(t *testing.T) {
	byDay := map[int]DayAvailability{
		monday: {
			"x": {{540, 600}, {660, 720}},
			"y": {{500, 800}},
		},
	}

	xFirst, err := SuggestCommonSlots(byDay, []string{"x", "y"}, 30)
	require.NoError(t, err)
	yFirst, err := SuggestCommonSlots(byDay, []string{"y", "x"}, 30)
	require.NoError(t, err)

	assert.Equal(t, []models.SuggestedSlot{slot(monday, 540, 600, 2), slot(monday, 660, 720, 2)}, xFirst)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 540, 600, 2)}, yFirst)

	for _, order := range [][]string{{"x", "y"}, {"y", "x"}} {
		swept, err := SweepCommonSlots(byDay, order, 30)
		require.NoError(t, err)
		assert.Equal(t, xFirst, swept, "sweep must not depend on order %v", order)
	}
}

func TestSweepCommonSlots(t *testing.T) {
	byDay := map[int]DayAvailability{
		monday: {
			"a": {{480, 720}},
			"b": {{540, 660}, {690, 780}},
			"c": {{500, 1000}},
		},
	}

	swept, err := SweepCommonSlots(byDay, []string{"a", "b", "c"}, 30)
	require.NoError(t, err)
	if diff := cmp.Diff([]models.SuggestedSlot{slot(monday, 540, 660, 3), slot(monday, 690, 720, 3)}, swept); diff != "" {
		t.Errorf("SweepCommonSlots() mismatch (-want +got):\n%s", diff)
	}

	anchored, err := SuggestCommonSlots(byDay, []string{"a", "b", "c"}, 30)
	require.NoError(t, err)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 540, 660, 3)}, anchored)
}

func TestSweepCommonSlotsTouchingAndDuplicates(t *testing.T) {
	byDay := map[int]DayAvailability{
		monday: {"x": {{540, 600}}, "y": {{600, 660}}},
	}
	got, err := SweepCommonSlots(byDay, []string{"x", "y"}, 15)
	require.NoError(t, err)
	assert.Empty(t, got)

	byDay = map[int]DayAvailability{
		monday: {"x": {{540, 720}}, "y": {{600, 660}}},
	}
	got, err = SweepCommonSlots(byDay, []string{"x", "y", "y"}, 30)
	require.NoError(t, err)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 600, 660, 3)}, got)
}

func TestSweepJoinsTouchingRowsOfOneParticipant(t *testing.T) {
	byDay := map[int]DayAvailability{
		monday: {"x": {{540, 600}, {600, 660}}, "y": {{540, 660}}},
	}

	anchored, err := SuggestCommonSlots(byDay, []string{"x", "y"}, 90)
	require.NoError(t, err)
	assert.Empty(t, anchored)

	swept, err := SweepCommonSlots(byDay, []string{"x", "y"}, 90)
	require.NoError(t, err)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 540, 660, 2)}, swept)
}

func TestIntersectRejectsMalformedInput(t *testing.T) {
	valid := map[int]DayAvailability{monday: {"x": {{540, 720}}}}
	tests := []struct {
		name         string
		byDay        map[int]DayAvailability
		participants []string
		duration     int
	}{
		{"zero duration", valid, []string{"x"}, 0},
		{"negative duration", valid, []string{"x"}, -30},
		{"empty participant", valid, []string{"x", ""}, 30},
		{"start after end", map[int]DayAvailability{monday: {"x": {{720, 540}}}}, []string{"x"}, 30},
		{"empty interval", map[int]DayAvailability{monday: {"x": {{540, 540}}}}, []string{"x"}, 30},
		{"negative start", map[int]DayAvailability{monday: {"x": {{-10, 540}}}}, []string{"x"}, 30},
		{"past midnight", map[int]DayAvailability{monday: {"x": {{540, 1500}}}}, []string{"x"}, 30},
		{"bad day", map[int]DayAvailability{7: {"x": {{540, 720}}}}, []string{"x"}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, strategy := range map[string]Strategy{StrategyAnchored: SuggestCommonSlots, StrategySweep: SweepCommonSlots} {
				_, err := strategy(tt.byDay, tt.participants, tt.duration)
				assert.True(t, utils.IsKind(err, utils.KindInvalidInput), "%s: got %v", name, err)
			}
		})
	}
}

// randomWeek builds intervals per participant and day. Consecutive intervals of one
// participant may be disjoint, touching or overlapping.
func randomWeek(rng *rand.Rand, participants []string) map[int]DayAvailability {
	byDay := map[int]DayAvailability{}
	for day := 0; day < 7; day++ {
		avail := DayAvailability{}
		for _, p := range participants {
			cur := rng.Intn(240)
			for i := rng.Intn(4); i > 0; i-- {
				start := max(cur+rng.Intn(90)-20, 0)
				end := start + 15 + rng.Intn(240)
				if end > utils.MinutesPerDay {
					break
				}
				avail[p] = append(avail[p], Interval{start, end})
				cur = end
			}
		}
		byDay[day] = avail
	}
	return byDay
}

func containedIn(s models.SuggestedSlot, intervals []Interval) bool {
	for _, iv := range intervals {
		if iv.Start <= s.StartMinute && s.EndMinute <= iv.End {
			return true
		}
	}
	return false
}

func TestIntersectProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	participants := []string{"ana", "ben", "chen"}

	for round := 0; round < 200; round++ {
		byDay := randomWeek(rng, participants)
		duration := 15 + rng.Intn(60)

		anchored, err := SuggestCommonSlots(byDay, participants, duration)
		require.NoError(t, err)
		swept, err := SweepCommonSlots(byDay, participants, duration)
		require.NoError(t, err)

		// Anchored slots fit inside one stored interval per participant. Sweep slots fit
		// inside one merged interval, since touching rows join into continuous free time.
		freeTime := map[string]func(day int, p string) []Interval{
			StrategyAnchored: func(day int, p string) []Interval { return byDay[day][p] },
			StrategySweep:    func(day int, p string) []Interval { return merge(byDay[day][p]) },
		}
		for name, slots := range map[string][]models.SuggestedSlot{StrategyAnchored: anchored, StrategySweep: swept} {
			for _, s := range slots {
				assert.GreaterOrEqual(t, s.EndMinute-s.StartMinute, duration, name)
				assert.Equal(t, len(participants), s.ParticipantCount, name)
				for _, p := range participants {
					assert.True(t, containedIn(s, freeTime[name](s.DayOfWeek, p)), "%s: slot %+v not inside %s's intervals", name, s, p)
				}
			}
		}

		for _, s := range anchored {
			found := false
			for _, w := range swept {
				if w.DayOfWeek == s.DayOfWeek && w.StartMinute <= s.StartMinute && s.EndMinute <= w.EndMinute {
					found = true
				}
			}
			assert.True(t, found, "anchored slot %+v missing from sweep", s)
		}
	}
}

func TestGroupByDaySkipsUnavailableRows(t *testing.T) {
	rows := []models.Availability{
		{Username: "x", DayOfWeek: monday, StartMinute: 540, EndMinute: 600, IsAvailable: true},
		{Username: "x", DayOfWeek: monday, StartMinute: 600, EndMinute: 660, IsAvailable: false},
		{Username: "y", DayOfWeek: wednesday, StartMinute: 60, EndMinute: 120, IsAvailable: true},
	}

	byDay := GroupByDay(rows)

	assert.Equal(t, []Interval{{540, 600}}, byDay[monday]["x"])
	assert.Equal(t, []Interval{{60, 120}}, byDay[wednesday]["y"])
	assert.Len(t, byDay, 2)
}
