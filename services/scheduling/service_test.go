package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	memoryRepo "studybuddy/database/repository/memory"
	"studybuddy/models"
	"studybuddy/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedPush struct {
	to    string
	title string
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []recordedPush
	err    error
}

func (f *fakeNotifier) SendUserPushNotification(_ context.Context, username, title, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, recordedPush{to: username, title: title})
	return f.err
}

type fakeReminders struct {
	scheduled []string
	err       error
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, session *models.StudySession) error {
	f.scheduled = append(f.scheduled, session.SessionID)
	return f.err
}

type fixture struct {
	svc       *DefaultSchedulingService
	repo      *memoryRepo.Scheduling
	notifier  *fakeNotifier
	reminders *fakeReminders
}

func newFixture(usernames ...string) fixture {
	var users []models.User
	for _, u := range usernames {
		users = append(users, models.User{ID: "id-" + u, Username: u})
	}
	f := fixture{
		repo:      memoryRepo.NewScheduling(),
		notifier:  &fakeNotifier{},
		reminders: &fakeReminders{},
	}
	f.svc = &DefaultSchedulingService{
		Repo:      f.repo,
		Users:     memoryRepo.NewUsers(users...),
		Notifier:  f.notifier,
		Reminders: f.reminders,
		Logger:    zap.NewNop(),
	}
	return f
}

func identity(username string) models.Identity {
	return models.Identity{UserID: "id-" + username, Username: username, SessionID: "sid"}
}

func intPtr(v int) *int { return &v }

func TestReplaceAndGetAvailability(t *testing.T) {
	f := newFixture("ana")
	ctx := context.Background()
	unavailable := false

	day, err := f.svc.ReplaceAvailability(ctx, identity("ana"), models.UpdateAvailabilityRequest{
		DayOfWeek: intPtr(monday),
		Slots: []models.SlotInput{
			{StartTime: "14:00", EndTime: "16:30"},
			{StartTime: "09:00", EndTime: "10:00", IsAvailable: &unavailable},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Monday", day.DayName)
	require.Len(t, day.Slots, 2)
	assert.Equal(t, "09:00", day.Slots[0].StartTime)
	assert.False(t, day.Slots[0].IsAvailable)
	assert.Equal(t, 14*60, day.Slots[1].StartMinute)
	assert.True(t, day.Slots[1].IsAvailable)

	_, err = f.svc.ReplaceAvailability(ctx, identity("ana"), models.UpdateAvailabilityRequest{
		DayOfWeek: intPtr(wednesday),
		Slots:     []models.SlotInput{{StartTime: "08:00", EndTime: "09:00"}},
	})
	require.NoError(t, err)

	week, err := f.svc.GetAvailability(ctx, identity("ana"))
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, monday, week[0].DayOfWeek)
	assert.Equal(t, wednesday, week[1].DayOfWeek)

	// An empty list clears the day.
	_, err = f.svc.ReplaceAvailability(ctx, identity("ana"), models.UpdateAvailabilityRequest{DayOfWeek: intPtr(monday)})
	require.NoError(t, err)
	week, err = f.svc.GetAvailability(ctx, identity("ana"))
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "Wednesday", week[0].DayName)
}

func TestReplaceAvailabilityRejectsBadInput(t *testing.T) {
	f := newFixture("ana")
	ctx := context.Background()

	cases := map[string]models.UpdateAvailabilityRequest{
		"missing day":      {Slots: []models.SlotInput{{StartTime: "09:00", EndTime: "10:00"}}},
		"day out of range": {DayOfWeek: intPtr(7)},
		"bad clock":        {DayOfWeek: intPtr(1), Slots: []models.SlotInput{{StartTime: "9am", EndTime: "10:00"}}},
		"end before start": {DayOfWeek: intPtr(1), Slots: []models.SlotInput{{StartTime: "11:00", EndTime: "10:00"}}},
		"empty interval":   {DayOfWeek: intPtr(1), Slots: []models.SlotInput{{StartTime: "10:00", EndTime: "10:00"}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.ReplaceAvailability(ctx, identity("ana"), req)
			assert.True(t, utils.IsKind(err, utils.KindInvalidInput), "got %v", err)
		})
	}
}

func TestOperationsRequireIdentity(t *testing.T) {
	f := newFixture("ana")
	ctx := context.Background()

	_, err := f.svc.GetAvailability(ctx, models.Identity{})
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
	_, err = f.svc.SuggestTimes(ctx, models.Identity{}, models.SuggestTimesRequest{})
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
	_, err = f.svc.CreateSession(ctx, models.Identity{}, models.CreateSessionRequest{})
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
	_, err = f.svc.RespondToSession(ctx, models.Identity{}, "s", models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
}

func availability(user string, day, start, end int) models.Availability {
	return models.Availability{Username: user, DayOfWeek: day, StartMinute: start, EndMinute: end, IsAvailable: true}
}

func TestSuggestTimesIncludesCaller(t *testing.T) {
	f := newFixture("x", "y")
	f.repo.AddAvailability(
		availability("x", monday, 540, 720),
		availability("y", monday, 600, 660),
		availability("y", wednesday, 600, 660),
	)

	slots, err := f.svc.SuggestTimes(context.Background(), identity("x"), models.SuggestTimesRequest{
		Participants: []string{"y"},
		Duration:     intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 600, 660, 2)}, slots)
}

func TestSuggestTimesDefaultsAndLimits(t *testing.T) {
	f := newFixture("x")
	for day := 0; day < 7; day++ {
		f.repo.AddAvailability(
			availability("x", day, 0, 180),
			availability("x", day, 200, 400),
		)
	}

	slots, err := f.svc.SuggestTimes(context.Background(), identity("x"), models.SuggestTimesRequest{})
	require.NoError(t, err)
	assert.Len(t, slots, defaultSuggestionLimit)
	assert.Equal(t, 0, slots[0].StartMinute)
	assert.Equal(t, 200, slots[1].StartMinute)

	f.svc.DefaultDuration = 190
	slots, err = f.svc.SuggestTimes(context.Background(), identity("x"), models.SuggestTimesRequest{})
	require.NoError(t, err)
	assert.Len(t, slots, 7)
	for _, s := range slots {
		assert.Equal(t, 200, s.StartMinute)
	}
}

func TestSuggestTimesErrors(t *testing.T) {
	f := newFixture("x", "y")
	ctx := context.Background()

	_, err := f.svc.SuggestTimes(ctx, identity("x"), models.SuggestTimesRequest{Duration: intPtr(-5)})
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	_, err = f.svc.SuggestTimes(ctx, identity("x"), models.SuggestTimesRequest{Participants: []string{""}})
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	_, err = f.svc.SuggestTimes(ctx, identity("x"), models.SuggestTimesRequest{Participants: []string{"ghost"}})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	f.repo.Err = utils.Unavailable(errors.New("no primary"), "storage unavailable")
	_, err = f.svc.SuggestTimes(ctx, identity("x"), models.SuggestTimesRequest{Participants: []string{"y"}})
	assert.True(t, utils.IsKind(err, utils.KindDependencyUnavailable), "storage failures must not look like an empty result")
}

func TestSuggestTimesSweepStrategy(t *testing.T) {
	f := newFixture("x", "y")
	f.svc.Strategy = StrategyFor(StrategySweep)
	f.repo.AddAvailability(
		availability("x", monday, 500, 800),
		availability("y", monday, 540, 600),
		availability("y", monday, 660, 720),
	)

	slots, err := f.svc.SuggestTimes(context.Background(), identity("x"), models.SuggestTimesRequest{
		Participants: []string{"y"},
		Duration:     intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.SuggestedSlot{slot(monday, 540, 600, 2), slot(monday, 660, 720, 2)}, slots)
}

func newSession(t *testing.T, f fixture, organizer string, participants ...string) *models.StudySession {
	t.Helper()
	session, err := f.svc.CreateSession(context.Background(), identity(organizer), models.CreateSessionRequest{
		Title:         "Linear algebra review",
		Course:        "MATH201",
		Participants:  participants,
		ScheduledTime: time.Now().Add(48 * time.Hour),
		Location:      models.SessionLocation{Type: "online", Details: "meet link"},
	})
	require.NoError(t, err)
	return session
}

func TestCreateSession(t *testing.T) {
	f := newFixture("org", "ana", "ben")

	session := newSession(t, f, "org", "ana", "ben", "ana", "org")

	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "org", session.Organizer)
	assert.Equal(t, models.SessionScheduled, session.Status)
	assert.Equal(t, defaultSessionMinutes, session.DurationMinutes)
	assert.Equal(t, []models.SessionParticipant{
		{Username: "ana", Status: models.ParticipantInvited},
		{Username: "ben", Status: models.ParticipantInvited},
	}, session.Participants)
	assert.Equal(t, []string{session.SessionID}, f.reminders.scheduled)
	assert.Len(t, f.notifier.pushes, 2)

	stored, err := f.svc.GetSession(context.Background(), identity("ana"), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Title, stored.Title)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture("org")
	ctx := context.Background()
	base := models.CreateSessionRequest{Title: "t", Course: "c", ScheduledTime: time.Now().Add(time.Hour)}

	noTitle := base
	noTitle.Title = "  "
	zeroDuration := base
	zeroDuration.Duration = intPtr(0)
	badLocation := base
	badLocation.Location.Type = "moon"
	noTime := base
	noTime.ScheduledTime = time.Time{}

	for name, req := range map[string]models.CreateSessionRequest{
		"title": noTitle, "duration": zeroDuration, "location": badLocation, "time": noTime,
	} {
		_, err := f.svc.CreateSession(ctx, identity("org"), req)
		assert.True(t, utils.IsKind(err, utils.KindInvalidInput), "%s: %v", name, err)
	}

	unknown := base
	unknown.Participants = []string{"ghost"}
	_, err := f.svc.CreateSession(ctx, identity("org"), unknown)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestCreateSessionSurvivesSideEffectFailures(t *testing.T) {
	f := newFixture("org", "ana")
	f.notifier.err = errors.New("fcm down")
	f.reminders.err = errors.New("queue down")

	session := newSession(t, f, "org", "ana")
	assert.NotEmpty(t, session.SessionID)
}

func TestGetSessionHidesOtherSessions(t *testing.T) {
	f := newFixture("org", "ana", "eve")
	session := newSession(t, f, "org", "ana")

	_, err := f.svc.GetSession(context.Background(), identity("eve"), session.SessionID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	list, err := f.svc.ListSessions(context.Background(), identity("eve"))
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ListSessions(context.Background(), identity("ana"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRespondToSession(t *testing.T) {
	f := newFixture("org", "ana", "ben", "eve")
	ctx := context.Background()
	session := newSession(t, f, "org", "ana", "ben")

	updated, err := f.svc.RespondToSession(ctx, identity("ana"), session.SessionID, models.ParticipantAccepted)
	require.NoError(t, err)
	ana, _ := updated.Participant("ana")
	ben, _ := updated.Participant("ben")
	assert.Equal(t, models.ParticipantAccepted, ana.Status)
	assert.Equal(t, models.ParticipantInvited, ben.Status, "a response must only touch the caller's entry")

	_, err = f.svc.RespondToSession(ctx, identity("ana"), session.SessionID, models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindConflict), "repeating a response is a conflict")

	_, err = f.svc.RespondToSession(ctx, identity("ana"), session.SessionID, models.ParticipantDeclined)
	require.NoError(t, err)

	_, err = f.svc.RespondToSession(ctx, identity("eve"), session.SessionID, models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.svc.RespondToSession(ctx, identity("org"), session.SessionID, models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindNotFound), "the organizer has no participant entry")

	_, err = f.svc.RespondToSession(ctx, identity("ben"), session.SessionID, models.ParticipantInvited)
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	_, err = f.svc.RespondToSession(ctx, identity("ben"), "missing", models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestRespondToCancelledSession(t *testing.T) {
	f := newFixture("org", "ana")
	ctx := context.Background()
	session := newSession(t, f, "org", "ana")

	_, err := f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, models.SessionCancelled)
	require.NoError(t, err)

	_, err = f.svc.RespondToSession(ctx, identity("ana"), session.SessionID, models.ParticipantAccepted)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestUpdateSessionStatus(t *testing.T) {
	f := newFixture("org", "ana", "eve")
	ctx := context.Background()
	session := newSession(t, f, "org", "ana")

	_, err := f.svc.UpdateSessionStatus(ctx, identity("ana"), session.SessionID, models.SessionOngoing)
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	_, err = f.svc.UpdateSessionStatus(ctx, identity("eve"), session.SessionID, models.SessionOngoing)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, models.SessionCompleted)
	assert.True(t, utils.IsKind(err, utils.KindConflict), "scheduled sessions cannot complete directly")

	_, err = f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, "paused")
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	updated, err := f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, models.SessionOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.SessionOngoing, updated.Status)

	updated, err = f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, models.SessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, updated.Status)

	_, err = f.svc.UpdateSessionStatus(ctx, identity("org"), session.SessionID, models.SessionCancelled)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestCoursesAndPartners(t *testing.T) {
	f := newFixture("me", "ana", "ben", "cy")
	ctx := context.Background()

	for _, u := range []string{"me", "ana", "ben", "cy"} {
		_, err := f.svc.UpsertCourse(ctx, identity(u), models.CourseEnrollment{CourseID: "CS101", CourseName: "Intro"})
		require.NoError(t, err)
	}
	_, err := f.svc.UpsertCourse(ctx, identity("ana"), models.CourseEnrollment{CourseID: "CS101", CourseName: "Intro", Priority: 5})
	require.NoError(t, err)

	_, err = f.svc.UpsertCourse(ctx, identity("me"), models.CourseEnrollment{CourseID: "CS101", CourseName: "Intro", Priority: 9})
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))
	_, err = f.svc.UpsertCourse(ctx, identity("me"), models.CourseEnrollment{CourseName: "Intro"})
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	courses, err := f.svc.ListCourses(ctx, identity("me"))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 1, courses[0].Priority)

	partners, err := f.svc.FindPartners(ctx, identity("me"), "CS101", nil, nil)
	require.NoError(t, err)
	require.Len(t, partners, 3)
	assert.Equal(t, "ana", partners[0].User.Username, "higher priority first")

	f.repo.AddAvailability(
		availability("ana", monday, 600, 660),
		availability("ben", monday, 700, 760),
		availability("cy", wednesday, 600, 660),
	)
	partners, err = f.svc.FindPartners(ctx, identity("me"), "CS101", intPtr(monday), nil)
	require.NoError(t, err)
	assert.Len(t, partners, 2)

	partners, err = f.svc.FindPartners(ctx, identity("me"), "CS101", intPtr(monday), intPtr(630))
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "ana", partners[0].User.Username)

	_, err = f.svc.FindPartners(ctx, identity("me"), "CS101", nil, intPtr(630))
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))
}
