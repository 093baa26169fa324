package memoryRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"studybuddy/models"
	"studybuddy/utils"
)

// Scheduling implements schedulingRepo.SchedulingRepository.
type Scheduling struct {
	mu           sync.Mutex
	availability []models.Availability
	sessions     map[string]*models.StudySession
	enrollments  []models.CourseEnrollment

	// Err, when set, is returned by every call.
	Err error
}

func NewScheduling() *Scheduling {
	return &Scheduling{sessions: map[string]*models.StudySession{}}
}

// AddAvailability stores rows as is.
func (r *Scheduling) AddAvailability(rows ...models.Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.availability = append(r.availability, rows...)
}

func (r *Scheduling) ListAvailability(_ context.Context, username string) ([]models.Availability, error) {
	return r.filterAvailability(func(a models.Availability) bool { return a.Username == username })
}

func (r *Scheduling) ListAvailableFor(_ context.Context, usernames []string) ([]models.Availability, error) {
	want := map[string]bool{}
	for _, u := range usernames {
		want[u] = true
	}
	return r.filterAvailability(func(a models.Availability) bool { return want[a.Username] && a.IsAvailable })
}

func (r *Scheduling) filterAvailability(keep func(models.Availability) bool) ([]models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []models.Availability{}
	for _, a := range r.availability {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

func (r *Scheduling) ReplaceDay(_ context.Context, username string, day int, rows []models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	kept := r.availability[:0:0]
	for _, a := range r.availability {
		if a.Username != username || a.DayOfWeek != day {
			kept = append(kept, a)
		}
	}
	r.availability = append(kept, rows...)
	return nil
}

func (r *Scheduling) CreateSession(_ context.Context, session *models.StudySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.sessions[session.SessionID]; ok {
		return utils.Conflict("study session already exists")
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	r.sessions[session.SessionID] = cloneSession(session)
	return nil
}

func (r *Scheduling) GetSession(_ context.Context, sessionID string) (*models.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, utils.NotFound("study session not found")
	}
	return cloneSession(s), nil
}

func (r *Scheduling) ListSessionsFor(_ context.Context, username string) ([]models.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []models.StudySession{}
	for _, s := range r.sessions {
		if s.Involves(username) {
			out = append(out, *cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (r *Scheduling) SetParticipantStatus(_ context.Context, sessionID, username string, from, to models.ParticipantStatus, sessionStatus models.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != sessionStatus {
		return utils.Conflict("session %s changed concurrently", sessionID)
	}
	p, ok := s.Participant(username)
	if !ok || p.Status != from {
		return utils.Conflict("session %s changed concurrently", sessionID)
	}
	p.Status = to
	return nil
}

func (r *Scheduling) SetSessionStatus(_ context.Context, sessionID string, from, to models.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != from {
		return utils.Conflict("session %s changed concurrently", sessionID)
	}
	s.Status = to
	return nil
}

func (r *Scheduling) UpsertEnrollment(_ context.Context, e *models.CourseEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i := range r.enrollments {
		if r.enrollments[i].Username == e.Username && r.enrollments[i].CourseID == e.CourseID {
			created := r.enrollments[i].CreatedAt
			r.enrollments[i] = *e
			r.enrollments[i].CreatedAt = created
			return nil
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.enrollments = append(r.enrollments, *e)
	return nil
}

func (r *Scheduling) ListEnrollments(_ context.Context, username string) ([]models.CourseEnrollment, error) {
	return r.filterEnrollments(func(e models.CourseEnrollment) bool { return e.Username == username })
}

func (r *Scheduling) ListEnrollmentsByCourse(_ context.Context, courseID, exclude string) ([]models.CourseEnrollment, error) {
	return r.filterEnrollments(func(e models.CourseEnrollment) bool { return e.CourseID == courseID && e.Username != exclude })
}

func (r *Scheduling) filterEnrollments(keep func(models.CourseEnrollment) bool) ([]models.CourseEnrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []models.CourseEnrollment{}
	for _, e := range r.enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func cloneSession(s *models.StudySession) *models.StudySession {
	cp := *s
	cp.Participants = append([]models.SessionParticipant(nil), s.Participants...)
	return &cp
}
