package scheduling

import (
	"context"
	"strings"

	"studybuddy/models"
	"studybuddy/utils"
)

func (s *DefaultSchedulingService) ListCourses(ctx context.Context, actor models.Identity) ([]models.CourseEnrollment, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.Repo.ListEnrollments(ctx, actor.Username)
}

// UpsertCourse enrolls the caller in a course or updates the enrollment.
func (s *DefaultSchedulingService) UpsertCourse(ctx context.Context, actor models.Identity, enrollment models.CourseEnrollment) (*models.CourseEnrollment, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	enrollment.CourseID = strings.TrimSpace(enrollment.CourseID)
	enrollment.CourseName = strings.TrimSpace(enrollment.CourseName)
	if enrollment.CourseID == "" || enrollment.CourseName == "" {
		return nil, utils.InvalidInput("courseId and courseName are required")
	}
	if enrollment.Priority == 0 {
		enrollment.Priority = 1
	}
	if enrollment.Priority < 1 || enrollment.Priority > 5 {
		return nil, utils.InvalidInput("priority must be between 1 and 5")
	}
	if enrollment.StudyGoals == nil {
		enrollment.StudyGoals = []string{}
	}
	enrollment.Username = actor.Username

	if err := s.Repo.UpsertEnrollment(ctx, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindPartners lists other students enrolled in courseID. With day set, only those with an
// available interval that day are kept; with minute set too, the interval must contain it.
func (s *DefaultSchedulingService) FindPartners(ctx context.Context, actor models.Identity, courseID string, day, minute *int) ([]models.Partner, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(courseID) == "" {
		return nil, utils.InvalidInput("courseId is required")
	}
	if day != nil && (*day < 0 || *day > 6) {
		return nil, utils.InvalidInput("day must be between 0 and 6")
	}
	if minute != nil && day == nil {
		return nil, utils.InvalidInput("timeSlot requires day")
	}

	enrollments, err := s.Repo.ListEnrollmentsByCourse(ctx, courseID, actor.Username)
	if err != nil {
		return nil, err
	}
	usernames := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		usernames = append(usernames, e.Username)
	}

	if day != nil && len(usernames) > 0 {
		rows, err := s.Repo.ListAvailableFor(ctx, usernames)
		if err != nil {
			return nil, err
		}
		free := map[string]bool{}
		for _, row := range rows {
			if row.DayOfWeek != *day {
				continue
			}
			if minute == nil || (row.StartMinute <= *minute && *minute < row.EndMinute) {
				free[row.Username] = true
			}
		}
		kept := enrollments[:0:0]
		for _, e := range enrollments {
			if free[e.Username] {
				kept = append(kept, e)
			}
		}
		enrollments = kept
		usernames = usernames[:0]
		for _, e := range enrollments {
			usernames = append(usernames, e.Username)
		}
	}

	users, err := s.Users.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}

	partners := []models.Partner{}
	for _, e := range enrollments {
		u, ok := byName[e.Username]
		if !ok {
			continue
		}
		partners = append(partners, models.Partner{User: u, CourseEnrollment: e})
	}
	return partners, nil
}
