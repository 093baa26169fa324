package models

import "time"

// CourseEnrollment records that a user studies a course, used to find partners.
type CourseEnrollment struct {
	Username   string    `bson:"username" json:"username"`
	CourseID   string    `bson:"courseId" json:"courseId" binding:"required"`
	CourseName string    `bson:"courseName" json:"courseName" binding:"required"`
	Semester   string    `bson:"semester,omitempty" json:"semester,omitempty"`
	Year       int       `bson:"year,omitempty" json:"year,omitempty"`
	Priority   int       `bson:"priority" json:"priority"` // 1-5, 5 highest
	StudyGoals []string  `bson:"studyGoals" json:"studyGoals"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Partner is a user found through a shared course.
type Partner struct {
	User             User             `json:"user"`
	CourseEnrollment CourseEnrollment `json:"courseEnrollment"`
}
