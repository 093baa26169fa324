package schedulingRepo

import (
	"context"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertEnrollment keys enrollments on (username, courseId).
func (r *MongoSchedulingRepo) UpsertEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now()
	}
	filter := bson.M{"username": enrollment.Username, "courseId": enrollment.CourseID}
	update := bson.M{
		"$set": bson.M{
			"courseName": enrollment.CourseName,
			"semester":   enrollment.Semester,
			"year":       enrollment.Year,
			"priority":   enrollment.Priority,
			"studyGoals": enrollment.StudyGoals,
		},
		"$setOnInsert": bson.M{"createdAt": enrollment.CreatedAt},
	}
	_, err := r.enrollments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return utils.MongoError(err, "course enrollment")
}

func (r *MongoSchedulingRepo) ListEnrollments(ctx context.Context, username string) ([]models.CourseEnrollment, error) {
	out := []models.CourseEnrollment{}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "courseId", Value: 1}})
	err := findAll(ctx, r.enrollments, bson.M{"username": username}, opts, &out, "course enrollments")
	return out, err
}

func (r *MongoSchedulingRepo) ListEnrollmentsByCourse(ctx context.Context, courseID, exclude string) ([]models.CourseEnrollment, error) {
	out := []models.CourseEnrollment{}
	filter := bson.M{"courseId": courseID, "username": bson.M{"$ne": exclude}}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "username", Value: 1}})
	err := findAll(ctx, r.enrollments, filter, opts, &out, "course enrollments")
	return out, err
}
