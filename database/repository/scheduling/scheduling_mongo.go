package schedulingRepo

import (
	"context"
	"fmt"
	"time"

	"studybuddy/database"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const queryTimeout = 5 * time.Second

// MongoSchedulingRepo implements SchedulingRepository on three collections.
type MongoSchedulingRepo struct {
	availability *mongo.Collection
	sessions     *mongo.Collection
	enrollments  *mongo.Collection
}

func NewMongoSchedulingRepo() SchedulingRepository {
	db := database.DB()
	repo := &MongoSchedulingRepo{
		availability: db.Collection("availabilities"),
		sessions:     db.Collection("study_sessions"),
		enrollments:  db.Collection("course_enrollments"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("scheduling indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoSchedulingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.availability.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "dayOfWeek", Value: 1}, {Key: "startMinute", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	if _, err := r.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "organizer", Value: 1}, {Key: "scheduledTime", Value: 1}}},
		{Keys: bson.D{{Key: "participants.username", Value: 1}, {Key: "scheduledTime", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	if _, err := r.enrollments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "courseId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create enrollment indexes: %w", err)
	}
	return nil
}

// findAll decodes every document matching filter into out.
func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return utils.MongoError(err, what)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return utils.MongoError(err, what)
	}
	return nil
}
