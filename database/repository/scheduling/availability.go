package schedulingRepo

import (
	"context"

	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var byDayThenStart = bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "startMinute", Value: 1}}

func (r *MongoSchedulingRepo) ListAvailability(ctx context.Context, username string) ([]models.Availability, error) {
	rows := []models.Availability{}
	err := findAll(ctx, r.availability, bson.M{"username": username}, options.Find().SetSort(byDayThenStart), &rows, "availability")
	return rows, err
}

func (r *MongoSchedulingRepo) ListAvailableFor(ctx context.Context, usernames []string) ([]models.Availability, error) {
	rows := []models.Availability{}
	if len(usernames) == 0 {
		return rows, nil
	}
	filter := bson.M{"username": bson.M{"$in": usernames}, "isAvailable": true}
	err := findAll(ctx, r.availability, filter, options.Find().SetSort(byDayThenStart), &rows, "availability")
	return rows, err
}

// ReplaceDay deletes then inserts. The pair is not atomic; a failed insert leaves the
// day empty and is reported to the caller.
func (r *MongoSchedulingRepo) ReplaceDay(ctx context.Context, username string, day int, rows []models.Availability) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.availability.DeleteMany(ctx, bson.M{"username": username, "dayOfWeek": day}); err != nil {
		return utils.MongoError(err, "availability")
	}
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, len(rows))
	for i := range rows {
		docs[i] = rows[i]
	}
	_, err := r.availability.InsertMany(ctx, docs)
	return utils.MongoError(err, "availability")
}
