package matchRepo

import (
	"context"
	"fmt"
	"time"

	"studybuddy/database"
	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MatchRepository stores directed match edges.
type MatchRepository interface {
	// Create records sender -> recipient. An existing edge is a Conflict.
	Create(ctx context.Context, edge models.Match) error
	// Exists reports whether the directed edge sender -> recipient is stored.
	Exists(ctx context.Context, sender, recipient string) (bool, error)
	// Delete removes the single directed edge sender -> recipient.
	Delete(ctx context.Context, sender, recipient string) error
	// DeleteBetween removes both directed edges between a and b, returning how many went.
	DeleteBetween(ctx context.Context, a, b string) (int64, error)
	// ListSentBy returns the recipients of sender's outgoing edges.
	ListSentBy(ctx context.Context, sender string) ([]string, error)
	// ListSentTo returns the senders of edges pointing at recipient.
	ListSentTo(ctx context.Context, recipient string) ([]string, error)
}

type MongoMatchRepo struct {
	coll *mongo.Collection
}

func NewMongoMatchRepo() MatchRepository {
	repo := &MongoMatchRepo{coll: database.DB().Collection("matches")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("match indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoMatchRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userSent", Value: 1}, {Key: "userTo", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userTo", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoMatchRepo) Create(ctx context.Context, edge models.Match) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, edge)
	if mongo.IsDuplicateKeyError(err) {
		return utils.Conflict("match request to %s already sent", edge.UserTo)
	}
	return utils.MongoError(err, "match")
}

func (r *MongoMatchRepo) Exists(ctx context.Context, sender, recipient string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"userSent": sender, "userTo": recipient}, options.Count().SetLimit(1))
	if err != nil {
		return false, utils.MongoError(err, "match")
	}
	return n > 0, nil
}

func (r *MongoMatchRepo) Delete(ctx context.Context, sender, recipient string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.DeleteOne(ctx, bson.M{"userSent": sender, "userTo": recipient})
	return utils.MongoError(err, "match")
}

func (r *MongoMatchRepo) DeleteBetween(ctx context.Context, a, b string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"userSent": a, "userTo": b},
		{"userSent": b, "userTo": a},
	}})
	if err != nil {
		return 0, utils.MongoError(err, "match")
	}
	return res.DeletedCount, nil
}

func (r *MongoMatchRepo) ListSentBy(ctx context.Context, sender string) ([]string, error) {
	return r.distinct(ctx, "userTo", bson.M{"userSent": sender})
}

func (r *MongoMatchRepo) ListSentTo(ctx context.Context, recipient string) ([]string, error) {
	return r.distinct(ctx, "userSent", bson.M{"userTo": recipient})
}

func (r *MongoMatchRepo) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	values, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, utils.MongoError(err, "matches")
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
