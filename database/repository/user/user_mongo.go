package userRepo

import (
	"context"
	"regexp"
	"time"

	"studybuddy/database"
	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const queryTimeout = 5 * time.Second

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo() UserRepository {
	repo := &MongoUserRepo{coll: database.DB().Collection("users")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("user indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Buddies == nil {
		user.Buddies = []string{}
	}
	if user.Courses == nil {
		user.Courses = []string{}
	}

	_, err := r.coll.InsertOne(ctx, user)
	return utils.MongoError(err, "user "+user.Username)
}

func (r *MongoUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, utils.MongoError(err, "user "+username)
	}
	return &user, nil
}

func (r *MongoUserRepo) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"username": bson.M{"$in": usernames}})
}

func (r *MongoUserRepo) Exists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, utils.MongoError(err, "user "+username)
	}
	return n > 0, nil
}

func (r *MongoUserRepo) UpdateFields(ctx context.Context, username string, fields bson.M) error {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	return r.updateOne(ctx, username, bson.M{"$set": set})
}

func (r *MongoUserRepo) AddBuddy(ctx context.Context, username, buddy string) error {
	return r.updateOne(ctx, username, bson.M{"$addToSet": bson.M{"buddies": buddy}})
}

func (r *MongoUserRepo) RemoveBuddy(ctx context.Context, username, buddy string) error {
	return r.updateOne(ctx, username, bson.M{"$pull": bson.M{"buddies": buddy}})
}

func (r *MongoUserRepo) AddReview(ctx context.Context, username, review string) error {
	return r.updateOne(ctx, username, bson.M{"$push": bson.M{"reviews": review}})
}

func (r *MongoUserRepo) ListByUniversity(ctx context.Context, university string, exclude []string) ([]models.User, error) {
	filter := bson.M{
		"university": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(university) + "$", Options: "i"},
	}
	if len(exclude) > 0 {
		filter["username"] = bson.M{"$nin": exclude}
	}
	return r.find(ctx, filter)
}

func (r *MongoUserRepo) updateOne(ctx context.Context, username string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return utils.MongoError(err, "user "+username)
	}
	if res.MatchedCount == 0 {
		return utils.NotFound("user %s not found", username)
	}
	return nil
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, utils.MongoError(err, "users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, utils.MongoError(err, "users")
	}
	return users, nil
}
