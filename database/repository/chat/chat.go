package chatRepo

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

// ChatRepository stores chatrooms and their message logs.
type ChatRepository interface {
	CreateRoom(ctx context.Context, room *models.Chatroom) error
	GetRoom(ctx context.Context, id string) (*models.Chatroom, error)
	ListRoomsFor(ctx context.Context, username string) ([]models.Chatroom, error)
	AddUsers(ctx context.Context, id string, usernames []string) error
	RemoveUser(ctx context.Context, id, username string) error
	SetMeetspot(ctx context.Context, id string, spot *models.GeoPoint) error
	AppendMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns the newest limit messages of a room, oldest first.
	ListMessages(ctx context.Context, chatID string, limit int64) ([]models.Message, error)
}

type MongoChatRepo struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
}

func NewMongoChatRepo() ChatRepository {
	db := database.DB()
	repo := &MongoChatRepo{rooms: db.Collection("chatrooms"), messages: db.Collection("messages")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("chat indexes not created", zap.Error(err))
	}
	return repo
}

func (r *MongoChatRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "users", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create chatroom indexes: %w", err)
	}
	if _, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "sent", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

func (r *MongoChatRepo) CreateRoom(ctx context.Context, room *models.Chatroom) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	room.CreatedAt = time.Now()
	_, err := r.rooms.InsertOne(ctx, room)
	return utils.MongoError(err, "chatroom")
}

func (r *MongoChatRepo) GetRoom(ctx context.Context, id string) (*models.Chatroom, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var room models.Chatroom
	if err := r.rooms.FindOne(ctx, bson.M{"id": id}).Decode(&room); err != nil {
		return nil, utils.MongoError(err, "chatroom")
	}
	return &room, nil
}

func (r *MongoChatRepo) ListRoomsFor(ctx context.Context, username string) ([]models.Chatroom, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.rooms.Find(ctx, bson.M{"users": username}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, utils.MongoError(err, "chatrooms")
	}
	defer cursor.Close(ctx)

	rooms := []models.Chatroom{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, utils.MongoError(err, "chatrooms")
	}
	return rooms, nil
}

func (r *MongoChatRepo) AddUsers(ctx context.Context, id string, usernames []string) error {
	return r.updateRoom(ctx, id, bson.M{"$addToSet": bson.M{"users": bson.M{"$each": usernames}}})
}

func (r *MongoChatRepo) RemoveUser(ctx context.Context, id, username string) error {
	return r.updateRoom(ctx, id, bson.M{"$pull": bson.M{"users": username}})
}

func (r *MongoChatRepo) SetMeetspot(ctx context.Context, id string, spot *models.GeoPoint) error {
	return r.updateRoom(ctx, id, bson.M{"$set": bson.M{"meetspot": spot}})
}

func (r *MongoChatRepo) updateRoom(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.rooms.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return utils.MongoError(err, "chatroom")
	}
	if res.MatchedCount == 0 {
		return utils.NotFound("chatroom not found")
	}
	return nil
}

func (r *MongoChatRepo) AppendMessage(ctx context.Context, msg *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if msg.Sent.IsZero() {
		msg.Sent = time.Now()
	}
	_, err := r.messages.InsertOne(ctx, msg)
	return utils.MongoError(err, "message")
}

func (r *MongoChatRepo) ListMessages(ctx context.Context, chatID string, limit int64) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sent", Value: -1}}).SetLimit(limit)
	cursor, err := r.messages.Find(ctx, bson.M{"chatId": chatID}, opts)
	if err != nil {
		return nil, utils.MongoError(err, "messages")
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, utils.MongoError(err, "messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
