package schedulingRepo

import (
	"context"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoSchedulingRepo) CreateSession(ctx context.Context, session *models.StudySession) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	_, err := r.sessions.InsertOne(ctx, session)
	return utils.MongoError(err, "study session")
}

func (r *MongoSchedulingRepo) GetSession(ctx context.Context, sessionID string) (*models.StudySession, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var session models.StudySession
	if err := r.sessions.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session); err != nil {
		return nil, utils.MongoError(err, "study session")
	}
	return &session, nil
}

func (r *MongoSchedulingRepo) ListSessionsFor(ctx context.Context, username string) ([]models.StudySession, error) {
	filter := bson.M{"$or": []bson.M{
		{"organizer": username},
		{"participants.username": username},
	}}
	sessions := []models.StudySession{}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledTime", Value: 1}})
	err := findAll(ctx, r.sessions, filter, opts, &sessions, "study sessions")
	return sessions, err
}

func (r *MongoSchedulingRepo) SetParticipantStatus(ctx context.Context, sessionID, username string, from, to models.ParticipantStatus, sessionStatus models.SessionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"sessionId": sessionID,
		"status":    sessionStatus,
		"participants": bson.M{"$elemMatch": bson.M{
			"username": username,
			"status":   from,
		}},
	}
	update := bson.M{"$set": bson.M{
		"participants.$.status": to,
		"updatedAt":             time.Now(),
	}}
	res, err := r.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.MongoError(err, "study session")
	}
	if res.MatchedCount == 0 {
		return utils.Conflict("session %s changed concurrently", sessionID)
	}
	return nil
}

func (r *MongoSchedulingRepo) SetSessionStatus(ctx context.Context, sessionID string, from, to models.SessionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.sessions.UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return utils.MongoError(err, "study session")
	}
	if res.MatchedCount == 0 {
		return utils.Conflict("session %s changed concurrently", sessionID)
	}
	return nil
}
