package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medibridge/medibridge-backend/internal/database"
	"github.com/medibridge/medibridge-backend/internal/models"
)

// ErrMessageNotFound is returned when a message id resolves to nothing.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore is the durable record of chat messages. Status updates
// are monotonic: sent -> delivered -> read; a regressive update is a
// silent no-op.
type MessageStore interface {
	Insert(ctx context.Context, msg *models.Chat) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ChatStatus) error
	Conversation(ctx context.Context, a, b primitive.ObjectID) ([]models.Chat, error)
}

// statusPredecessors lists the states a message may be in for a given
// transition to apply. Anything else matches zero documents.
var statusPredecessors = map[models.ChatStatus][]models.ChatStatus{
	models.StatusDelivered: {models.StatusSent},
	models.StatusRead:      {models.StatusSent, models.StatusDelivered},
}

// MongoMessageStore persists messages in the "chats" collection.
type MongoMessageStore struct {
	col *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{col: db.Collection(database.CollChats)}
}

// EnsureChatIndexes configures indexes for the chats collection.
// Called on startup from main after Mongo has connected.
func EnsureChatIndexes(ctx context.Context) error {
	col := database.DB.Collection(database.CollChats)

	// Both directions of a conversation, ordered by creation time.
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "from", Value: 1},
				{Key: "to", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_from_to_createdAt"),
		},
		{
			Keys: bson.D{
				{Key: "to", Value: 1},
				{Key: "from", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_to_from_createdAt"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoMessageStore) Insert(ctx context.Context, msg *models.Chat) error {
	now := time.Now().UTC()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = models.StatusSent
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	_, err := s.col.InsertOne(ctx, msg)
	return err
}

func (s *MongoMessageStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var msg models.Chat
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// UpdateStatus advances a message's delivery status. The filter encodes
// the monotonic transition rule, so marking an already-read message as
// read again (or delivered after read) matches nothing and returns nil.
func (s *MongoMessageStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ChatStatus) error {
	preds, ok := statusPredecessors[status]
	if !ok {
		return nil
	}
	filter := bson.M{"_id": id, "status": bson.M{"$in": preds}}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}

// Conversation returns all messages between a and b, oldest first.
func (s *MongoMessageStore) Conversation(ctx context.Context, a, b primitive.ObjectID) ([]models.Chat, error) {
	filter := bson.M{"$or": []bson.M{
		{"from": a, "to": b},
		{"from": b, "to": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Chat
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
