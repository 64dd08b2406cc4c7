package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medibridge/medibridge-backend/internal/database"
	"github.com/medibridge/medibridge-backend/internal/models"
)

// TimelineService manages the append-only treatment history of patients.
type TimelineService struct {
	col *mongo.Collection
}

func NewTimelineService(db *mongo.Database) *TimelineService {
	return &TimelineService{col: db.Collection(database.CollTimelines)}
}

func (s *TimelineService) Append(ctx context.Context, entry *models.TimelineEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.col.InsertOne(ctx, entry)
	return err
}

// ForPatient returns a patient's timeline, oldest first.
func (s *TimelineService) ForPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.TimelineEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"patientId": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.TimelineEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteForPair removes the history shared between a doctor and a
// patient, used when treatment ends.
func (s *TimelineService) DeleteForPair(ctx context.Context, doctorID, patientID primitive.ObjectID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"patientId": patientID, "doctorId": doctorID})
	return err
}
