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

var ErrMedicationNotFound = errors.New("medication not found")

// MedicationService manages prescriptions.
type MedicationService struct {
	col *mongo.Collection
}

func NewMedicationService(db *mongo.Database) *MedicationService {
	return &MedicationService{col: db.Collection(database.CollMedications)}
}

// Prescribe inserts a batch of prescription lines for one patient.
func (s *MedicationService) Prescribe(ctx context.Context, meds []models.Medication) error {
	if len(meds) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(meds))
	for i := range meds {
		meds[i].ID = primitive.NewObjectID()
		meds[i].CreatedAt = now
		meds[i].UpdatedAt = now
		docs = append(docs, meds[i])
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// ForPatient lists a patient's prescriptions from one doctor, newest last.
func (s *MedicationService) ForPatient(ctx context.Context, patientID, doctorID primitive.ObjectID) ([]models.Medication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"patient": patientID, "doctor": doctorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meds []models.Medication
	if err := cur.All(ctx, &meds); err != nil {
		return nil, err
	}
	return meds, nil
}

// Delete removes one prescription and returns it, so callers know which
// patient it belonged to.
func (s *MedicationService) Delete(ctx context.Context, id primitive.ObjectID) (*models.Medication, error) {
	var med models.Medication
	err := s.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&med)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMedicationNotFound
		}
		return nil, err
	}
	return &med, nil
}
