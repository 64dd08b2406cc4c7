package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medibridge/medibridge-backend/internal/database"
	"github.com/medibridge/medibridge-backend/internal/models"
)

// AppointmentScheduler records appointments on both participants.
type AppointmentScheduler interface {
	Schedule(ctx context.Context, doctorID, patientID primitive.ObjectID, date, timeOfDay string) error
}

// MongoAppointments pushes appointment sub-documents onto the doctor and
// patient profile documents.
type MongoAppointments struct {
	doctors  *mongo.Collection
	patients *mongo.Collection
}

func NewMongoAppointments(db *mongo.Database) *MongoAppointments {
	return &MongoAppointments{
		doctors:  db.Collection(database.CollDoctors),
		patients: db.Collection(database.CollPatients),
	}
}

// Schedule appends the appointment to both profile documents. The two
// writes are independent; if the patient write fails after the doctor
// write succeeded the stores are left inconsistent. There is no
// compensating transaction for that case, it is logged upstream and
// surfaces as a one-sided appointment.
func (a *MongoAppointments) Schedule(ctx context.Context, doctorID, patientID primitive.ObjectID, date, timeOfDay string) error {
	apptID := primitive.NewObjectID()

	_, err := a.doctors.UpdateByID(ctx, doctorID, bson.M{
		"$push": bson.M{"appointments": models.DoctorAppointment{
			ID:      apptID,
			Patient: patientID,
			Date:    date,
			Time:    timeOfDay,
		}},
	})
	if err != nil {
		return fmt.Errorf("doctor appointment write: %w", err)
	}

	_, err = a.patients.UpdateByID(ctx, patientID, bson.M{
		"$push": bson.M{"appointments": models.PatientAppointment{
			ID:     apptID,
			Doctor: doctorID,
			Date:   date,
			Time:   timeOfDay,
		}},
	})
	if err != nil {
		return fmt.Errorf("patient appointment write after doctor write succeeded: %w", err)
	}
	return nil
}

// Cancel removes the appointment sub-document from every doctor and
// patient that carries it.
func (a *MongoAppointments) Cancel(ctx context.Context, apptID primitive.ObjectID) error {
	pull := bson.M{"$pull": bson.M{"appointments": bson.M{"_id": apptID}}}

	if _, err := a.doctors.UpdateMany(ctx, bson.M{}, pull); err != nil {
		return fmt.Errorf("doctor appointment cancel: %w", err)
	}
	if _, err := a.patients.UpdateMany(ctx, bson.M{}, pull); err != nil {
		return fmt.Errorf("patient appointment cancel: %w", err)
	}
	return nil
}
