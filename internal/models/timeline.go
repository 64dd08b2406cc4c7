package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimelineEntry is one event in a patient's treatment history
// ("timelines" collection): treatment start, shared reports, notes.
type TimelineEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From      primitive.ObjectID `bson:"from" json:"from"`
	FromModel string             `bson:"fromModel" json:"fromModel"`
	To        primitive.ObjectID `bson:"to" json:"to"`
	ToModel   string             `bson:"toModel" json:"toModel"`
	DoctorID  primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	PatientID primitive.ObjectID `bson:"patientId" json:"patientId"`
	ImageURL  string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Caption   string             `bson:"caption,omitempty" json:"caption,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
