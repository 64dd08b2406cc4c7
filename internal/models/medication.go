package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medication is one prescription line ("medications" collection).
type Medication struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Dosage    string             `bson:"dosage" json:"dosage"`
	Frequency string             `bson:"frequency" json:"frequency"`
	Duration  string             `bson:"duration" json:"duration"`
	Patient   primitive.ObjectID `bson:"patient" json:"patient"`
	Doctor    primitive.ObjectID `bson:"doctor" json:"doctor"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
