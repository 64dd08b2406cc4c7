package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientAppointment is an appointment sub-document embedded in a patient.
type PatientAppointment struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Doctor primitive.ObjectID `bson:"doctor" json:"doctor"`
	Date   string             `bson:"date" json:"date"`
	Time   string             `bson:"time" json:"time"`
}

// Patient is stored in the "patients" collection. A patient is linked to
// at most one doctor at a time (Doctors holds zero or one entry).
type Patient struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Age          int                  `bson:"age" json:"age"`
	Gender       string               `bson:"gender" json:"gender"` // male, female, other
	PhoneNumber  string               `bson:"phoneNumber" json:"phoneNumber"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	ChatLink     string               `bson:"chatLink" json:"chatLink"`
	Doctors      []primitive.ObjectID `bson:"doctors" json:"doctors"`
	Appointments []PatientAppointment `bson:"appointments" json:"appointments"`
	Role         string               `bson:"role" json:"role"` // always "patient"
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}
