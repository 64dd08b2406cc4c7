package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DoctorAppointment is an appointment sub-document embedded in a doctor.
type DoctorAppointment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Patient primitive.ObjectID `bson:"patient" json:"patient"`
	Date    string             `bson:"date" json:"date"` // e.g. "2025-05-23"
	Time    string             `bson:"time" json:"time"` // e.g. "14:30"
}

// Doctor is stored in the "doctors" collection. Phone number is the
// login key. ChatLink is the opaque token encoded into the doctor's QR
// code; QRUrl points at the uploaded QR image.
type Doctor struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FullName       string               `bson:"fullName" json:"fullName"`
	PhoneNumber    string               `bson:"phoneNumber" json:"phoneNumber"`
	Email          string               `bson:"email" json:"email"`
	LicenseID      string               `bson:"licenseId" json:"licenseId"`
	ClinicLocation string               `bson:"clinicLocation" json:"clinicLocation"`
	PasswordHash   string               `bson:"passwordHash" json:"-"`
	ChatLink       string               `bson:"chatLink" json:"chatLink"`
	QRUrl          string               `bson:"qr,omitempty" json:"qr,omitempty"`
	Patients       []primitive.ObjectID `bson:"patients" json:"patients"`
	Appointments   []DoctorAppointment  `bson:"appointments" json:"appointments"`
	Role           string               `bson:"role" json:"role"` // always "doctor"
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
}
