package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medibridge/medibridge-backend/internal/database"
	"github.com/medibridge/medibridge-backend/internal/models"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrLicenseTaken       = errors.New("license id already registered")
	ErrAlreadyInTreatment = errors.New("patient is already in treatment with a doctor")
)

// AccountService owns the doctors and patients collections: signup,
// credential lookup, chat-link resolution, and treatment linking.
type AccountService struct {
	doctors  *mongo.Collection
	patients *mongo.Collection
}

func NewAccountService(db *mongo.Database) *AccountService {
	return &AccountService{
		doctors:  db.Collection(database.CollDoctors),
		patients: db.Collection(database.CollPatients),
	}
}

// CreateDoctor inserts a new doctor after uniqueness checks on phone,
// email and license id.
func (s *AccountService) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	checks := []struct {
		filter bson.M
		err    error
	}{
		{bson.M{"phoneNumber": d.PhoneNumber}, ErrPhoneTaken},
		{bson.M{"email": d.Email}, ErrEmailTaken},
		{bson.M{"licenseId": d.LicenseID}, ErrLicenseTaken},
	}
	for _, c := range checks {
		if err := s.doctors.FindOne(ctx, c.filter).Err(); err == nil {
			return c.err
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
	}

	d.ID = primitive.NewObjectID()
	d.Role = "doctor"
	d.CreatedAt = time.Now().UTC()
	if d.Patients == nil {
		d.Patients = []primitive.ObjectID{}
	}
	if d.Appointments == nil {
		d.Appointments = []models.DoctorAppointment{}
	}

	_, err := s.doctors.InsertOne(ctx, d)
	return err
}

// CreatePatient inserts a new patient after uniqueness checks on phone
// and email.
func (s *AccountService) CreatePatient(ctx context.Context, p *models.Patient) error {
	checks := []struct {
		filter bson.M
		err    error
	}{
		{bson.M{"phoneNumber": p.PhoneNumber}, ErrPhoneTaken},
		{bson.M{"email": p.Email}, ErrEmailTaken},
	}
	for _, c := range checks {
		if err := s.patients.FindOne(ctx, c.filter).Err(); err == nil {
			return c.err
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
	}

	p.ID = primitive.NewObjectID()
	p.Role = "patient"
	p.CreatedAt = time.Now().UTC()
	if p.Doctors == nil {
		p.Doctors = []primitive.ObjectID{}
	}
	if p.Appointments == nil {
		p.Appointments = []models.PatientAppointment{}
	}

	_, err := s.patients.InsertOne(ctx, p)
	return err
}

func (s *AccountService) DoctorByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.doctors.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

func (s *AccountService) PatientByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	var p models.Patient
	if err := s.patients.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *AccountService) DoctorByPhone(ctx context.Context, phone string) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.doctors.FindOne(ctx, bson.M{"phoneNumber": phone}).Decode(&d); err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

func (s *AccountService) PatientByPhone(ctx context.Context, phone string) (*models.Patient, error) {
	var p models.Patient
	if err := s.patients.FindOne(ctx, bson.M{"phoneNumber": phone}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *AccountService) DoctorByChatLink(ctx context.Context, chatLink string) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.doctors.FindOne(ctx, bson.M{"chatLink": chatLink}).Decode(&d); err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

func (s *AccountService) PatientByChatLink(ctx context.Context, chatLink string) (*models.Patient, error) {
	var p models.Patient
	if err := s.patients.FindOne(ctx, bson.M{"chatLink": chatLink}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

// SetDoctorQR stores the uploaded QR image URL on the doctor.
func (s *AccountService) SetDoctorQR(ctx context.Context, id primitive.ObjectID, url string) error {
	_, err := s.doctors.UpdateByID(ctx, id, bson.M{"$set": bson.M{"qr": url}})
	return err
}

// LinkDoctorPatient puts the pair into treatment. A patient can be in
// treatment with at most one doctor at a time.
func (s *AccountService) LinkDoctorPatient(ctx context.Context, doctorID, patientID primitive.ObjectID) error {
	p, err := s.PatientByID(ctx, patientID)
	if err != nil {
		return err
	}
	if len(p.Doctors) > 0 {
		return ErrAlreadyInTreatment
	}

	if _, err := s.patients.UpdateByID(ctx, patientID, bson.M{
		"$addToSet": bson.M{"doctors": doctorID},
	}); err != nil {
		return err
	}
	_, err = s.doctors.UpdateByID(ctx, doctorID, bson.M{
		"$addToSet": bson.M{"patients": patientID},
	})
	return err
}

// UnlinkDoctorPatient ends the treatment relationship from both sides.
func (s *AccountService) UnlinkDoctorPatient(ctx context.Context, doctorID, patientID primitive.ObjectID) error {
	if _, err := s.doctors.UpdateByID(ctx, doctorID, bson.M{
		"$pull": bson.M{"patients": patientID},
	}); err != nil {
		return err
	}
	_, err := s.patients.UpdateByID(ctx, patientID, bson.M{
		"$pull": bson.M{"doctors": doctorID},
	})
	return err
}

// PatientsOfDoctor loads the full patient documents linked to a doctor.
func (s *AccountService) PatientsOfDoctor(ctx context.Context, d *models.Doctor) ([]models.Patient, error) {
	if len(d.Patients) == 0 {
		return []models.Patient{}, nil
	}
	cur, err := s.patients.Find(ctx, bson.M{"_id": bson.M{"$in": d.Patients}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Patient
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrAccountNotFound
	}
	return err
}
