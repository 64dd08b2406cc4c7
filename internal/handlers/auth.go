package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medibridge/medibridge-backend/internal/models"
	"github.com/medibridge/medibridge-backend/internal/services"
	"github.com/medibridge/medibridge-backend/pkg/utils"
)

var validate = validator.New()

type DoctorSignupRequest struct {
	FullName       string `json:"fullName" validate:"required"`
	PhoneNumber    string `json:"phoneNumber" validate:"required,min=10,max=16"`
	Email          string `json:"email" validate:"required,email"`
	LicenseID      string `json:"licenseId" validate:"required"`
	ClinicLocation string `json:"clinicLocation" validate:"required"`
	Password       string `json:"password" validate:"required,min=8"`
}

type PatientSignupRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=10,max=16"`
	Email       string `json:"email" validate:"required,email"`
	Age         int    `json:"age" validate:"required,gte=0,lte=130"`
	Gender      string `json:"gender" validate:"required,oneof=male female other"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
	Token   string                 `json:"token,omitempty"`
}

// DoctorSignup registers a doctor account, then generates and uploads
// the connect QR code for the new account.
func DoctorSignup(w http.ResponseWriter, r *http.Request) {
	var req DoctorSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	doctor := &models.Doctor{
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		LicenseID:      req.LicenseID,
		ClinicLocation: req.ClinicLocation,
		PasswordHash:   hash,
		ChatLink:       uuid.NewString(),
	}

	if err := accounts.CreateDoctor(r.Context(), doctor); err != nil {
		writeAccountCreateError(w, err)
		return
	}

	// QR generation is best-effort: the account exists either way and
	// the code can be regenerated later.
	if cloudinaryService != nil {
		qrCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		qrURL, err := services.GenerateConnectQR(qrCtx, cloudinaryService, cfg.Host, doctor.ChatLink, doctor.ID.Hex())
		if err != nil {
			log.Printf("auth: QR generation for doctor %s failed: %v", doctor.ID.Hex(), err)
		} else if err := accounts.SetDoctorQR(r.Context(), doctor.ID, qrURL); err != nil {
			log.Printf("auth: storing QR url for doctor %s failed: %v", doctor.ID.Hex(), err)
		} else {
			doctor.QRUrl = qrURL
		}
	}

	token, err := services.CreateSession(doctor.ID.Hex(), "doctor")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Account created but sign-in failed, please sign in")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Doctor registered successfully",
		Token:   token,
		User:    doctorSummary(doctor),
	})
}

// PatientSignup registers a patient account.
func PatientSignup(w http.ResponseWriter, r *http.Request) {
	var req PatientSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	patient := &models.Patient{
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Age:          req.Age,
		Gender:       req.Gender,
		PasswordHash: hash,
		ChatLink:     uuid.NewString(),
	}

	if err := accounts.CreatePatient(r.Context(), patient); err != nil {
		writeAccountCreateError(w, err)
		return
	}

	token, err := services.CreateSession(patient.ID.Hex(), "patient")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Account created but sign-in failed, please sign in")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Patient registered successfully",
		Token:   token,
		User:    patientSummary(patient),
	})
}

// DoctorSignin authenticates a doctor by phone number and password.
func DoctorSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Phone number and password are required")
		return
	}

	doctor, err := accounts.DoctorByPhone(r.Context(), req.PhoneNumber)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if ok, err := utils.VerifyPassword(req.Password, doctor.PasswordHash); err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := services.CreateSession(doctor.ID.Hex(), "doctor")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in",
		Token:   token,
		User:    doctorSummary(doctor),
	})
}

// PatientSignin authenticates a patient by phone number and password.
func PatientSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Phone number and password are required")
		return
	}

	patient, err := accounts.PatientByPhone(r.Context(), req.PhoneNumber)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if ok, err := utils.VerifyPassword(req.Password, patient.PasswordHash); err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := services.CreateSession(patient.ID.Hex(), "patient")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in",
		Token:   token,
		User:    patientSummary(patient),
	})
}

// GetMe returns the authenticated account's profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if user.Role == "doctor" {
		doctor, err := accounts.DoctorByID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": doctorSummary(doctor)})
		return
	}

	patient, err := accounts.PatientByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": patientSummary(patient)})
}

// Logout invalidates the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	if token != "" {
		_ = services.InvalidateSession(token)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Signed out"})
}

func writeAccountCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPhoneTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrLicenseTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to create account")
	}
}

func doctorSummary(d *models.Doctor) map[string]interface{} {
	return map[string]interface{}{
		"id":             d.ID.Hex(),
		"fullName":       d.FullName,
		"phoneNumber":    d.PhoneNumber,
		"email":          d.Email,
		"licenseId":      d.LicenseID,
		"clinicLocation": d.ClinicLocation,
		"chatLink":       d.ChatLink,
		"qr":             d.QRUrl,
		"role":           "doctor",
	}
}

func patientSummary(p *models.Patient) map[string]interface{} {
	var doctorID string
	if len(p.Doctors) > 0 {
		doctorID = p.Doctors[0].Hex()
	}
	return map[string]interface{}{
		"id":          p.ID.Hex(),
		"fullName":    p.FullName,
		"phoneNumber": p.PhoneNumber,
		"email":       p.Email,
		"age":         p.Age,
		"gender":      p.Gender,
		"chatLink":    p.ChatLink,
		"doctorId":    doctorID,
		"role":        "patient",
	}
}
