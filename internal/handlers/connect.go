package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medibridge/medibridge-backend/internal/models"
	"github.com/medibridge/medibridge-backend/internal/services"
)

// ConnectToDoctor links the session patient to the doctor whose
// chatLink was scanned from the QR code, and appends a "Treatment
// Started" entry to the patient's timeline.
func ConnectToDoctor(w http.ResponseWriter, r *http.Request) {
	patientUser, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}

	chatLink := chi.URLParam(r, "chatLink")
	doctor, err := accounts.DoctorByChatLink(r.Context(), chatLink)
	if err != nil {
		writeError(w, http.StatusNotFound, "Doctor not found")
		return
	}

	if err := accounts.LinkDoctorPatient(r.Context(), doctor.ID, patientUser.ID); err != nil {
		if errors.Is(err, services.ErrAlreadyInTreatment) {
			writeError(w, http.StatusConflict, "You are already in treatment with a doctor")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to connect to doctor")
		return
	}

	entry := &models.TimelineEntry{
		From:      patientUser.ID,
		FromModel: models.RolePatient,
		To:        doctor.ID,
		ToModel:   models.RoleDoctor,
		DoctorID:  doctor.ID,
		PatientID: patientUser.ID,
		Caption:   "Treatment Started",
	}
	if err := timelines.Append(r.Context(), entry); err != nil {
		// The link already happened; the missing entry only affects the
		// rendered history.
		log.Printf("connect: timeline entry for patient %s failed: %v", patientUser.IDHex(), err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "Connected to doctor",
		"doctorId":   doctor.ID.Hex(),
		"doctorName": doctor.FullName,
	})
}

// ConnectToPatient resolves a patient's chatLink for a doctor opening a
// chat with them.
func ConnectToPatient(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, "doctor"); !ok {
		return
	}

	chatLink := chi.URLParam(r, "chatLink")
	patient, err := accounts.PatientByChatLink(r.Context(), chatLink)
	if err != nil {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"patientId":   patient.ID.Hex(),
		"patientName": patient.FullName,
	})
}

// EndTreatment unlinks the session patient from their doctor and clears
// the shared timeline.
func EndTreatment(w http.ResponseWriter, r *http.Request) {
	patientUser, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}

	patient, err := accounts.PatientByID(r.Context(), patientUser.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	if len(patient.Doctors) == 0 {
		writeError(w, http.StatusBadRequest, "You are not connected to any doctor")
		return
	}

	doctorID := patient.Doctors[0]
	if err := accounts.UnlinkDoctorPatient(r.Context(), doctorID, patient.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to end treatment")
		return
	}
	if err := timelines.DeleteForPair(r.Context(), doctorID, patient.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Treatment ended but history cleanup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Treatment ended successfully",
	})
}

// DoctorPatients lists the patients linked to the session doctor.
func DoctorPatients(w http.ResponseWriter, r *http.Request) {
	doctorUser, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}

	doctor, err := accounts.DoctorByID(r.Context(), doctorUser.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	patients, err := accounts.PatientsOfDoctor(r.Context(), doctor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load patients")
		return
	}

	out := make([]map[string]interface{}, 0, len(patients))
	for i := range patients {
		out = append(out, patientSummary(&patients[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "patients": out})
}
