package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/models"
	"github.com/medibridge/medibridge-backend/internal/services"
)

type MedicationLine struct {
	Name      string `json:"name" validate:"required"`
	Dosage    string `json:"dosage" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
	Duration  string `json:"duration" validate:"required"`
}

type PrescribeRequest struct {
	PatientID   string           `json:"patientId" validate:"required"`
	Medications []MedicationLine `json:"medications" validate:"required,min=1,dive"`
}

// PrescribeMedications records a batch of prescriptions from the
// session doctor for one patient.
func PrescribeMedications(w http.ResponseWriter, r *http.Request) {
	doctorUser, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}

	var req PrescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	meds := make([]models.Medication, 0, len(req.Medications))
	for _, line := range req.Medications {
		meds = append(meds, models.Medication{
			Name:      line.Name,
			Dosage:    line.Dosage,
			Frequency: line.Frequency,
			Duration:  line.Duration,
			Patient:   patientID,
			Doctor:    doctorUser.ID,
		})
	}

	if err := medications.Prescribe(r.Context(), meds); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving prescriptions")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Prescriptions saved",
	})
}

// ListMedications returns a patient's prescriptions. Doctors pass the
// patient id; patients see their own, scoped to their current doctor.
func ListMedications(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patientID, doctorID primitive.ObjectID
	if user.Role == "doctor" {
		var err error
		patientID, err = primitive.ObjectIDFromHex(r.URL.Query().Get("patient"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "patient is required")
			return
		}
		doctorID = user.ID
	} else {
		patient, err := accounts.PatientByID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		if len(patient.Doctors) == 0 {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "medications": []models.Medication{}})
			return
		}
		patientID = user.ID
		doctorID = patient.Doctors[0]
	}

	meds, err := medications.ForPatient(r.Context(), patientID, doctorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load medications")
		return
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "medications": meds})
}

// DeleteMedication removes one prescription line.
func DeleteMedication(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, "doctor"); !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid medication id")
		return
	}

	med, err := medications.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMedicationNotFound) {
			writeError(w, http.StatusNotFound, "Medication not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete medication")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Medication deleted",
		"patientId": med.Patient.Hex(),
	})
}
