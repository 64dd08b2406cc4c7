package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentView is one upcoming appointment with the counterpart's
// name resolved for rendering.
type AppointmentView struct {
	ID       string `json:"id"`
	With     string `json:"with"`
	WithName string `json:"withName"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// ListAppointments returns the session user's upcoming appointments.
func ListAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	now := time.Now()
	var out []AppointmentView

	if user.Role == "doctor" {
		doctor, err := accounts.DoctorByID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		for _, appt := range doctor.Appointments {
			if !isUpcoming(appt.Date, appt.Time, now) {
				continue
			}
			name := ""
			if ident, err := identities.Resolve(r.Context(), appt.Patient); err == nil {
				name = ident.FullName
			}
			out = append(out, AppointmentView{
				ID:       appt.ID.Hex(),
				With:     appt.Patient.Hex(),
				WithName: name,
				Date:     appt.Date,
				Time:     appt.Time,
			})
		}
	} else {
		patient, err := accounts.PatientByID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		for _, appt := range patient.Appointments {
			if !isUpcoming(appt.Date, appt.Time, now) {
				continue
			}
			name := ""
			if ident, err := identities.Resolve(r.Context(), appt.Doctor); err == nil {
				name = ident.FullName
			}
			out = append(out, AppointmentView{
				ID:       appt.ID.Hex(),
				With:     appt.Doctor.Hex(),
				WithName: name,
				Date:     appt.Date,
				Time:     appt.Time,
			})
		}
	}

	if out == nil {
		out = []AppointmentView{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "appointments": out})
}

// CancelAppointment removes the appointment from both sides.
func CancelAppointment(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	apptID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	if err := appointments.Cancel(r.Context(), apptID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Appointment cancelled successfully",
	})
}

// isUpcoming reports whether a "2006-01-02" + "15:04" pair is in the
// future. Unparseable sub-documents are kept visible rather than
// silently hidden.
func isUpcoming(date, timeOfDay string, now time.Time) bool {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, now.Location())
	if err != nil {
		return true
	}
	return t.After(now)
}
