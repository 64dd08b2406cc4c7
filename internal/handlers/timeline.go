package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/services"
)

// TimelineEntryView is one timeline entry with both parties' profile
// projections resolved.
type TimelineEntryView struct {
	ID        string               `json:"id"`
	From      services.UserSummary `json:"from"`
	To        services.UserSummary `json:"to"`
	ImageURL  string               `json:"imageUrl,omitempty"`
	Caption   string               `json:"caption,omitempty"`
	CreatedAt string               `json:"createdAt"`
}

// GetTimeline returns a patient's treatment timeline, oldest first.
// Patients see their own; doctors pass the patient id.
func GetTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	patientID := user.ID
	if user.Role == "doctor" {
		var err error
		patientID, err = primitive.ObjectIDFromHex(r.URL.Query().Get("patient"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "patient is required")
			return
		}
	}

	entries, err := timelines.ForPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load timeline")
		return
	}

	identCache := make(map[primitive.ObjectID]*services.Identity)
	lookup := func(id primitive.ObjectID) services.UserSummary {
		ident, ok := identCache[id]
		if !ok {
			var err error
			ident, err = identities.Resolve(r.Context(), id)
			if err != nil {
				ident = &services.Identity{ID: id}
			}
			identCache[id] = ident
		}
		return services.UserSummary{ID: id.Hex(), FullName: ident.FullName, Role: ident.Role}
	}

	out := make([]TimelineEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimelineEntryView{
			ID:        e.ID.Hex(),
			From:      lookup(e.From),
			To:        lookup(e.To),
			ImageURL:  e.ImageURL,
			Caption:   e.Caption,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "timeline": out})
}
