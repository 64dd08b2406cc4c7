package handlers

import (
	"net/http"

	"github.com/medibridge/medibridge-backend/internal/services"
)

// UploadChatImage accepts a multipart image, uploads it, and routes the
// resulting message through the same gateway delivery path as a live
// "private message" event, so delivery-state semantics are identical.
// Form fields: image (file), to (recipient id), caption (optional).
func UploadChatImage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if cloudinaryService == nil {
		writeError(w, http.StatusServiceUnavailable, "File uploads are not available")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	to := r.FormValue("to")
	if to == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, "chat-images/"+user.IDHex())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	out := chatGateway.SendMessage(r.Context(), services.PrivateMessageIn{
		From:     user.IDHex(),
		To:       to,
		MediaURL: url,
		Caption:  r.FormValue("caption"),
	})
	if out == nil {
		writeError(w, http.StatusInternalServerError, "Upload succeeded but the message could not be sent")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Upload successful",
		"chat":    out,
	})
}
