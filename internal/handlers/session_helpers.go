package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/services"
)

// AuthUser is the authenticated account attached to a request.
type AuthUser struct {
	ID   primitive.ObjectID
	Role string // "doctor" or "patient"
}

func (u *AuthUser) IDHex() string { return u.ID.Hex() }

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// requestToken pulls the session token from the Authorization header,
// falling back to the token query parameter for browser WebSocket clients.
func requestToken(r *http.Request) string {
	if token := extractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// currentUser validates the request's session and returns the account.
func currentUser(r *http.Request) (*AuthUser, bool) {
	token := requestToken(r)
	if token == "" {
		return nil, false
	}
	idHex, role, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, false
	}
	return &AuthUser{ID: id, Role: role}, true
}

// requireUser writes 401 and returns false when the request has no
// valid session.
func requireUser(w http.ResponseWriter, r *http.Request) (*AuthUser, bool) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// requireRole additionally checks the account kind.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (*AuthUser, bool) {
	user, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	if user.Role != role {
		writeError(w, http.StatusForbidden, "this endpoint requires a "+role+" account")
		return nil, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}
