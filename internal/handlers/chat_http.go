package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/models"
	"github.com/medibridge/medibridge-backend/internal/services"
)

// ChatHistoryResponse is returned when loading a conversation.
type ChatHistoryResponse struct {
	Success  bool                          `json:"success"`
	Messages []*services.PrivateMessageOut `json:"messages"`
}

// LoadChatHistory loads the full ordered conversation between the
// session user and the account given by the `with` query parameter,
// enriched with profile projections for rendering. Read-only and safe
// to call repeatedly: this is how a client reconciles delivery state
// after a reconnect.
func LoadChatHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	otherHex := r.URL.Query().Get("with")
	if otherHex == "" {
		writeError(w, http.StatusBadRequest, "with is required")
		return
	}
	otherID, err := primitive.ObjectIDFromHex(otherHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "with is not a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msgs, err := messages.Conversation(ctx, user.ID, otherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	// Resolve each party once; a two-party conversation touches at most
	// two profiles.
	identCache := make(map[primitive.ObjectID]*services.Identity, 2)
	lookup := func(id primitive.ObjectID) *services.Identity {
		if ident, ok := identCache[id]; ok {
			return ident
		}
		ident, err := identities.Resolve(ctx, id)
		if err != nil {
			ident = &services.Identity{ID: id}
		}
		identCache[id] = ident
		return ident
	}

	out := make([]*services.PrivateMessageOut, 0, len(msgs))
	for i := range msgs {
		out = append(out, enrichMessage(&msgs[i], lookup))
	}

	writeJSON(w, http.StatusOK, ChatHistoryResponse{Success: true, Messages: out})
}

// OnlineUsers returns the ids of all currently connected users, for the
// initial render of presence indicators.
func OnlineUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"online":  presence.OnlineIDs(),
	})
}

func enrichMessage(msg *models.Chat, lookup func(primitive.ObjectID) *services.Identity) *services.PrivateMessageOut {
	from := lookup(msg.From)
	to := lookup(msg.To)
	return &services.PrivateMessageOut{
		ID:        msg.ID.Hex(),
		From:      msg.From.Hex(),
		To:        msg.To.Hex(),
		FromModel: msg.FromModel,
		ToModel:   msg.ToModel,
		FromUser:  services.UserSummary{ID: msg.From.Hex(), FullName: from.FullName, Role: from.Role},
		ToUser:    services.UserSummary{ID: msg.To.Hex(), FullName: to.FullName, Role: to.Role},
		Msg:       msg.Msg,
		MediaURL:  msg.MediaURL,
		Caption:   msg.Caption,
		Type:      msg.Type,
		Status:    msg.Status,
		CreatedAt: msg.CreatedAt,
	}
}
