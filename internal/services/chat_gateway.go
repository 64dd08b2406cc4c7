package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/models"
)

// RegisterIn is the inbound "register" payload.
type RegisterIn struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// PrivateMessageIn is the inbound "private message" payload.
type PrivateMessageIn struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Msg      string `json:"msg,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// ReadMessageIn is the inbound "read message" payload.
type ReadMessageIn struct {
	MessageID string `json:"messageId"`
}

// ScheduleAppointmentIn is the inbound "schedule_appointment" payload.
type ScheduleAppointmentIn struct {
	DoctorID  string `json:"doctorID"`
	PatientID string `json:"patientID"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// UserSummary is the lightweight profile projection attached to
// outbound messages so clients can render without a second round trip.
type UserSummary struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// PrivateMessageOut is the outbound "private message" payload.
type PrivateMessageOut struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	FromModel string            `json:"fromModel"`
	ToModel   string            `json:"toModel"`
	FromUser  UserSummary       `json:"fromUser"`
	ToUser    UserSummary       `json:"toUser"`
	Msg       string            `json:"msg,omitempty"`
	MediaURL  string            `json:"mediaUrl,omitempty"`
	Caption   string            `json:"caption,omitempty"`
	Type      models.ChatKind   `json:"type"`
	Status    models.ChatStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// MessageReadPayload is the outbound "message read" notification.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
}

// Gateway is the bidirectional real-time channel layer: it registers
// connections, relays private messages and read receipts, records
// appointment events, and keeps the presence registry in sync.
//
// Failures here are never surfaced to the peer: unresolved identities
// and storage errors are logged and the event dropped, per the portal's
// best-effort delivery model. Storage is the source of truth; a client
// that missed a push reconciles via chat history on reconnect.
type Gateway struct {
	Presence     *PresenceRegistry
	Resolver     IdentityResolver
	Store        MessageStore
	Appointments AppointmentScheduler
}

func NewGateway(presence *PresenceRegistry, resolver IdentityResolver, store MessageStore, appts AppointmentScheduler) *Gateway {
	return &Gateway{
		Presence:     presence,
		Resolver:     resolver,
		Store:        store,
		Appointments: appts,
	}
}

// HandleRegister transitions a connection to the registered state.
// Events with a missing userId or role are silently ignored and the
// connection stays wherever it was.
func (g *Gateway) HandleRegister(conn ChatConn, in RegisterIn) {
	if in.UserID == "" || in.Role == "" {
		return
	}
	g.Presence.Register(in.UserID, in.Role, conn)
}

// HandleDisconnect evicts the connection from the presence registry.
func (g *Gateway) HandleDisconnect(conn ChatConn) {
	g.Presence.Unregister(conn)
}

// HandlePrivateMessage processes one inbound message from a live
// connection. sender is echoed the persisted payload so both ends show
// a consistent delivery status.
func (g *Gateway) HandlePrivateMessage(ctx context.Context, sender ChatConn, in PrivateMessageIn) {
	g.deliver(ctx, sender, in)
}

// SendMessage routes a message that originated outside the socket (the
// image upload endpoint) through the same persistence and delivery path
// as a live "private message" event. The sender's echo goes to their
// registered connection, if any.
func (g *Gateway) SendMessage(ctx context.Context, in PrivateMessageIn) *PrivateMessageOut {
	return g.deliver(ctx, nil, in)
}

func (g *Gateway) deliver(ctx context.Context, sender ChatConn, in PrivateMessageIn) *PrivateMessageOut {
	fromID, err := primitive.ObjectIDFromHex(in.From)
	if err != nil {
		log.Printf("chat: dropping message with malformed sender id %q", in.From)
		return nil
	}
	toID, err := primitive.ObjectIDFromHex(in.To)
	if err != nil {
		log.Printf("chat: dropping message with malformed recipient id %q", in.To)
		return nil
	}

	fromIdent, err := g.Resolver.Resolve(ctx, fromID)
	if err != nil {
		log.Printf("chat: sender %s not resolved: %v", in.From, err)
		return nil
	}
	toIdent, err := g.Resolver.Resolve(ctx, toID)
	if err != nil {
		log.Printf("chat: recipient %s not resolved: %v", in.To, err)
		return nil
	}

	// A media reference makes the message an image regardless of any
	// body text that came along; caption only applies to images.
	kind := models.KindText
	if in.MediaURL != "" {
		kind = models.KindImage
	}

	msg := &models.Chat{
		From:      fromID,
		FromModel: fromIdent.ModelName(),
		To:        toID,
		ToModel:   toIdent.ModelName(),
		Msg:       in.Msg,
		Type:      kind,
		MediaURL:  in.MediaURL,
		Caption:   in.Caption,
		Status:    models.StatusSent,
	}
	if err := g.Store.Insert(ctx, msg); err != nil {
		log.Printf("chat: failed to persist message from %s to %s: %v", in.From, in.To, err)
		return nil
	}

	// Presence check and the eventual push are deliberately not atomic:
	// if the recipient disconnects in between, the push is lost but the
	// stored status remains correct.
	recipConn, online := g.Presence.Lookup(in.To)
	if online {
		if err := g.Store.UpdateStatus(ctx, msg.ID, models.StatusDelivered); err != nil {
			log.Printf("chat: failed to mark message %s delivered: %v", msg.ID.Hex(), err)
			return nil
		}
		msg.Status = models.StatusDelivered
	}

	out := buildMessagePayload(msg, fromIdent, toIdent)

	if online {
		if err := recipConn.WriteJSON(Event{Event: EventPrivateMessage, Data: out}); err != nil {
			log.Printf("chat: push to recipient %s failed: %v", in.To, err)
		}
	}

	if sender == nil {
		sender, _ = g.Presence.Lookup(in.From)
	}
	if sender != nil {
		if err := sender.WriteJSON(Event{Event: EventPrivateMessage, Data: out}); err != nil {
			log.Printf("chat: echo to sender %s failed: %v", in.From, err)
		}
	}
	return out
}

// HandleReadMessage marks a message read and notifies the original
// sender if they are still online. Unknown ids and repeated receipts
// are silent no-ops.
func (g *Gateway) HandleReadMessage(ctx context.Context, in ReadMessageIn) {
	id, err := primitive.ObjectIDFromHex(in.MessageID)
	if err != nil {
		return
	}

	msg, err := g.Store.Get(ctx, id)
	if err != nil {
		if err != ErrMessageNotFound {
			log.Printf("chat: failed to load message %s for read receipt: %v", in.MessageID, err)
		}
		return
	}

	if err := g.Store.UpdateStatus(ctx, id, models.StatusRead); err != nil {
		log.Printf("chat: failed to mark message %s read: %v", in.MessageID, err)
		return
	}

	if senderConn, ok := g.Presence.Lookup(msg.From.Hex()); ok {
		_ = senderConn.WriteJSON(Event{
			Event: EventMessageRead,
			Data:  MessageReadPayload{MessageID: in.MessageID},
		})
	}
}

// HandleScheduleAppointment records an appointment on both profiles.
// Persistence-only: no push goes to either party.
func (g *Gateway) HandleScheduleAppointment(ctx context.Context, in ScheduleAppointmentIn) {
	doctorID, err := primitive.ObjectIDFromHex(in.DoctorID)
	if err != nil {
		return
	}
	patientID, err := primitive.ObjectIDFromHex(in.PatientID)
	if err != nil {
		return
	}
	if in.Date == "" || in.Time == "" {
		return
	}

	if err := g.Appointments.Schedule(ctx, doctorID, patientID, in.Date, in.Time); err != nil {
		log.Printf("chat: appointment scheduling for doctor %s / patient %s failed: %v", in.DoctorID, in.PatientID, err)
	}
}

func buildMessagePayload(msg *models.Chat, from, to *Identity) *PrivateMessageOut {
	return &PrivateMessageOut{
		ID:        msg.ID.Hex(),
		From:      msg.From.Hex(),
		To:        msg.To.Hex(),
		FromModel: msg.FromModel,
		ToModel:   msg.ToModel,
		FromUser:  UserSummary{ID: from.ID.Hex(), FullName: from.FullName, Role: from.Role},
		ToUser:    UserSummary{ID: to.ID.Hex(), FullName: to.FullName, Role: to.Role},
		Msg:       msg.Msg,
		MediaURL:  msg.MediaURL,
		Caption:   msg.Caption,
		Type:      msg.Type,
		Status:    msg.Status,
		CreatedAt: msg.CreatedAt,
	}
}
