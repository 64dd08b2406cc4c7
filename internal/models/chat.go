package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatStatus is the delivery state of a message.
// Transitions are monotonic: sent -> delivered -> read.
type ChatStatus string

const (
	StatusSent      ChatStatus = "sent"
	StatusDelivered ChatStatus = "delivered"
	StatusRead      ChatStatus = "read"
)

// ChatKind distinguishes plain text messages from image messages.
type ChatKind string

const (
	KindText  ChatKind = "text"
	KindImage ChatKind = "image"
)

// RoleDoctor and RolePatient tag which collection a message party lives in.
const (
	RoleDoctor  = "Doctor"
	RolePatient = "Patient"
)

// Chat is one message between a doctor and a patient, stored in the
// "chats" collection. Exactly one of Msg / MediaURL is meaningful
// depending on Type; Caption only accompanies image messages.
type Chat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From      primitive.ObjectID `bson:"from" json:"from"`
	FromModel string             `bson:"fromModel" json:"fromModel"` // "Doctor" or "Patient"
	To        primitive.ObjectID `bson:"to" json:"to"`
	ToModel   string             `bson:"toModel" json:"toModel"`
	Msg       string             `bson:"msg,omitempty" json:"msg,omitempty"`
	Type      ChatKind           `bson:"type" json:"type"`
	MediaURL  string             `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	Caption   string             `bson:"caption,omitempty" json:"caption,omitempty"`
	Status    ChatStatus         `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
