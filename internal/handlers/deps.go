package handlers

import (
	"github.com/medibridge/medibridge-backend/internal/config"
	"github.com/medibridge/medibridge-backend/internal/services"
)

// Package-level services, wired once from main at startup.
var (
	cfg               *config.Config
	accounts          *services.AccountService
	chatGateway       *services.Gateway
	presence          *services.PresenceRegistry
	identities        services.IdentityResolver
	messages          services.MessageStore
	appointments      *services.MongoAppointments
	timelines         *services.TimelineService
	medications       *services.MedicationService
	cloudinaryService *services.CloudinaryService
)

// Deps carries everything the handler layer needs.
type Deps struct {
	Config       *config.Config
	Accounts     *services.AccountService
	Gateway      *services.Gateway
	Presence     *services.PresenceRegistry
	Identities   services.IdentityResolver
	Messages     services.MessageStore
	Appointments *services.MongoAppointments
	Timelines    *services.TimelineService
	Medications  *services.MedicationService
	Cloudinary   *services.CloudinaryService // nil when uploads are unavailable
}

// Init wires the handler layer. Call before mounting routes.
func Init(d Deps) {
	cfg = d.Config
	accounts = d.Accounts
	chatGateway = d.Gateway
	presence = d.Presence
	identities = d.Identities
	messages = d.Messages
	appointments = d.Appointments
	timelines = d.Timelines
	medications = d.Medications
	cloudinaryService = d.Cloudinary
}
