package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/medibridge/medibridge-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes, one pair per account kind
	r.Post("/api/auth/doctor/signup", handlers.DoctorSignup)
	r.Post("/api/auth/doctor/signin", handlers.DoctorSignin)
	r.Post("/api/auth/patient/signup", handlers.PatientSignup)
	r.Post("/api/auth/patient/signin", handlers.PatientSignin)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/logout", handlers.Logout)

	// QR connect flow and treatment lifecycle
	r.Post("/api/connect/{chatLink}", handlers.ConnectToDoctor)
	r.Get("/api/connectpatient/{chatLink}", handlers.ConnectToPatient)
	r.Post("/api/end-treatment", handlers.EndTreatment)
	r.Get("/api/doctor/patients", handlers.DoctorPatients)

	// Appointments
	r.Get("/api/appointments", handlers.ListAppointments)
	r.Delete("/api/appointments/{id}", handlers.CancelAppointment)

	// Medications and timeline
	r.Post("/api/medications", handlers.PrescribeMedications)
	r.Get("/api/medications", handlers.ListMedications)
	r.Delete("/api/medications/{id}", handlers.DeleteMedication)
	r.Get("/api/timeline", handlers.GetTimeline)

	// Chat: history for initial render, presence snapshot, image upload
	r.Get("/api/chat/history", handlers.LoadChatHistory)
	r.Get("/api/chat/online", handlers.OnlineUsers)
	r.Post("/api/chat/upload", handlers.UploadChatImage)

	// WebSocket endpoint for the real-time chat channel
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
