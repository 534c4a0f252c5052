package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/mtpl/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	clockHandler := handlers.NewClockHandler(s.deps.Service)
	enrollHandler := handlers.NewEnrollHandler(s.deps.Service)
	liveHandler := handlers.NewLiveHandler(s.deps.Service, s.deps.Records)
	personsHandler := handlers.NewPersonsHandler(s.deps.Templates, s.deps.Directory)
	settingsHandler := handlers.NewSettingsHandler(s.deps.Settings, s.deps.AllowedIPs, s.deps.Policy)
	holidaysHandler := handlers.NewHolidaysHandler(s.deps.Holidays)
	statsHandler := handlers.NewStatsHandler(s.deps.Records, s.deps.Templates)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Enrollment
		r.Post("/enroll", enrollHandler.Enroll)

		// Attendance
		r.Post("/attendance/clock", clockHandler.Clock)
		r.Post("/attendance/break", clockHandler.Break)
		r.Post("/attendance/live", liveHandler.Mark)
		r.Get("/attendance/status", liveHandler.Status)
		r.Get("/attendance/latest", liveHandler.Latest)
		r.Get("/attendance/stats", statsHandler.Day)

		// Enrolled people
		r.Get("/persons", personsHandler.List)
		r.Delete("/persons/{userID}/template", personsHandler.RevokeTemplate)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)
		r.Get("/settings/allowed-ips", settingsHandler.ListAllowedIPs)
		r.Post("/settings/allowed-ips", settingsHandler.AddAllowedIP)
		r.Delete("/settings/allowed-ips/{id}", settingsHandler.DeleteAllowedIP)
		r.Post("/settings/allowed-ips/{id}/toggle", settingsHandler.ToggleAllowedIP)

		// Holidays
		r.Get("/holidays", holidaysHandler.List)
		r.Post("/holidays", holidaysHandler.Add)
		r.Delete("/holidays/{id}", holidaysHandler.Delete)
	})
}
