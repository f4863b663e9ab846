package routes

import (
	"meetings/boardroom/internal/api"
	"meetings/boardroom/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, h *api.Handlers, opts Options) {
	r.Route("/api/v1", func(v1 chi.Router) {
		// Public
		v1.Group(func(public chi.Router) {
			if opts.LoginLimiter != nil {
				public.Use(opts.LoginLimiter.Middleware)
			}
			public.Post("/auth/login", h.Login())
		})
		v1.Get("/documents/download", h.DownloadDocument())

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.AuthMiddleware(opts.Resolver)) // every route below needs a bearer token

			authed.Get("/me", h.Me())
			authed.Get("/me/events", h.MyEvents())
			authed.Get("/me/events/authored", h.AuthoredEvents())
			authed.Get("/me/events/subscribed", h.SubscribedEvents())

			// Organisation reads
			authed.Get("/departments", h.ListDepartments())
			authed.Get("/departments/{id}", h.GetDepartment())
			authed.Get("/departments/{id}/members", h.ListDepartmentMembers())
			authed.Get("/committees", h.ListCommittees())
			authed.Get("/committees/{id}", h.GetCommittee())
			authed.Get("/committees/{id}/members", h.ListCommitteeMembers())
			authed.Get("/committees/{id}/departments", h.ListCommitteeDepartments())
			authed.Get("/venues", h.ListVenues())
			authed.Get("/venues/types", h.VenueTypes())
			authed.Get("/venues/{id}", h.GetVenue())
			authed.Get("/users", h.ListUsers())
			authed.Get("/users/{id}", h.GetUser())

			// Events. Writes check the evaluator per row.
			authed.Get("/events", h.ListEvents())
			authed.Get("/events/types", h.EventTypes())
			authed.Post("/events", h.CreateEvent())
			authed.Get("/events/{id}", h.GetEvent())
			authed.Put("/events/{id}", h.UpdateEvent())
			authed.Delete("/events/{id}", h.DeleteEvent())
			authed.Post("/events/{id}/block", h.SetEventActive(false))
			authed.Post("/events/{id}/unblock", h.SetEventActive(true))
			authed.Post("/events/{id}/departments/{department_id}", h.AddEventDepartment())
			authed.Delete("/events/{id}/departments/{department_id}", h.RemoveEventDepartment())
			authed.Post("/events/{id}/committees/{committee_id}", h.AddEventCommittee())
			authed.Delete("/events/{id}/committees/{committee_id}", h.RemoveEventCommittee())

			authed.Get("/events/{id}/attendees", h.ListAttendees())
			authed.Post("/events/{id}/attendees", h.BulkAddAttendees())
			authed.Post("/events/{id}/attendees/remove", h.BulkRemoveAttendees())
			authed.Get("/events/{id}/attendees/candidates", h.AttendeeCandidates())
			authed.Post("/events/{id}/attendees/{user_id}", h.AddAttendee())
			authed.Delete("/events/{id}/attendees/{user_id}", h.RemoveAttendee())
			authed.Put("/attendees/{attendee_id}/{delegation}", h.SetDelegation())
			authed.Post("/events/{id}/invitations", h.SendInvitations())
			authed.Post("/events/{id}/invitations/{attendee_id}", h.SendInvitation())

			authed.Get("/events/{id}/agendas", h.ListAgendas())
			authed.Post("/events/{id}/agendas", h.CreateAgenda())
			authed.Put("/agendas/{agenda_id}", h.UpdateAgenda())
			authed.Delete("/agendas/{agenda_id}", h.DeleteAgenda())

			authed.Get("/events/{id}/minutes", h.ListMinutes())
			authed.Post("/events/{id}/minutes", h.CreateMinute())
			authed.Put("/minutes/{minute_id}", h.UpdateMinute())
			authed.Delete("/minutes/{minute_id}", h.DeleteMinute())

			authed.Get("/events/{id}/documents", h.ListDocuments())
			authed.Post("/events/{id}/documents", h.CreateDocument())
			authed.Put("/documents/{document_id}", h.UpdateDocument())
			authed.Delete("/documents/{document_id}", h.DeleteDocument())
			authed.Get("/documents/{document_id}/note", h.GetNote())
			authed.Put("/documents/{document_id}/note", h.UpsertNote())
			authed.Post("/documents/{document_id}/link", h.DocumentLink())

			// Staff-only group
			authed.Group(func(staff chi.Router) {
				staff.Use(middleware.IsStaffMiddleware())
				staff.Get("/admin/queue", h.QueueStats())
			})

			// Admin-only group
			authed.Group(func(admin chi.Router) {
				admin.Use(middleware.IsAdminMiddleware())

				admin.Post("/departments", h.CreateDepartment())
				admin.Put("/departments/{id}", h.UpdateDepartment())
				admin.Delete("/departments/{id}", h.DeleteDepartment())
				admin.Post("/departments/{id}/block", h.SetDepartmentActive(false))
				admin.Post("/departments/{id}/unblock", h.SetDepartmentActive(true))
				admin.Post("/departments/{id}/members/{user_id}", h.AddDepartmentMember())
				admin.Delete("/departments/{id}/members/{user_id}", h.RemoveDepartmentMember())

				admin.Post("/committees", h.CreateCommittee())
				admin.Put("/committees/{id}", h.UpdateCommittee())
				admin.Delete("/committees/{id}", h.DeleteCommittee())
				admin.Post("/committees/{id}/block", h.SetCommitteeActive(false))
				admin.Post("/committees/{id}/unblock", h.SetCommitteeActive(true))
				admin.Post("/committees/{id}/members/{user_id}", h.AddCommitteeMember())
				admin.Delete("/committees/members/{membership_id}", h.RemoveCommitteeMember())
				admin.Post("/committees/{id}/departments/{department_id}", h.AddCommitteeDepartment())
				admin.Delete("/committees/{id}/departments/{department_id}", h.RemoveCommitteeDepartment())

				admin.Post("/venues", h.CreateVenue())
				admin.Put("/venues/{id}", h.UpdateVenue())
				admin.Delete("/venues/{id}", h.DeleteVenue())
				admin.Post("/venues/{id}/block", h.SetVenueActive(false))
				admin.Post("/venues/{id}/unblock", h.SetVenueActive(true))

				admin.Post("/users", h.CreateUser())
				admin.Post("/users/credentials", h.CreateAllCredentials())
				admin.Post("/users/sync", h.SyncDirectory())
				admin.Put("/users/{id}", h.UpdateUser())
				admin.Delete("/users/{id}", h.DeleteUser())
				admin.Post("/users/{id}/block", h.SetUserActive(false))
				admin.Post("/users/{id}/unblock", h.SetUserActive(true))
				admin.Post("/users/{id}/credentials", h.CreateCredentials())
			})
		})
	})
}
