package api

import (
	"net/http"

	"meetings/boardroom/internal/attendees"
	"meetings/boardroom/internal/common"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"

	"github.com/go-chi/chi/v5"
)

type AttendeesRequest struct {
	Attendees []uint `json:"attendees"`
}

type delegationRequest struct {
	Value bool `json:"value"`
}

var delegationMessages = map[attendees.Delegation]string{
	attendees.DelegationUpload:        "Attendee can upload successfully",
	attendees.DelegationManageAgendas: "Attendee can manage agendas successfully",
	attendees.DelegationManageMinutes: "Attendee can manage minutes successfully",
	attendees.DelegationAttending:     "Attendance updated successfully",
}

// ListAttendees handles GET /api/v1/events/{id}/attendees
func (h *Handlers) ListAttendees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		event, err := h.deps.Services.Events.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		page, err := h.deps.Services.Attendees.List(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		subject := func(a *gormModels.EventAttendee) permissions.Subject {
			return permissions.Subject{Kind: permissions.KindEventAttendee, ID: a.ID, EventID: a.EventID, EventAuthorID: event.AuthorID}
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, subject))
	}
}

// AttendeeCandidates handles GET /api/v1/events/{id}/attendees/candidates?departments=1,2
func (h *Handlers) AttendeeCandidates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deptIDs, err := queryIDs(r, "departments")
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "Invalid departments")
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		page, err := h.deps.Services.Attendees.Candidates(r.Context(), id, deptIDs, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, page)
	}
}

// AddAttendee handles POST /api/v1/events/{id}/attendees/{user_id}
func (h *Handlers) AddAttendee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		row, err := h.deps.Services.Attendees.Add(r.Context(), id, userID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Attendee created successfully", "attendee", row)
	}
}

// RemoveAttendee handles DELETE /api/v1/events/{id}/attendees/{user_id}
func (h *Handlers) RemoveAttendee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		if err := h.deps.Services.Attendees.Remove(r.Context(), id, userID); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Attendee removed successfully", "", nil)
	}
}

// BulkAddAttendees handles POST /api/v1/events/{id}/attendees
//
// Only rows that did not exist before are returned.
func (h *Handlers) BulkAddAttendees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req AttendeesRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		rows, err := h.deps.Services.Attendees.BulkAdd(r.Context(), id, req.Attendees)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Attendee created successfully", "attendees", rows)
	}
}

// BulkRemoveAttendees handles POST /api/v1/events/{id}/attendees/remove.
// Ids that are not attendees are skipped.
func (h *Handlers) BulkRemoveAttendees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req AttendeesRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		n, err := h.deps.Services.Attendees.BulkRemove(r.Context(), id, req.Attendees)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Attendees removed successfully", "removed", n)
	}
}

// SetDelegation handles PUT /api/v1/attendees/{attendee_id}/{delegation}
//
// The attendee may set is_attending on their own row. Every other flag
// needs the event manager.
func (h *Handlers) SetDelegation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "attendee_id")
		if !ok {
			return
		}
		d := attendees.Delegation(chi.URLParam(r, "delegation"))
		var req delegationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		row, err := h.deps.Services.Attendees.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		self := d == attendees.DelegationAttending && row.AttendeeID == principal(r).ID
		if !self && !h.canManage(w, r, permissions.KindEventAttendee, id, "Event Attendee") {
			return
		}

		row, err = h.deps.Services.Attendees.SetDelegation(r.Context(), id, d, req.Value)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, delegationMessages[d], "attendee", row)
	}
}

// SendInvitations handles POST /api/v1/events/{id}/invitations
func (h *Handlers) SendInvitations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		n, err := h.deps.Services.Invitations.SendAll(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "SMS sent successfully", "sent", n)
	}
}

// SendInvitation handles POST /api/v1/events/{id}/invitations/{attendee_id}
func (h *Handlers) SendInvitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		attendeeID, ok := pathID(w, r, "attendee_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		sent, err := h.deps.Services.Invitations.SendOne(r.Context(), id, attendeeID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		if !sent {
			common.RespondFailure(w, "SMS not sent")
			return
		}
		common.RespondMutation(w, "SMS sent successfully", "", nil)
	}
}
