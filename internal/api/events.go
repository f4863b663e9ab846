package api

import (
	"context"
	"net/http"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
)

func eventSubject(e *gormModels.Event) permissions.Subject {
	return permissions.EventSubject(e.ID, e.AuthorID)
}

// eventView is an event as its detail page needs it.
type eventView struct {
	Item *services.EventDetail `json:"item"`
	permissions.Capabilities
	Delegated permissions.EventCapabilities `json:"delegated"`
}

type eventLister func(ctx context.Context, userID uint, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error)

func (h *Handlers) listEvents(list eventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		page, err := list(r.Context(), p.ID, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(p, page, eventSubject))
	}
}

// ListEvents handles GET /api/v1/events
func (h *Handlers) ListEvents() http.HandlerFunc {
	return h.listEvents(func(ctx context.Context, _ uint, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error) {
		return h.deps.Services.Events.List(ctx, req)
	})
}

// MyEvents handles GET /api/v1/me/events: events the caller authored or attends.
func (h *Handlers) MyEvents() http.HandlerFunc {
	return h.listEvents(h.deps.Services.Events.MyEvents)
}

// AuthoredEvents handles GET /api/v1/me/events/authored
func (h *Handlers) AuthoredEvents() http.HandlerFunc {
	return h.listEvents(h.deps.Services.Events.AuthoredEvents)
}

// SubscribedEvents handles GET /api/v1/me/events/subscribed
func (h *Handlers) SubscribedEvents() http.HandlerFunc {
	return h.listEvents(h.deps.Services.Events.SubscribedEvents)
}

// EventTypes handles GET /api/v1/events/types
func (h *Handlers) EventTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		common.RespondJSON(w, http.StatusOK, map[string]any{"results": h.deps.Services.Events.Types()})
	}
}

// GetEvent handles GET /api/v1/events/{id}
func (h *Handlers) GetEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		detail, err := h.deps.Services.Events.Detail(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		p := principal(r)
		delegated, err := h.deps.Permissions.EventCapabilities(r.Context(), p, id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, eventView{
			Item:         detail,
			Capabilities: permissions.Derive(p, eventSubject(detail.Event)),
			Delegated:    delegated,
		})
	}
}

// CreateEvent handles POST /api/v1/events
//
// The caller becomes the author. Members of the listed departments and
// committees are enrolled as attendees.
func (h *Handlers) CreateEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.EventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := h.deps.Services.Events.Create(r.Context(), principal(r).ID, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event created successfully", "event", e)
	}
}

func (h *Handlers) UpdateEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.EventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		e, err := h.deps.Services.Events.Update(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event updated successfully", "event", e)
	}
}

func (h *Handlers) DeleteEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		if err := h.deps.Services.Events.Delete(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		respondDeleted(w, "Event deleted successfully", id)
	}
}

func (h *Handlers) SetEventActive(active bool) http.HandlerFunc {
	message := "Event blocked successfully"
	if active {
		message = "Event unblocked successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		e, err := h.deps.Services.Events.SetActive(r.Context(), id, active)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, message, "event", e)
	}
}

// AddEventDepartment handles POST /api/v1/events/{id}/departments/{department_id}
func (h *Handlers) AddEventDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deptID, ok := pathID(w, r, "department_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		link, err := h.deps.Services.Events.AddDepartment(r.Context(), id, deptID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Department created successfully", "event_department", link)
	}
}

func (h *Handlers) RemoveEventDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deptID, ok := pathID(w, r, "department_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		if err := h.deps.Services.Events.RemoveDepartment(r.Context(), id, deptID); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Department removed successfully", "", nil)
	}
}

func (h *Handlers) AddEventCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		committeeID, ok := pathID(w, r, "committee_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		link, err := h.deps.Services.Events.AddCommittee(r.Context(), id, committeeID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Committee added successfully", "event_committee", link)
	}
}

func (h *Handlers) RemoveEventCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		committeeID, ok := pathID(w, r, "committee_id")
		if !ok {
			return
		}
		if !h.canManage(w, r, permissions.KindEvent, id, "Event") {
			return
		}
		if err := h.deps.Services.Events.RemoveCommittee(r.Context(), id, committeeID); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Committee removed successfully", "", nil)
	}
}
