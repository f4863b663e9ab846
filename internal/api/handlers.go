package api

import (
	"errors"
	"net/http"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// canManage answers the request and returns false unless the caller may
// manage the row. A missing row is reported as "<entity> does not exist".
func (h *Handlers) canManage(w http.ResponseWriter, r *http.Request, kind permissions.Kind, id uint, entity string) bool {
	caps, err := h.deps.Permissions.Evaluate(r.Context(), principal(r), kind, id)
	if err != nil {
		if errors.Is(err, permissions.ErrNotFound) {
			common.RespondFailure(w, entity+" does not exist")
			return false
		}
		respondWithError(w, r, err)
		return false
	}
	if !caps.CanManage {
		common.RespondPermissionDenied(w, "event manager")
		return false
	}
	return true
}

// eventCapabilities loads the caller's delegated rights on eventID. The
// event must exist.
func (h *Handlers) eventCapabilities(w http.ResponseWriter, r *http.Request, eventID uint) (permissions.EventCapabilities, bool) {
	if _, err := h.deps.Services.Events.Get(r.Context(), eventID); err != nil {
		respondWithError(w, r, err)
		return permissions.EventCapabilities{}, false
	}
	caps, err := h.deps.Permissions.EventCapabilities(r.Context(), principal(r), eventID)
	if err != nil {
		respondWithError(w, r, err)
		return permissions.EventCapabilities{}, false
	}
	return caps, true
}

// canDelegate checks one delegated right on eventID.
func (h *Handlers) canDelegate(w http.ResponseWriter, r *http.Request, eventID uint, pick func(permissions.EventCapabilities) bool, requirement string) bool {
	caps, ok := h.eventCapabilities(w, r, eventID)
	if !ok {
		return false
	}
	if !pick(caps) {
		common.RespondPermissionDenied(w, requirement)
		return false
	}
	return true
}

func manageDocuments(c permissions.EventCapabilities) bool { return c.ManageDocuments }
func manageAgendas(c permissions.EventCapabilities) bool   { return c.ManageAgendas }
func manageMinutes(c permissions.EventCapabilities) bool   { return c.ManageMinutes }

// adminOnly is the subject of rows only admins may manage.
func adminOnly[T any](kind permissions.Kind, id func(*T) uint) func(*T) permissions.Subject {
	return func(row *T) permissions.Subject {
		return permissions.Subject{Kind: kind, ID: id(row)}
	}
}

// respondDeleted confirms a deletion.
func respondDeleted(w http.ResponseWriter, message string, id uint) {
	common.RespondMutation(w, message, "deleted", services.Deleted{ID: id})
}
