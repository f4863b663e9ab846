package api

import (
	"net/http"

	"meetings/boardroom/internal/common"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
)

// Departments are called directorates in user facing messages.

var (
	departmentSubject = adminOnly(permissions.KindDepartment, func(d *gormModels.Department) uint { return d.ID })
	committeeSubject  = adminOnly(permissions.KindCommittee, func(c *gormModels.Committee) uint { return c.ID })
	venueSubject      = adminOnly(permissions.KindVenue, func(v *gormModels.Venue) uint { return v.ID })
)

// ListDepartments handles GET /api/v1/departments
func (h *Handlers) ListDepartments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.deps.Services.Departments.List(r.Context(), pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, departmentSubject))
	}
}

// GetDepartment handles GET /api/v1/departments/{id}
func (h *Handlers) GetDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		d, err := h.deps.Services.Departments.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemOf(principal(r), d, departmentSubject))
	}
}

// CreateDepartment handles POST /api/v1/departments
func (h *Handlers) CreateDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.DepartmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := h.deps.Services.Departments.Create(r.Context(), req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Directorate created successfully", "department", d)
	}
}

// UpdateDepartment handles PUT /api/v1/departments/{id}
func (h *Handlers) UpdateDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.DepartmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := h.deps.Services.Departments.Update(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Directorate updated successfully", "department", d)
	}
}

// DeleteDepartment handles DELETE /api/v1/departments/{id}
func (h *Handlers) DeleteDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := h.deps.Services.Departments.Delete(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		respondDeleted(w, "Directorate deleted successfully", id)
	}
}

// SetDepartmentActive handles POST /api/v1/departments/{id}/block and /unblock
func (h *Handlers) SetDepartmentActive(active bool) http.HandlerFunc {
	message := "Directorate blocked successfully"
	if active {
		message = "Directorate unblocked successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		d, err := h.deps.Services.Departments.SetActive(r.Context(), id, active)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, message, "department", d)
	}
}

// ListDepartmentMembers handles GET /api/v1/departments/{id}/members
func (h *Handlers) ListDepartmentMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		page, err := h.deps.Services.Departments.Members(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		subject := adminOnly(permissions.KindUserDepartment, func(m *gormModels.UserDepartment) uint { return m.ID })
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, subject))
	}
}

// AddDepartmentMember handles POST /api/v1/departments/{id}/members/{user_id}
func (h *Handlers) AddDepartmentMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		m, err := h.deps.Services.Departments.AddUser(r.Context(), id, userID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User Department created successfully", "user_department", m)
	}
}

// RemoveDepartmentMember handles DELETE /api/v1/departments/{id}/members/{user_id}
func (h *Handlers) RemoveDepartmentMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		if err := h.deps.Services.Departments.RemoveUser(r.Context(), id, userID); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User Department removed successfully", "", nil)
	}
}

// ListCommittees handles GET /api/v1/committees
func (h *Handlers) ListCommittees() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.deps.Services.Committees.List(r.Context(), pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, committeeSubject))
	}
}

// GetCommittee handles GET /api/v1/committees/{id}
func (h *Handlers) GetCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		c, err := h.deps.Services.Committees.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemOf(principal(r), c, committeeSubject))
	}
}

func (h *Handlers) CreateCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.CommitteeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := h.deps.Services.Committees.Create(r.Context(), req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Committee created successfully", "committee", c)
	}
}

func (h *Handlers) UpdateCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.CommitteeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := h.deps.Services.Committees.Update(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Committee updated successfully", "committee", c)
	}
}

func (h *Handlers) DeleteCommittee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := h.deps.Services.Committees.Delete(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		respondDeleted(w, "Committee deleted successfully", id)
	}
}

func (h *Handlers) SetCommitteeActive(active bool) http.HandlerFunc {
	message := "Committee blocked successfully"
	if active {
		message = "Committee unblocked successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		c, err := h.deps.Services.Committees.SetActive(r.Context(), id, active)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, message, "committee", c)
	}
}

// ListCommitteeMembers handles GET /api/v1/committees/{id}/members
func (h *Handlers) ListCommitteeMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		page, err := h.deps.Services.Committees.Members(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		subject := adminOnly(permissions.KindUserCommittee, func(m *gormModels.UserCommittee) uint { return m.ID })
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, subject))
	}
}

// AddCommitteeMember handles POST /api/v1/committees/{id}/members/{user_id}
func (h *Handlers) AddCommitteeMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		m, err := h.deps.Services.Committees.AddMember(r.Context(), id, userID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Committee Member created successfully", "committee_member", m)
	}
}

// RemoveCommitteeMember handles DELETE /api/v1/committees/members/{membership_id}.
// Memberships are addressed by their own id.
func (h *Handlers) RemoveCommitteeMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "membership_id")
		if !ok {
			return
		}
		if err := h.deps.Services.Committees.RemoveMember(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		respondDeleted(w, "Committee Member deleted successfully", id)
	}
}

// ListCommitteeDepartments handles GET /api/v1/committees/{id}/departments
func (h *Handlers) ListCommitteeDepartments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		rows, err := h.deps.Services.Committees.Departments(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		p := principal(r)
		out := make([]Item[gormModels.CommitteeDepartment], 0, len(rows))
		for _, row := range rows {
			caps := permissions.Derive(p, permissions.Subject{Kind: permissions.KindCommitteeDepartment, ID: row.ID})
			out = append(out, Item[gormModels.CommitteeDepartment]{Item: row, Capabilities: caps})
		}
		common.RespondJSON(w, http.StatusOK, map[string]any{"results": out})
	}
}

func (h *Handlers) AddCommitteeDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deptID, ok := pathID(w, r, "department_id")
		if !ok {
			return
		}
		link, err := h.deps.Services.Committees.AddDepartment(r.Context(), id, deptID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Committee Department added successfully", "committee_department", link)
	}
}

func (h *Handlers) RemoveCommitteeDepartment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deptID, ok := pathID(w, r, "department_id")
		if !ok {
			return
		}
		if err := h.deps.Services.Committees.RemoveDepartment(r.Context(), id, deptID); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Committee Department removed successfully", "", nil)
	}
}

// ListVenues handles GET /api/v1/venues
func (h *Handlers) ListVenues() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.deps.Services.Venues.List(r.Context(), pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, venueSubject))
	}
}

func (h *Handlers) GetVenue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		v, err := h.deps.Services.Venues.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemOf(principal(r), v, venueSubject))
	}
}

// VenueTypes handles GET /api/v1/venues/types
func (h *Handlers) VenueTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		common.RespondJSON(w, http.StatusOK, map[string]any{"results": h.deps.Services.Venues.Types()})
	}
}

func (h *Handlers) CreateVenue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.VenueRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err := h.deps.Services.Venues.Create(r.Context(), req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Venue created successfully", "venue", v)
	}
}

func (h *Handlers) UpdateVenue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.VenueRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err := h.deps.Services.Venues.Update(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Venue updated successfully", "venue", v)
	}
}

func (h *Handlers) DeleteVenue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		v, err := h.deps.Services.Venues.Delete(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Venue deleted successfully", "venue", v)
	}
}

func (h *Handlers) SetVenueActive(active bool) http.HandlerFunc {
	message := "Venue blocked successfully"
	if active {
		message = "Venue unblocked successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		v, err := h.deps.Services.Venues.SetActive(r.Context(), id, active)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, message, "venue", v)
	}
}
