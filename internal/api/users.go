package api

import (
	"net/http"

	"meetings/boardroom/internal/common"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
)

func userSubject(u *gormModels.User) permissions.Subject {
	return permissions.Subject{Kind: permissions.KindUser, ID: u.ID, OwnerID: u.ID}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
//
// Username may also be the email address. The response carries a bearer
// token for the Authorization header.
func (h *Handlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := h.deps.Services.Credentials.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Authentication Success", "session", res)
	}
}

// Me handles GET /api/v1/me
func (h *Handlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := h.deps.Services.Users.Me(r.Context(), principal(r).ID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, profile)
	}
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.deps.Services.Users.List(r.Context(), pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, userSubject))
	}
}

func (h *Handlers) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		u, err := h.deps.Services.Users.Get(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemOf(principal(r), u, userSubject))
	}
}

func (h *Handlers) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.UserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := h.deps.Services.Users.Create(r.Context(), req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User created successfully", "user", u)
	}
}

func (h *Handlers) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.UserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := h.deps.Services.Users.Update(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User updated successfully", "user", u)
	}
}

func (h *Handlers) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		u, err := h.deps.Services.Users.Delete(r.Context(), id)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User deleted successfully", "user", u)
	}
}

func (h *Handlers) SetUserActive(active bool) http.HandlerFunc {
	message := "User blocked successfully"
	if active {
		message = "User unblocked successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		u, err := h.deps.Services.Users.SetActive(r.Context(), id, active)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, message, "user", u)
	}
}

// CreateCredentials handles POST /api/v1/users/{id}/credentials
//
// A fresh password is generated and texted to the user.
func (h *Handlers) CreateCredentials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := h.deps.Services.Credentials.Create(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User credentials created successfully", "", nil)
	}
}

// CreateAllCredentials handles POST /api/v1/users/credentials for every
// user that has no password yet.
func (h *Handlers) CreateAllCredentials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.deps.Services.Credentials.CreateAll(r.Context())
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "User credentials created successfully", "issued", n)
	}
}

// SyncDirectory handles POST /api/v1/users/sync
func (h *Handlers) SyncDirectory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.DirectoryFile == "" {
			common.RespondFailure(w, "Users not synced")
			return
		}
		report, err := h.deps.Services.Directory.SyncFile(r.Context(), h.deps.DirectoryFile)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Users synced successfully", "report", report)
	}
}
