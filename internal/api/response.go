package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/middleware"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies. Uploads have their own limit.
const maxBodyBytes = 1 << 20

var errBadID = errors.New("invalid id")

// respondWithError reports err. Business rejections keep status 200 with
// success=false; anything else is logged and hidden behind a 500.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if f, ok := services.AsFailure(err); ok {
		common.RespondFailure(w, f.Message)
		return
	}
	if errors.Is(err, permissions.ErrNotFound) {
		common.RespondFailure(w, "Record does not exist")
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	logging.WithRequest(middleware.RequestIDFrom(r.Context()), p.ID, r.URL.Path).
		Errorw("Request failed", "method", r.Method, "error", err)
	common.RespondError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, errBadID
	}
	return uint(n), nil
}

// pathID reads a numeric URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := parseID(chi.URLParam(r, name))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryIDs parses a comma separated id list such as ?departments=1,2.
func queryIDs(r *http.Request, name string) ([]uint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := parseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// pageRequest reads key, page and page_size. Bad numbers fall back to the
// defaults.
func pageRequest(r *http.Request) repositories.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return repositories.PageRequest{Key: strings.TrimSpace(q.Get("key")), Page: page, PageSize: size}.Normalize()
}

func principal(r *http.Request) permissions.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// Item is an entity together with the caller's capabilities on it.
type Item[T any] struct {
	Item T `json:"item"`
	permissions.Capabilities
}

// itemsOf decorates a page of rows with capabilities computed by subject.
func itemsOf[T any](p permissions.Principal, page *repositories.Page[T], subject func(*T) permissions.Subject) *repositories.Page[Item[T]] {
	out := &repositories.Page[Item[T]]{
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
		Results: make([]Item[T], 0, len(page.Results)),
	}
	for i := range page.Results {
		row := &page.Results[i]
		out.Results = append(out.Results, Item[T]{Item: *row, Capabilities: permissions.Derive(p, subject(row))})
	}
	return out
}

func itemOf[T any](p permissions.Principal, row *T, subject func(*T) permissions.Subject) Item[*T] {
	return Item[*T]{Item: row, Capabilities: permissions.Derive(p, subject(row))}
}
