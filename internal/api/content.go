package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
)

const (
	maxUploadBytes   = 32 << 20
	downloadTokenTTL = 10 * time.Minute
)

// eventChild builds subjects for rows hanging off an event whose author is
// already known.
func eventChild[T any](kind permissions.Kind, authorID uint, ids func(*T) (id, eventID, ownerID uint)) func(*T) permissions.Subject {
	return func(row *T) permissions.Subject {
		id, eventID, ownerID := ids(row)
		return permissions.Subject{Kind: kind, ID: id, OwnerID: ownerID, EventID: eventID, EventAuthorID: authorID}
	}
}

func agendaIDs(a *gormModels.EventAgenda) (uint, uint, uint) { return a.ID, a.EventID, 0 }
func minuteIDs(m *gormModels.EventMinute) (uint, uint, uint) { return m.ID, m.EventID, m.AuthorID }
func documentIDs(d *gormModels.EventDocument) (uint, uint, uint) {
	return d.ID, d.EventID, 0
}

// ListAgendas handles GET /api/v1/events/{id}/agendas
func (h *Handlers) ListAgendas() http.HandlerFunc {
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
		page, err := h.deps.Services.Agendas.List(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, eventChild(permissions.KindEventAgenda, event.AuthorID, agendaIDs)))
	}
}

// CreateAgenda handles POST /api/v1/events/{id}/agendas
func (h *Handlers) CreateAgenda() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.AgendaRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.canDelegate(w, r, id, manageAgendas, "agenda manager") {
			return
		}
		a, err := h.deps.Services.Agendas.Create(r.Context(), id, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Agenda created successfully", "agenda", a)
	}
}

// agendaFor loads agenda id and checks the caller may manage its event's
// agendas.
func (h *Handlers) agendaFor(w http.ResponseWriter, r *http.Request) (*gormModels.EventAgenda, bool) {
	id, ok := pathID(w, r, "agenda_id")
	if !ok {
		return nil, false
	}
	a, err := h.deps.Services.Agendas.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return nil, false
	}
	if !h.canDelegate(w, r, a.EventID, manageAgendas, "agenda manager") {
		return nil, false
	}
	return a, true
}

// UpdateAgenda handles PUT /api/v1/agendas/{agenda_id}
func (h *Handlers) UpdateAgenda() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.AgendaRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, ok := h.agendaFor(w, r)
		if !ok {
			return
		}
		a, err := h.deps.Services.Agendas.Update(r.Context(), a.ID, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Agenda updated successfully", "agenda", a)
	}
}

func (h *Handlers) DeleteAgenda() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := h.agendaFor(w, r)
		if !ok {
			return
		}
		a, err := h.deps.Services.Agendas.Delete(r.Context(), a.ID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Agenda deleted successfully", "agenda", a)
	}
}

// ListMinutes handles GET /api/v1/events/{id}/minutes
func (h *Handlers) ListMinutes() http.HandlerFunc {
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
		page, err := h.deps.Services.Minutes.List(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, eventChild(permissions.KindEventMinute, event.AuthorID, minuteIDs)))
	}
}

// CreateMinute handles POST /api/v1/events/{id}/minutes. The caller is
// recorded as the author.
func (h *Handlers) CreateMinute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req services.MinuteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.canDelegate(w, r, id, manageMinutes, "minute manager") {
			return
		}
		m, err := h.deps.Services.Minutes.Create(r.Context(), id, principal(r).ID, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Minute created successfully", "minute", m)
	}
}

// minuteFor loads minute id. Its author, the event manager and minute
// delegates may change it.
func (h *Handlers) minuteFor(w http.ResponseWriter, r *http.Request) (*gormModels.EventMinute, bool) {
	id, ok := pathID(w, r, "minute_id")
	if !ok {
		return nil, false
	}
	m, err := h.deps.Services.Minutes.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return nil, false
	}
	caps, err := h.deps.Permissions.Evaluate(r.Context(), principal(r), permissions.KindEventMinute, id)
	if err != nil {
		respondWithError(w, r, err)
		return nil, false
	}
	if caps.CanManage {
		return m, true
	}
	if !h.canDelegate(w, r, m.EventID, manageMinutes, "minute manager") {
		return nil, false
	}
	return m, true
}

// UpdateMinute handles PUT /api/v1/minutes/{minute_id}
func (h *Handlers) UpdateMinute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.MinuteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		m, ok := h.minuteFor(w, r)
		if !ok {
			return
		}
		m, err := h.deps.Services.Minutes.Update(r.Context(), m.ID, req)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Minute updated successfully", "minute", m)
	}
}

func (h *Handlers) DeleteMinute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.minuteFor(w, r)
		if !ok {
			return
		}
		m, err := h.deps.Services.Minutes.Delete(r.Context(), m.ID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Minute deleted successfully", "minute", m)
	}
}

// ListDocuments handles GET /api/v1/events/{id}/documents
func (h *Handlers) ListDocuments() http.HandlerFunc {
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
		page, err := h.deps.Services.Documents.List(r.Context(), id, pageRequest(r))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, itemsOf(principal(r), page, eventChild(permissions.KindEventDocument, event.AuthorID, documentIDs)))
	}
}

// documentForm reads the multipart fields of a document upload. file is
// nil when the form carries none.
func documentForm(w http.ResponseWriter, r *http.Request) (services.DocumentRequest, *services.Upload, func(), bool) {
	var req services.DocumentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid upload")
		return req, nil, nil, false
	}

	req.Title = r.FormValue("title")
	if d := r.FormValue("description"); d != "" {
		req.Description = &d
	}
	if raw := strings.TrimSpace(r.FormValue("department_id")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "Invalid department_id")
			return req, nil, nil, false
		}
		req.DepartmentID = &id
	}

	cleanup := func() { _ = r.MultipartForm.RemoveAll() }
	f, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil, cleanup, true
	case err != nil:
		cleanup()
		common.RespondError(w, http.StatusBadRequest, "Invalid upload")
		return req, nil, nil, false
	}
	return req, upload(f, header), func() { f.Close(); cleanup() }, true
}

func upload(f multipart.File, header *multipart.FileHeader) *services.Upload {
	return &services.Upload{Name: path.Base(header.Filename), Body: f}
}

// CreateDocument handles POST /api/v1/events/{id}/documents (multipart)
func (h *Handlers) CreateDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !h.canDelegate(w, r, id, manageDocuments, "document manager") {
			return
		}
		req, file, done, ok := documentForm(w, r)
		if !ok {
			return
		}
		defer done()

		var body services.Upload
		if file != nil {
			body = *file
		}
		doc, err := h.deps.Services.Documents.Create(r.Context(), id, principal(r).ID, req, body)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Document created successfully", "document", doc)
	}
}

func (h *Handlers) documentFor(w http.ResponseWriter, r *http.Request) (*gormModels.EventDocument, bool) {
	id, ok := pathID(w, r, "document_id")
	if !ok {
		return nil, false
	}
	doc, err := h.deps.Services.Documents.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return nil, false
	}
	if !h.canDelegate(w, r, doc.EventID, manageDocuments, "document manager") {
		return nil, false
	}
	return doc, true
}

// UpdateDocument handles PUT /api/v1/documents/{document_id} (multipart).
// The stored file is replaced only when a new one is sent.
func (h *Handlers) UpdateDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := h.documentFor(w, r)
		if !ok {
			return
		}
		req, file, done, ok := documentForm(w, r)
		if !ok {
			return
		}
		defer done()

		doc, err := h.deps.Services.Documents.Update(r.Context(), doc.ID, req, file)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Event Document updated successfully", "document", doc)
	}
}

func (h *Handlers) DeleteDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := h.documentFor(w, r)
		if !ok {
			return
		}
		if err := h.deps.Services.Documents.Delete(r.Context(), doc.ID); err != nil {
			respondWithError(w, r, err)
			return
		}
		respondDeleted(w, "Event Document deleted successfully", doc.ID)
	}
}

type noteRequest struct {
	Note string `json:"note"`
}

// UpsertNote handles PUT /api/v1/documents/{document_id}/note
func (h *Handlers) UpsertNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "document_id")
		if !ok {
			return
		}
		var req noteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		n, err := h.deps.Services.Documents.UpsertNote(r.Context(), id, principal(r).ID, req.Note)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondMutation(w, "Document Note added successfully", "note", n)
	}
}

// GetNote handles GET /api/v1/documents/{document_id}/note
func (h *Handlers) GetNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "document_id")
		if !ok {
			return
		}
		n, err := h.deps.Services.Documents.Note(r.Context(), id, principal(r).ID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, n)
	}
}

// DocumentLink handles POST /api/v1/documents/{document_id}/link
//
// The returned token is single use and short lived.
func (h *Handlers) DocumentLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "document_id")
		if !ok {
			return
		}
		if _, err := h.deps.Services.Documents.Get(r.Context(), id); err != nil {
			respondWithError(w, r, err)
			return
		}
		token, err := h.deps.Signer.GenerateDocumentToken(principal(r).ID, id, downloadTokenTTL)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"url":        "/api/v1/documents/download?token=" + token,
			"expires_in": int(downloadTokenTTL.Seconds()),
		})
	}
}

// DownloadDocument handles GET /api/v1/documents/download?token=...
//
// The token is the credential, so this route sits outside authentication.
func (h *Handlers) DownloadDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := h.deps.Signer.ValidateToken(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			if errors.Is(err, common.ErrTokenInvalid) || errors.Is(err, common.ErrTokenUsed) {
				common.RespondError(w, http.StatusUnauthorized, "Invalid or expired link")
				return
			}
			respondWithError(w, r, err)
			return
		}

		doc, rc, err := h.deps.Services.Documents.Open(r.Context(), tok.DocumentID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		defer rc.Close()

		if err := h.deps.Signer.MarkTokenAsUsed(r.Context(), tok); err != nil {
			logging.Warn("Failed to mark download token used", "token_id", tok.TokenID, "error", err)
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(doc.File)+`"`)
		if _, err := io.Copy(w, rc); err != nil {
			logging.Warn("Document download interrupted", "document_id", doc.ID, "error", err)
		}
	}
}
