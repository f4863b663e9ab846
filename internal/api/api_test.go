package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetings/boardroom/internal/api"
	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/metrics"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/phone"
	"meetings/boardroom/internal/routes"
	"meetings/boardroom/internal/services"
	"meetings/boardroom/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// bearerResolver trusts "Bearer <user id>" and loads the user's roles.
type bearerResolver struct {
	db *gorm.DB
}

func (b bearerResolver) Resolve(ctx context.Context, header string) (permissions.Principal, error) {
	var id uint
	if _, err := fmt.Sscanf(header, "Bearer %d", &id); err != nil {
		return permissions.Principal{}, auth.ErrUnauthenticated
	}
	var u gormModels.User
	if err := b.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return permissions.Principal{}, auth.ErrUnauthenticated
	}
	return permissions.Principal{ID: u.ID, IsAdmin: u.IsAdmin, IsStaff: u.IsStaff}, nil
}

type sentSMS struct{ to, message string }

type recordingDispatcher struct {
	sent []sentSMS
}

func (d *recordingDispatcher) Send(_ context.Context, to, message, _ string) error {
	d.sent = append(d.sent, sentSMS{to: to, message: message})
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

type harness struct {
	t      *testing.T
	db     *gorm.DB
	server http.Handler
	sms    *recordingDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb := dbtest.Open(t)
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	phones := phone.NewValidator("TZ")
	sms := &recordingDispatcher{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	deps := &api.Dependencies{
		Services: &api.Services{
			Departments: services.NewDepartmentService(gdb),
			Committees:  services.NewCommitteeService(gdb),
			Users:       services.NewUserService(gdb, phones, nil),
			Venues:      services.NewVenueService(gdb),
			Events:      services.NewEventService(gdb, m),
			Attendees:   services.NewAttendeeService(gdb, m),
			Agendas:     services.NewAgendaService(gdb),
			Minutes:     services.NewMinuteService(gdb),
			Documents:   services.NewDocumentService(gdb, storage.NewLocalStore(t.TempDir())),
			Invitations: services.NewInvitationService(gdb, sms),
			Credentials: services.NewCredentialService(gdb, phones, sms, tokens),
			Directory:   services.NewDirectorySyncService(gdb, phones),
		},
		Permissions: permissions.NewEvaluator(permissions.NewGormLookup(gdb)),
		Signer:      common.NewURLSignerService([]byte("test-secret"), nil),
		UpSince:     time.Now(),
	}

	return &harness{
		t:      t,
		db:     gdb,
		server: routes.RegisterRoutes(deps, routes.Options{Resolver: bearerResolver{db: gdb}, Metrics: m}),
		sms:    sms,
	}
}

func (h *harness) send(req *http.Request, as *gormModels.User) *httptest.ResponseRecorder {
	if as != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %d", as.ID))
	}
	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path string, as *gormModels.User, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return h.send(req, as)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// mutated asserts a 200 success envelope and returns the entity under key.
func mutated(t *testing.T, rec *httptest.ResponseRecorder, message, key string) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, true, body["success"], rec.Body.String())
	assert.Equal(t, message, body["message"])
	entity, _ := body[key].(map[string]any)
	return entity
}

func failed(t *testing.T, rec *httptest.ResponseRecorder, message string) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, message, body["message"])
}

func idOf(entity map[string]any) uint {
	return uint(entity["id"].(float64))
}

func eventBody(title string, venueID uint, start time.Time, d time.Duration, departments ...uint) map[string]any {
	return map[string]any{
		"title":       title,
		"event_type":  "meeting",
		"start_time":  start.Format(time.RFC3339),
		"end_time":    start.Add(d).Format(time.RFC3339),
		"venue_id":    venueID,
		"departments": departments,
	}
}

func TestRoutesRequireBearerToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/events", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Token nope")
	assert.Equal(t, http.StatusUnauthorized, h.send(req, nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.User(t, h.db, "admin", true)
	member := dbtest.User(t, h.db, "member", false)

	rec := h.do(http.MethodPost, "/api/v1/departments", member, map[string]any{"name": "Finance"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Permission denied. Requires admin")

	dept := mutated(t, h.do(http.MethodPost, "/api/v1/departments", admin, map[string]any{"name": "Finance"}),
		"Directorate created successfully", "department")
	assert.Equal(t, "Finance", dept["name"])

	failed(t, h.do(http.MethodPost, "/api/v1/departments", admin, map[string]any{"name": "Finance"}),
		"Directorate already exists")

	// reads stay open to members, with the caller's capabilities attached
	rec = h.do(http.MethodGet, "/api/v1/departments", member, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])
	row := page["results"].([]any)[0].(map[string]any)
	assert.Equal(t, false, row["can_manage"])
}

func TestEventLifecycle(t *testing.T) {
	h := newHarness(t)
	author := dbtest.User(t, h.db, "author", false)
	other := dbtest.User(t, h.db, "other", false)
	venue := dbtest.Venue(t, h.db, "Hall")
	dept := dbtest.Department(t, h.db, "Finance", other)

	event := mutated(t, h.do(http.MethodPost, "/api/v1/events", author,
		eventBody("Budget review", venue.ID, dbtest.At(10, 0), time.Hour, dept.ID)),
		"Event created successfully", "event")
	require.NotNil(t, event)
	eventID := idOf(event)
	assert.EqualValues(t, author.ID, event["author_id"])

	failed(t, h.do(http.MethodPost, "/api/v1/events", other,
		eventBody("Clash", venue.ID, dbtest.At(10, 30), time.Hour)),
		"Venue is not available for the event time")

	// back to back bookings share the boundary
	mutated(t, h.do(http.MethodPost, "/api/v1/events", other,
		eventBody("Follow up", venue.ID, dbtest.At(11, 0), time.Hour)),
		"Event created successfully", "event")

	path := fmt.Sprintf("/api/v1/events/%d", eventID)
	view := decode(t, h.do(http.MethodGet, path, author, nil))
	assert.Equal(t, true, view["can_manage"])
	assert.Equal(t, true, view["delegated"].(map[string]any)["manage_agendas"])

	view = decode(t, h.do(http.MethodGet, path, other, nil))
	assert.Equal(t, false, view["can_manage"])

	rec := h.do(http.MethodPut, path, other, eventBody("Hijack", venue.ID, dbtest.At(14, 0), time.Hour))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// department members were enrolled on create
	page := decode(t, h.do(http.MethodGet, path+"/attendees", author, nil))
	assert.EqualValues(t, 1, page["total"])

	rec = h.do(http.MethodDelete, path, author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])

	failed(t, h.do(http.MethodGet, path, author, nil), "Event does not exist")
}

func TestAttendeeDelegation(t *testing.T) {
	h := newHarness(t)
	author := dbtest.User(t, h.db, "author", false)
	guest := dbtest.User(t, h.db, "guest", false)
	venue := dbtest.Venue(t, h.db, "Hall")
	event := dbtest.Event(t, h.db, venue, author, dbtest.At(10, 0), time.Hour)
	agendas := fmt.Sprintf("/api/v1/events/%d/agendas", event.ID)

	row := mutated(t, h.do(http.MethodPost, fmt.Sprintf("/api/v1/events/%d/attendees/%d", event.ID, guest.ID), author, nil),
		"Event Attendee created successfully", "attendee")
	rowID := idOf(row)

	rec := h.do(http.MethodPost, agendas, guest, map[string]any{"title": "Opening"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// only the event's managers hand out delegations
	rec = h.do(http.MethodPut, fmt.Sprintf("/api/v1/attendees/%d/manage_agendas", rowID), guest, map[string]any{"value": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mutated(t, h.do(http.MethodPut, fmt.Sprintf("/api/v1/attendees/%d/manage_agendas", rowID), author, map[string]any{"value": true}),
		"Attendee can manage agendas successfully", "attendee")

	agenda := mutated(t, h.do(http.MethodPost, agendas, guest, map[string]any{"title": "Opening"}),
		"Event Agenda created successfully", "agenda")
	assert.EqualValues(t, 1, agenda["index"])

	// an attendee confirms their own attendance
	updated := mutated(t, h.do(http.MethodPut, fmt.Sprintf("/api/v1/attendees/%d/is_attending", rowID), guest, map[string]any{"value": true}),
		"Attendance updated successfully", "attendee")
	assert.Equal(t, true, updated["is_attending"])
}

func TestBulkAttendees(t *testing.T) {
	h := newHarness(t)
	author := dbtest.User(t, h.db, "author", false)
	a := dbtest.User(t, h.db, "a", false)
	b := dbtest.User(t, h.db, "b", false)
	venue := dbtest.Venue(t, h.db, "Hall")
	event := dbtest.Event(t, h.db, venue, author, dbtest.At(10, 0), time.Hour)
	path := fmt.Sprintf("/api/v1/events/%d/attendees", event.ID)

	rec := h.do(http.MethodPost, path, author, map[string]any{"attendees": []uint{a.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, path, author, map[string]any{"attendees": []uint{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decode(t, rec)["attendees"].([]any)
	require.Len(t, added, 1)
	assert.EqualValues(t, b.ID, added[0].(map[string]any)["attendee_id"])

	rec = h.do(http.MethodPost, path+"/remove", author, map[string]any{"attendees": []uint{a.ID, 999}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Event Attendees removed successfully", body["message"])
	assert.EqualValues(t, 1, body["removed"])

	failed(t, h.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, a.ID), author, nil), "Event Attendee does not exist")
}

func (h *harness) upload(path string, as *gormModels.User, title, filename, content string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(h.t, mw.WriteField("title", title))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(h.t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.send(req, as)
}

func TestDocumentDownloadLink(t *testing.T) {
	h := newHarness(t)
	author := dbtest.User(t, h.db, "author", false)
	guest := dbtest.User(t, h.db, "guest", false)
	venue := dbtest.Venue(t, h.db, "Hall")
	event := dbtest.Event(t, h.db, venue, author, dbtest.At(10, 0), time.Hour)
	path := fmt.Sprintf("/api/v1/events/%d/documents", event.ID)

	rec := h.upload(path, guest, "Pack", "pack.txt", "board pack")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	doc := mutated(t, h.upload(path, author, "Pack", "pack.txt", "board pack"),
		"Event Document created successfully", "document")
	docID := idOf(doc)

	rec = h.do(http.MethodPost, fmt.Sprintf("/api/v1/documents/%d/link", docID), guest, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	link := decode(t, rec)
	url := link["url"].(string)
	require.True(t, strings.HasPrefix(url, "/api/v1/documents/download?token="))

	rec = h.do(http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "board pack", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = h.do(http.MethodGet, "/api/v1/documents/download?token=forged", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDocumentNotesArePerUser(t *testing.T) {
	h := newHarness(t)
	author := dbtest.User(t, h.db, "author", false)
	guest := dbtest.User(t, h.db, "guest", false)
	venue := dbtest.Venue(t, h.db, "Hall")
	event := dbtest.Event(t, h.db, venue, author, dbtest.At(10, 0), time.Hour)

	doc := mutated(t, h.upload(fmt.Sprintf("/api/v1/events/%d/documents", event.ID), author, "Pack", "pack.txt", "x"),
		"Event Document created successfully", "document")
	notePath := fmt.Sprintf("/api/v1/documents/%d/note", idOf(doc))

	mutated(t, h.do(http.MethodPut, notePath, guest, map[string]any{"note": "check page 3"}),
		"Document Note added successfully", "note")

	rec := h.do(http.MethodGet, notePath, guest, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "check page 3")

	rec = h.do(http.MethodGet, notePath, author, nil)
	assert.NotContains(t, rec.Body.String(), "check page 3")
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	failed(t, h.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]any{"username": "ghost", "password": "x"}),
		"Authentication Failed User not found")

	rec := h.do(http.MethodPost, "/api/v1/auth/login", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueStatsNeedStaff(t *testing.T) {
	h := newHarness(t)
	member := dbtest.User(t, h.db, "member", false)
	admin := dbtest.User(t, h.db, "admin", true)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/v1/admin/queue", member, nil).Code)
	failed(t, h.do(http.MethodGet, "/api/v1/admin/queue", admin, nil), "Notification queue is disabled")
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	api.HealthCheckHandler(fakePinger{}, time.Now()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	api.HealthCheckHandler(fakePinger{err: errors.New("down")}, time.Now()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
