package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/permissions"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	principal permissions.Principal
	err       error
}

func (f fakeResolver) Resolve(ctx context.Context, header string) (permissions.Principal, error) {
	if header == "" {
		return permissions.Principal{}, auth.ErrUnauthenticated
	}
	return f.principal, f.err
}

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]uint{"id": p.ID})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		resolver fakeResolver
		status   int
	}{
		{"missing header", "", fakeResolver{}, http.StatusUnauthorized},
		{"bad token", "Bearer x", fakeResolver{err: auth.ErrUnauthenticated}, http.StatusUnauthorized},
		{"store down", "Bearer x", fakeResolver{err: errors.New("connection refused")}, http.StatusInternalServerError},
		{"valid", "Bearer x", fakeResolver{principal: permissions.Principal{ID: 7}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AuthMiddleware(tt.resolver)(http.HandlerFunc(echoPrincipal))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			if tt.status == http.StatusOK {
				assert.EqualValues(t, 7, body["id"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(mw func(http.Handler) http.Handler, p permissions.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
		rec := httptest.NewRecorder()
		mw(ok).ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve(IsAdminMiddleware(), permissions.Principal{ID: 1, IsAdmin: true}).Code)
	rec := serve(IsAdminMiddleware(), permissions.Principal{ID: 1, IsStaff: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Permission denied. Requires admin", decode(t, rec)["message"])

	assert.Equal(t, http.StatusNoContent, serve(IsStaffMiddleware(), permissions.Principal{ID: 1, IsStaff: true}).Code)
	assert.Equal(t, http.StatusNoContent, serve(IsStaffMiddleware(), permissions.Principal{ID: 1, IsAdmin: true}).Code)
	assert.Equal(t, http.StatusForbidden, serve(IsStaffMiddleware(), permissions.Principal{ID: 1}).Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)

	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestMetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsRegistry(reg)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/42", nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "boardroom_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["endpoint"] == "/events/{id}" && labels["status_code"] == "202" {
				found = true
				assert.Equal(t, 2.0, metric.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/v1/events/{id}/agendas", NormalizeEndpoint("/api/v1/events/12/agendas"))
	assert.Equal(t, "/api/v1/me", NormalizeEndpoint("/api/v1/me"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, "10.0.0.9")
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:5000"), "buckets are per ip")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit("10.0.0.9:5000"))
	}
}
