package api

import (
	"net/http"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db"
)

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]ServiceStatus `json:"services"`
}

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(pinger db.Pinger, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]ServiceStatus)

		pg := ServiceStatus{Status: "ok", Details: "Postgres Connected"}
		if pinger == nil {
			pg = ServiceStatus{Status: "ok", Details: "No probe configured"}
		} else if err := pinger.Ping(); err != nil {
			pg = ServiceStatus{Status: "down", Details: err.Error()}
		}
		services["postgres"] = pg

		overallStatus := "ok"
		code := http.StatusOK
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				code = http.StatusServiceUnavailable
				break
			}
		}

		common.RespondJSON(w, code, HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		})
	}
}

// QueueStats handles GET /api/v1/admin/queue
func (h *Handlers) QueueStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Queue == nil {
			common.RespondFailure(w, "Notification queue is disabled")
			return
		}
		stats, err := h.deps.Queue.Stats(r.Context())
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, stats)
	}
}
