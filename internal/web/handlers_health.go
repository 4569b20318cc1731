package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/core"
)

// HealthResponse reports liveness and load.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
	Database string                   `json:"database"`
}

// handleHealth reports service status. A configured but unreachable
// database makes the service unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Sessions: s.service.Len(),
		Uploads:  s.service.Limiter().Status(),
		Database: "disabled",
	}
	status := http.StatusOK

	if s.loader.Configured() {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.loader.Ping(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, r, status, resp)
}
