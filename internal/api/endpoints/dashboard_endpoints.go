package endpoints

import (
	"fmt"
	"net/http"

	dashboardservice "helium-admin-backend/internal/service/dashboard"
)

type DashboardEndpoints interface {
	Stats(http.ResponseWriter, *http.Request) error
}

type dashboardEndpoints struct {
	service *dashboardservice.Service
}

func NewDashboardEndpoints(service *dashboardservice.Service) DashboardEndpoints {
	return &dashboardEndpoints{service: service}
}

func (h *dashboardEndpoints) Stats(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleStats,
	})
}

func (h *dashboardEndpoints) handleStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("dashboard stats: %w", err),
		}
	}
	return WriteJSON(w, http.StatusOK, stats)
}
