package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	dashboardservice "helium-admin-backend/internal/service/dashboard"
)

func DashboardRoutes(prefix string, service *dashboardservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		dashEndpoints := endpoints.NewDashboardEndpoints(service)

		mux.HandleFunc(prefix+"/dashboard/stats", s.MakeHTTPHandleFunc(dashEndpoints.Stats, middleware.ValidateAdminJWT))
	}
}
