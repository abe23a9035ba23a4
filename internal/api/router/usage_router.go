package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	usageservice "helium-admin-backend/internal/service/usage"
)

func UsageRoutes(prefix string, service *usageservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		usageEndpoints := endpoints.NewUsageEndpoints(service)

		mux.HandleFunc(prefix+"/usage-logs", s.MakeHTTPHandleFunc(usageEndpoints.UsageLogs, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/usage-logs/aggregated", s.MakeHTTPHandleFunc(usageEndpoints.Aggregated, middleware.ValidateAdminJWT))
	}
}
