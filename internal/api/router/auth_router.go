package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
)

func AuthRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		authEndpoints := endpoints.NewAuthEndpoints()
		mux.HandleFunc(prefix+"/auth/session", s.MakeHTTPHandleFunc(authEndpoints.Session))
		mux.HandleFunc(prefix+"/auth/refresh", s.MakeHTTPHandleFunc(authEndpoints.Refresh))
	}
}
