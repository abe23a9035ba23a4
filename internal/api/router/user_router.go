package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	userservice "helium-admin-backend/internal/service/user"
)

func UserRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := userservice.New(s.Database())
		userEndpoints := endpoints.NewUserEndpoints(service, prefix)

		mux.HandleFunc(prefix+"/users", s.MakeHTTPHandleFunc(userEndpoints.Users, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/users/bulk-delete", s.MakeHTTPHandleFunc(userEndpoints.BulkDelete, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/users/", s.MakeHTTPHandleFunc(userEndpoints.User, middleware.ValidateAdminJWT))
	}
}
