package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	waitlistservice "helium-admin-backend/internal/service/waitlist"
)

func WaitlistRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := waitlistservice.New(s.Database())
		waitlistEndpoints := endpoints.NewWaitlistEndpoints(service, prefix)

		mux.HandleFunc(prefix+"/waitlist", s.MakeHTTPHandleFunc(waitlistEndpoints.Waitlist, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/waitlist/archive", s.MakeHTTPHandleFunc(waitlistEndpoints.Archive, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/waitlist/unarchive", s.MakeHTTPHandleFunc(waitlistEndpoints.Unarchive, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/waitlist/", s.MakeHTTPHandleFunc(waitlistEndpoints.Entry, middleware.ValidateAdminJWT))
	}
}
