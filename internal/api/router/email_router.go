package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	emailservice "helium-admin-backend/internal/service/email"
	identityservice "helium-admin-backend/internal/service/identity"
	userservice "helium-admin-backend/internal/service/user"
)

func EmailRoutes(prefix string, emails *emailservice.Service, mail endpoints.EmailEnqueuer) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		identity := identityservice.New(s.Database())
		users := userservice.New(s.Database())
		emailEndpoints := endpoints.NewEmailEndpoints(emails, identity, users, mail, prefix)

		mux.HandleFunc(prefix+"/emails/send", s.MakeHTTPHandleFunc(emailEndpoints.Send, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/emails/bulk", s.MakeHTTPHandleFunc(emailEndpoints.Bulk, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/emails/batches", s.MakeHTTPHandleFunc(emailEndpoints.Batches, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/emails/batches/", s.MakeHTTPHandleFunc(emailEndpoints.Batch, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/emails/images", s.MakeHTTPHandleFunc(emailEndpoints.Images, middleware.ValidateAdminJWT))
	}
}
