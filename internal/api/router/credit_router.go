package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	creditservice "helium-admin-backend/internal/service/credit"
	emailservice "helium-admin-backend/internal/service/email"
	identityservice "helium-admin-backend/internal/service/identity"
	userservice "helium-admin-backend/internal/service/user"
)

func CreditRoutes(prefix string, emails *emailservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := creditservice.New(s.Database())
		identity := identityservice.New(s.Database())
		users := userservice.New(s.Database())
		creditEndpoints := endpoints.NewCreditEndpoints(service, identity, users, emails)

		mux.HandleFunc(prefix+"/credits/balances", s.MakeHTTPHandleFunc(creditEndpoints.Balances, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/credits/purchases", s.MakeHTTPHandleFunc(creditEndpoints.Purchases, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/credits/usage", s.MakeHTTPHandleFunc(creditEndpoints.Usage, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/credits/assign", s.MakeHTTPHandleFunc(creditEndpoints.Assign, middleware.ValidateAdminJWT))
	}
}
