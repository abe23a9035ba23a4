package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	subscriptionservice "helium-admin-backend/internal/service/subscription"
)

func SubscriptionRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := subscriptionservice.New(s.Database())
		subEndpoints := endpoints.NewSubscriptionEndpoints(service)

		mux.HandleFunc(prefix+"/subscriptions", s.MakeHTTPHandleFunc(subEndpoints.Subscriptions, middleware.ValidateAdminJWT))
	}
}
