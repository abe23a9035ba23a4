package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
)

func FeedRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		feedEndpoints := endpoints.NewFeedEndpoints(s.FeedHandler(), prefix)

		mux.HandleFunc(prefix+"/feed/tables", s.MakeHTTPHandleFunc(feedEndpoints.Tables))
		mux.HandleFunc(prefix+"/feed/", s.MakeHTTPHandleFunc(feedEndpoints.Join))
	}
}
