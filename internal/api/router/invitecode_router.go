package router

import (
	"net/http"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/endpoints"
	"helium-admin-backend/internal/api/middleware"
	emailservice "helium-admin-backend/internal/service/email"
	invitecodeservice "helium-admin-backend/internal/service/invitecode"
)

func InviteCodeRoutes(prefix string, emails *emailservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		service := invitecodeservice.New(s.Database())
		codeEndpoints := endpoints.NewInviteCodeEndpoints(service, emails, prefix)

		mux.HandleFunc(prefix+"/invite-codes", s.MakeHTTPHandleFunc(codeEndpoints.InviteCodes, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/generate", s.MakeHTTPHandleFunc(codeEndpoints.Generate, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/archive", s.MakeHTTPHandleFunc(codeEndpoints.Archive, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/unarchive", s.MakeHTTPHandleFunc(codeEndpoints.Unarchive, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/bulk-delete", s.MakeHTTPHandleFunc(codeEndpoints.BulkDelete, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/archive-used", s.MakeHTTPHandleFunc(codeEndpoints.ArchiveUsed, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/stats", s.MakeHTTPHandleFunc(codeEndpoints.Stats, middleware.ValidateAdminJWT))
		mux.HandleFunc(prefix+"/invite-codes/", s.MakeHTTPHandleFunc(codeEndpoints.Code, middleware.ValidateAdminJWT))
	}
}
