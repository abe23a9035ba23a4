package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"helium-admin-backend/internal/env"
	internaljwt "helium-admin-backend/internal/jwt"
)

const sessionTTL = 12 * time.Hour

type AuthEndpoints interface {
	Session(http.ResponseWriter, *http.Request) error
	Refresh(http.ResponseWriter, *http.Request) error
}

type authEndpoints struct {
	credentialHash func() string
}

func NewAuthEndpoints() AuthEndpoints {
	return &authEndpoints{
		credentialHash: func() string { return env.Get(env.AdminCredential) },
	}
}

// NewAuthEndpointsWithHash pins the credential hash instead of reading it
// from the environment.
func NewAuthEndpointsWithHash(hash string) AuthEndpoints {
	return &authEndpoints{
		credentialHash: func() string { return hash },
	}
}

func (h *authEndpoints) Session(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSession,
	})
}

func (h *authEndpoints) Refresh(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRefresh,
	})
}

type sessionRequest struct {
	Credential string `json:"credential"`
}

// handleSession exchanges the admin credential for a bearer session token.
// A server without a configured credential hash cannot authenticate anyone
// and reports that as its own failure, not the caller's.
func (h *authEndpoints) handleSession(w http.ResponseWriter, r *http.Request) error {
	hash := h.credentialHash()
	if hash == "" {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Admin credential is not configured",
			ErrorLog:   fmt.Errorf("auth session: %s is empty", env.AdminCredential),
		}
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode session request: %w", err),
		}
	}

	if !internaljwt.ValidateCredential(hash, req.Credential) {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid credential",
			ErrorLog:   fmt.Errorf("auth session: credential mismatch"),
		}
	}

	admin := internaljwt.Admin{Id: "admin"}
	tokens, err := internaljwt.CreateTokenWithRefresh(admin, internaljwt.RoleAdmin, time.Now().Add(sessionTTL).Unix())
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("auth session: create token: %w", err),
		}
	}

	return WriteJSON(w, http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *authEndpoints) handleRefresh(w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode refresh request: %w", err),
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = ExtractTokenFromHeaders(r)
	}

	accessToken, err := internaljwt.RefreshToken(req.RefreshToken, internaljwt.RoleAdmin)
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("auth refresh: %w", err),
		}
	}

	return WriteJSON(w, http.StatusOK, internaljwt.TokenResponse{AccessToken: accessToken})
}
