package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"helium-admin-backend/internal/api"
	internaljwt "helium-admin-backend/internal/jwt"
	"helium-admin-backend/internal/queue"
)

func newTestServer(t *testing.T) (*api.APIServer, func()) {
	t.Helper()

	queueManager := queue.NewRequestQueueManager(10, 1)
	server := api.NewAPIServer(":0", queueManager, nil, nil)

	return server, func() {
		queueManager.Shutdown()
	}
}

func doJSONRequest[T any](t *testing.T, handler http.Handler, method, target string, body interface{}, headers map[string]string, expectedStatus int) T {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Fatalf("expected status %d, got %d: %s", expectedStatus, rec.Code, rec.Body.String())
	}

	var result T
	if expectedStatus != http.StatusNoContent {
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}

	return result
}

func setupAuthHandler(t *testing.T, hash string) (http.Handler, func()) {
	t.Helper()

	server, cleanup := newTestServer(t)
	authEndpoints := NewAuthEndpointsWithHash(hash)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/v1/auth/session", server.MakeHTTPHandleFunc(authEndpoints.Session))
	mux.HandleFunc("/api/admin/v1/auth/refresh", server.MakeHTTPHandleFunc(authEndpoints.Refresh))

	return mux, cleanup
}

type errorResponse struct {
	Message string `json:"message"`
}

func TestSessionWithoutConfiguredCredential(t *testing.T) {
	handler, cleanup := setupAuthHandler(t, "")
	defer cleanup()

	resp := doJSONRequest[errorResponse](t, handler, http.MethodPost, "/api/admin/v1/auth/session",
		map[string]string{"credential": "whatever"}, nil, http.StatusInternalServerError)

	if resp.Message != "Admin credential is not configured" {
		t.Fatalf("unexpected error message: %q", resp.Message)
	}
}

func TestSessionRejectsWrongCredential(t *testing.T) {
	hash, err := internaljwt.HashCredential("correct-horse")
	if err != nil {
		t.Fatalf("hash credential: %v", err)
	}

	handler, cleanup := setupAuthHandler(t, hash)
	defer cleanup()

	doJSONRequest[errorResponse](t, handler, http.MethodPost, "/api/admin/v1/auth/session",
		map[string]string{"credential": "battery-staple"}, nil, http.StatusUnauthorized)
}

func TestSessionRejectsWrongMethod(t *testing.T) {
	handler, cleanup := setupAuthHandler(t, "")
	defer cleanup()

	doJSONRequest[errorResponse](t, handler, http.MethodGet, "/api/admin/v1/auth/session",
		nil, nil, http.StatusMethodNotAllowed)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	handler, cleanup := setupAuthHandler(t, "")
	defer cleanup()

	doJSONRequest[errorResponse](t, handler, http.MethodPost, "/api/admin/v1/auth/refresh",
		map[string]string{"refreshToken": ""}, nil, http.StatusUnauthorized)
}
