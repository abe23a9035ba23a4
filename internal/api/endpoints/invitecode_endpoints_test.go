package endpoints

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
	emailservice "helium-admin-backend/internal/service/email"
	invitecodeservice "helium-admin-backend/internal/service/invitecode"
)

type memoryCodeRepository struct {
	mu    sync.Mutex
	codes map[string]model.InviteCodeItem
}

func newMemoryCodeRepository() *memoryCodeRepository {
	return &memoryCodeRepository{codes: make(map[string]model.InviteCodeItem)}
}

func (m *memoryCodeRepository) GetInviteCode(ctx context.Context, id string) (model.InviteCodeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.codes[id]
	if !ok {
		return model.InviteCodeItem{}, invitecodeservice.ErrNotFound
	}
	return item, nil
}

func (m *memoryCodeRepository) GetInviteCodeByCode(ctx context.Context, code string) (model.InviteCodeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.codes {
		if item.Code == code {
			return item, nil
		}
	}
	return model.InviteCodeItem{}, invitecodeservice.ErrNotFound
}

func (m *memoryCodeRepository) PutInviteCode(ctx context.Context, item model.InviteCodeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[item.ID] = item
	return nil
}

func (m *memoryCodeRepository) ListInviteCodes(ctx context.Context) ([]model.InviteCodeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.InviteCodeItem, 0, len(m.codes))
	for _, item := range m.codes {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

func (m *memoryCodeRepository) DeleteInviteCode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, id)
	return nil
}

func (m *memoryCodeRepository) BatchDeleteInviteCodes(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.codes, id)
	}
	return nil
}

type captureSender struct {
	mu   sync.Mutex
	err  error
	sent []emailservice.Message
}

func (s *captureSender) Send(ctx context.Context, msg emailservice.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubAssetStore struct{}

func (stubAssetStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	return []byte("png"), nil
}

type stubBatchRepository struct{}

func (stubBatchRepository) GetBatch(ctx context.Context, id string) (model.EmailBatchItem, error) {
	return model.EmailBatchItem{}, emailservice.ErrNotFound
}

func (stubBatchRepository) PutBatch(ctx context.Context, item model.EmailBatchItem) error {
	return nil
}

func (stubBatchRepository) ListBatches(ctx context.Context) ([]model.EmailBatchItem, error) {
	return nil, nil
}

func (stubBatchRepository) AddResult(ctx context.Context, id string, sent, failed int, errMsg string) (model.EmailBatchItem, error) {
	return model.EmailBatchItem{}, emailservice.ErrNotFound
}

func (stubBatchRepository) SetStatus(ctx context.Context, id string, status model.BatchStatus, completedAt string) error {
	return nil
}

func codesFixedTime() time.Time {
	return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func setupInviteCodeHandler(t *testing.T, repo *memoryCodeRepository, sender *captureSender) (http.Handler, func()) {
	t.Helper()

	server, cleanup := newTestServer(t)

	service := invitecodeservice.NewWithRepository(repo, codesFixedTime)
	emails := emailservice.NewWithDependencies(stubBatchRepository{}, sender, stubAssetStore{}, "https://helium.dev", codesFixedTime)
	codeEndpoints := NewInviteCodeEndpoints(service, emails, "/api/admin/v1")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/v1/invite-codes", server.MakeHTTPHandleFunc(codeEndpoints.InviteCodes))
	mux.HandleFunc("/api/admin/v1/invite-codes/generate", server.MakeHTTPHandleFunc(codeEndpoints.Generate))
	mux.HandleFunc("/api/admin/v1/invite-codes/stats", server.MakeHTTPHandleFunc(codeEndpoints.Stats))
	mux.HandleFunc("/api/admin/v1/invite-codes/archive", server.MakeHTTPHandleFunc(codeEndpoints.Archive))
	mux.HandleFunc("/api/admin/v1/invite-codes/", server.MakeHTTPHandleFunc(codeEndpoints.Code))

	return mux, cleanup
}

func TestInviteCodeGenerateListAndStats(t *testing.T) {
	repo := newMemoryCodeRepository()
	sender := &captureSender{}
	handler, cleanup := setupInviteCodeHandler(t, repo, sender)
	defer cleanup()

	genResp := doJSONRequest[generateResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/generate",
		map[string]interface{}{"count": 3, "expires_in_days": 7}, nil, http.StatusCreated)

	if len(genResp.Codes) != 3 {
		t.Fatalf("expected 3 generated codes, got %d", len(genResp.Codes))
	}
	for _, code := range genResp.Codes {
		if code.Code == "" {
			t.Fatalf("generated code without value: %#v", code)
		}
	}

	listResp := doJSONRequest[inviteCodeListResponse](t, handler, http.MethodGet, "/api/admin/v1/invite-codes?status=active",
		nil, nil, http.StatusOK)
	if listResp.TotalCount != 3 {
		t.Fatalf("expected 3 active codes, got %d", listResp.TotalCount)
	}

	stats := doJSONRequest[invitecodeservice.Stats](t, handler, http.MethodGet, "/api/admin/v1/invite-codes/stats",
		nil, nil, http.StatusOK)
	if stats.TotalCodes != 3 || stats.ActiveCodes != 3 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestInviteCodeArchiveHidesFromActiveList(t *testing.T) {
	repo := newMemoryCodeRepository()
	sender := &captureSender{}
	handler, cleanup := setupInviteCodeHandler(t, repo, sender)
	defer cleanup()

	genResp := doJSONRequest[generateResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/generate",
		map[string]interface{}{"count": 2}, nil, http.StatusCreated)

	archived := doJSONRequest[inviteCodeBulkResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/archive",
		map[string]interface{}{"ids": []string{genResp.Codes[0].ID}}, nil, http.StatusOK)
	if archived.Affected != 1 {
		t.Fatalf("expected 1 archived code, got %d", archived.Affected)
	}

	listResp := doJSONRequest[inviteCodeListResponse](t, handler, http.MethodGet, "/api/admin/v1/invite-codes?status=active",
		nil, nil, http.StatusOK)
	if listResp.TotalCount != 1 {
		t.Fatalf("expected 1 active code after archive, got %d", listResp.TotalCount)
	}
}

func TestInviteCodeSendRecordsRecipient(t *testing.T) {
	repo := newMemoryCodeRepository()
	sender := &captureSender{}
	handler, cleanup := setupInviteCodeHandler(t, repo, sender)
	defer cleanup()

	genResp := doJSONRequest[generateResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/generate",
		map[string]interface{}{"count": 1}, nil, http.StatusCreated)
	id := genResp.Codes[0].ID

	updated := doJSONRequest[model.InviteCodeItem](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/"+id+"/send",
		map[string]string{"recipient": "invitee@example.com"}, nil, http.StatusOK)

	if len(updated.EmailSentTo) != 1 || updated.EmailSentTo[0] != "invitee@example.com" {
		t.Fatalf("expected recipient recorded, got %#v", updated.EmailSentTo)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 delivered message, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "invitee@example.com" {
		t.Fatalf("unexpected recipient: %s", sender.sent[0].To)
	}
}

func TestInviteCodeSendFailureReturnsBadGateway(t *testing.T) {
	repo := newMemoryCodeRepository()
	sender := &captureSender{err: errors.New("smtp down")}
	handler, cleanup := setupInviteCodeHandler(t, repo, sender)
	defer cleanup()

	genResp := doJSONRequest[generateResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/generate",
		map[string]interface{}{"count": 1}, nil, http.StatusCreated)
	id := genResp.Codes[0].ID

	doJSONRequest[errorResponse](t, handler, http.MethodPost, "/api/admin/v1/invite-codes/"+id+"/send",
		map[string]string{"recipient": "invitee@example.com"}, nil, http.StatusBadGateway)

	code := doJSONRequest[model.InviteCodeItem](t, handler, http.MethodGet, "/api/admin/v1/invite-codes/"+id,
		nil, nil, http.StatusOK)
	if len(code.EmailSentTo) != 0 {
		t.Fatalf("failed send must not record a recipient, got %#v", code.EmailSentTo)
	}
}
