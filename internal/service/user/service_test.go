package user

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
)

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]model.UserProfileItem
	accounts map[string]model.AccountItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		profiles: make(map[string]model.UserProfileItem),
		accounts: make(map[string]model.AccountItem),
	}
}

func (m *memoryRepository) GetProfile(ctx context.Context, userID string) (model.UserProfileItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return model.UserProfileItem{}, ErrNotFound
	}
	return profile, nil
}

func (m *memoryRepository) PutProfile(ctx context.Context, profile model.UserProfileItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *memoryRepository) ListProfiles(ctx context.Context) ([]model.UserProfileItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles := make([]model.UserProfileItem, 0, len(m.profiles))
	for _, profile := range m.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt > profiles[j].CreatedAt
	})
	return profiles, nil
}

func (m *memoryRepository) DeleteProfile(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	return nil
}

func (m *memoryRepository) BatchDeleteProfiles(ctx context.Context, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.profiles, id)
	}
	return nil
}

func (m *memoryRepository) GetAccount(ctx context.Context, userID string) (model.AccountItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return model.AccountItem{}, ErrNotFound
	}
	return account, nil
}

func (m *memoryRepository) PutAccount(ctx context.Context, account model.AccountItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.UserID] = account
	return nil
}

func (m *memoryRepository) ListAccounts(ctx context.Context) ([]model.AccountItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make([]model.AccountItem, 0, len(m.accounts))
	for _, account := range m.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (m *memoryRepository) DeleteAccount(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, userID)
	return nil
}

func (m *memoryRepository) BatchDeleteAccounts(ctx context.Context, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.accounts, id)
	}
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestCreateAppliesDefaults(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	user, err := svc.Create(context.Background(), CreateParams{
		Email:    "New.User@Example.com",
		FullName: "New User",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if user.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PlanType != model.DefaultPlanType {
		t.Fatalf("expected plan %q, got %q", model.DefaultPlanType, user.PlanType)
	}
	if user.AccountType != model.DefaultAccountType {
		t.Fatalf("expected account type %q, got %q", model.DefaultAccountType, user.AccountType)
	}
	if user.CreatedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("unexpected created_at %q", user.CreatedAt)
	}

	if _, ok := repo.accounts[user.UserID]; !ok {
		t.Fatal("account row missing")
	}
	if _, ok := repo.profiles[user.UserID]; !ok {
		t.Fatal("profile row missing")
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.accounts["u1"] = model.AccountItem{UserID: "u1", Email: "taken@example.com"}

	_, err := svc.Create(context.Background(), CreateParams{Email: "taken@example.com"})
	svcErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if svcErr.Code != ErrorCodeConflict {
		t.Fatalf("expected conflict, got %s", svcErr.Code)
	}
}

func TestListJoinsEmailsAndSearches(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.profiles["u1"] = model.UserProfileItem{UserID: "u1", FullName: "Ada Lovelace", CreatedAt: "2025-03-01T00:00:00Z"}
	repo.profiles["u2"] = model.UserProfileItem{UserID: "u2", FullName: "Grace Hopper", CreatedAt: "2025-03-02T00:00:00Z"}
	repo.accounts["u1"] = model.AccountItem{UserID: "u1", Email: "ada@example.com"}
	repo.accounts["u2"] = model.AccountItem{UserID: "u2", Email: "grace@navy.mil"}

	result, err := svc.List(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if result.TotalCount != 2 {
		t.Fatalf("expected 2 users, got %d", result.TotalCount)
	}
	if result.Users[0].UserID != "u2" || result.Users[0].Email != "grace@navy.mil" {
		t.Fatalf("expected u2 with joined email first, got %+v", result.Users[0])
	}

	result, err = svc.List(context.Background(), ListParams{Search: "navy"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if result.TotalCount != 1 || result.Users[0].UserID != "u2" {
		t.Fatalf("email search should match u2, got %+v", result.Users)
	}
}

func TestUpdateTouchesOnlyProvidedFields(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.profiles["u1"] = model.UserProfileItem{
		UserID:      "u1",
		FullName:    "Before",
		CompanyName: "Acme",
		PlanType:    "seed",
		CreatedAt:   "2025-03-01T00:00:00Z",
		UpdatedAt:   "2025-03-01T00:00:00Z",
	}

	name := "After"
	completed := true
	user, err := svc.Update(context.Background(), "u1", UpdateParams{
		FullName:            &name,
		OnboardingCompleted: &completed,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if user.FullName != "After" {
		t.Fatalf("expected updated name, got %q", user.FullName)
	}
	if !user.OnboardingCompleted {
		t.Fatal("expected onboarding completed")
	}
	if user.CompanyName != "Acme" {
		t.Fatalf("company should be untouched, got %q", user.CompanyName)
	}
	if user.UpdatedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("expected refreshed updated_at, got %q", user.UpdatedAt)
	}
}

func TestMergeMetadataCreatesAndMerges(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.profiles["u1"] = model.UserProfileItem{UserID: "u1"}

	profile, err := svc.MergeMetadata(context.Background(), "u1", map[string]string{"credits_assigned": "true"})
	if err != nil {
		t.Fatalf("MergeMetadata error: %v", err)
	}
	if profile.Metadata["credits_assigned"] != "true" {
		t.Fatalf("expected metadata set, got %v", profile.Metadata)
	}

	profile, err = svc.MergeMetadata(context.Background(), "u1", map[string]string{"credits_email_sent_at": "2025-03-10T12:00:00Z"})
	if err != nil {
		t.Fatalf("MergeMetadata error: %v", err)
	}
	if profile.Metadata["credits_assigned"] != "true" || profile.Metadata["credits_email_sent_at"] == "" {
		t.Fatalf("merge should keep earlier entries, got %v", profile.Metadata)
	}
}

func TestDeleteRemovesProfileAndAccount(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.profiles["u1"] = model.UserProfileItem{UserID: "u1"}
	repo.accounts["u1"] = model.AccountItem{UserID: "u1", Email: "a@x.com"}

	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := repo.profiles["u1"]; ok {
		t.Fatal("profile should be gone")
	}
	if _, ok := repo.accounts["u1"]; ok {
		t.Fatal("account should be gone")
	}
}

func TestBulkDeleteRemovesBothTables(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	for _, id := range []string{"u1", "u2", "u3"} {
		repo.profiles[id] = model.UserProfileItem{UserID: id}
		repo.accounts[id] = model.AccountItem{UserID: id}
	}

	count, err := svc.BulkDelete(context.Background(), []string{"u1", "u3"})
	if err != nil {
		t.Fatalf("BulkDelete error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 deletions, got %d", count)
	}
	if _, ok := repo.profiles["u2"]; !ok {
		t.Fatal("u2 profile should survive")
	}
	if _, ok := repo.accounts["u1"]; ok {
		t.Fatal("u1 account should be gone")
	}
}
