package subscription

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
)

type memoryRepository struct {
	mu    sync.Mutex
	items map[string]model.SubscriptionItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		items: make(map[string]model.SubscriptionItem),
	}
}

func (m *memoryRepository) GetSubscription(ctx context.Context, id string) (model.SubscriptionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return model.SubscriptionItem{}, ErrNotFound
	}
	return item, nil
}

func (m *memoryRepository) GetSubscriptionByUser(ctx context.Context, userID string) (model.SubscriptionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.UserID == userID {
			return item, nil
		}
	}
	return model.SubscriptionItem{}, ErrNotFound
}

func (m *memoryRepository) PutSubscription(ctx context.Context, item model.SubscriptionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepository) ListSubscriptions(ctx context.Context) ([]model.SubscriptionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.SubscriptionItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

func (m *memoryRepository) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	item, err := svc.Upsert(context.Background(), UpsertParams{UserID: "u1", PlanType: "growth"})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if item.Status != model.SubscriptionStatusActive {
		t.Fatalf("expected default active status, got %s", item.Status)
	}
	if item.StartedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("unexpected started_at %q", item.StartedAt)
	}
	firstID := item.ID

	item, err = svc.Upsert(context.Background(), UpsertParams{
		UserID:   "u1",
		PlanType: "scale",
		Status:   model.SubscriptionStatusTrialing,
	})
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}
	if item.ID != firstID {
		t.Fatal("upsert should reuse the existing row")
	}
	if item.PlanType != "scale" || item.Status != model.SubscriptionStatusTrialing {
		t.Fatalf("expected plan change, got %+v", item)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected a single row, got %d", len(repo.items))
	}
}

func TestUpsertRejectsUnknownStatus(t *testing.T) {
	svc := NewWithRepository(newMemoryRepository(), fixedNow)

	_, err := svc.Upsert(context.Background(), UpsertParams{
		UserID:   "u1",
		PlanType: "growth",
		Status:   "paused",
	})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListFiltersByStatusAndUser(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.items["s1"] = model.SubscriptionItem{ID: "s1", UserID: "u1", Status: model.SubscriptionStatusActive, CreatedAt: "2025-03-01T00:00:00Z"}
	repo.items["s2"] = model.SubscriptionItem{ID: "s2", UserID: "u2", Status: model.SubscriptionStatusCanceled, CreatedAt: "2025-03-02T00:00:00Z"}
	repo.items["s3"] = model.SubscriptionItem{ID: "s3", UserID: "u3", Status: model.SubscriptionStatusActive, CreatedAt: "2025-03-03T00:00:00Z"}

	result, err := svc.List(context.Background(), ListParams{Status: model.SubscriptionStatusActive})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if result.TotalCount != 2 {
		t.Fatalf("expected 2 active, got %d", result.TotalCount)
	}
	if result.Subscriptions[0].ID != "s3" {
		t.Fatalf("expected newest first, got %s", result.Subscriptions[0].ID)
	}

	result, err = svc.List(context.Background(), ListParams{UserID: "u2"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if result.TotalCount != 1 || result.Subscriptions[0].ID != "s2" {
		t.Fatalf("expected only s2, got %+v", result.Subscriptions)
	}
}

func TestCancelAtPeriodEndKeepsStatus(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.items["s1"] = model.SubscriptionItem{ID: "s1", UserID: "u1", Status: model.SubscriptionStatusActive}

	item, err := svc.Cancel(context.Background(), "s1", true)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if item.Status != model.SubscriptionStatusActive {
		t.Fatalf("status should stay active, got %s", item.Status)
	}
	if !item.CancelAtPeriodEnd {
		t.Fatal("expected cancel flag set")
	}

	item, err = svc.Cancel(context.Background(), "s1", false)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if item.Status != model.SubscriptionStatusCanceled || item.CancelAtPeriodEnd {
		t.Fatalf("expected immediate cancel, got %+v", item)
	}
}

func TestSetStatusValidates(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.items["s1"] = model.SubscriptionItem{ID: "s1", Status: model.SubscriptionStatusActive}

	_, err := svc.SetStatus(context.Background(), "s1", "bogus")
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	item, err := svc.SetStatus(context.Background(), "s1", model.SubscriptionStatusPastDue)
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if item.Status != model.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due, got %s", item.Status)
	}
	if item.UpdatedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("expected refreshed updated_at, got %q", item.UpdatedAt)
	}
}
