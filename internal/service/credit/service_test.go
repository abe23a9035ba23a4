package credit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
)

type memoryRepository struct {
	mu        sync.Mutex
	balances  map[string]model.CreditBalanceItem
	purchases map[string]model.CreditPurchaseItem
	usage     map[string]model.CreditUsageItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		balances:  make(map[string]model.CreditBalanceItem),
		purchases: make(map[string]model.CreditPurchaseItem),
		usage:     make(map[string]model.CreditUsageItem),
	}
}

func (m *memoryRepository) GetBalance(ctx context.Context, userID string) (model.CreditBalanceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return model.CreditBalanceItem{}, ErrNotFound
	}
	return balance, nil
}

func (m *memoryRepository) PutBalance(ctx context.Context, balance model.CreditBalanceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balance.UserID] = balance
	return nil
}

func (m *memoryRepository) ListBalances(ctx context.Context) ([]model.CreditBalanceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balances := make([]model.CreditBalanceItem, 0, len(m.balances))
	for _, balance := range m.balances {
		balances = append(balances, balance)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].LastUpdated > balances[j].LastUpdated
	})
	return balances, nil
}

func (m *memoryRepository) ListPurchases(ctx context.Context) ([]model.CreditPurchaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purchases := make([]model.CreditPurchaseItem, 0, len(m.purchases))
	for _, purchase := range m.purchases {
		purchases = append(purchases, purchase)
	}
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].CreatedAt > purchases[j].CreatedAt
	})
	return purchases, nil
}

func (m *memoryRepository) GetPurchase(ctx context.Context, id string) (model.CreditPurchaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purchase, ok := m.purchases[id]
	if !ok {
		return model.CreditPurchaseItem{}, ErrNotFound
	}
	return purchase, nil
}

func (m *memoryRepository) PutUsage(ctx context.Context, usage model.CreditUsageItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[usage.ID] = usage
	return nil
}

func (m *memoryRepository) ListUsage(ctx context.Context) ([]model.CreditUsageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	usage := make([]model.CreditUsageItem, 0, len(m.usage))
	for _, entry := range m.usage {
		usage = append(usage, entry)
	}
	sort.Slice(usage, func(i, j int) bool {
		return usage[i].CreatedAt > usage[j].CreatedAt
	})
	return usage, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestAssignCreatesBalance(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	balance, err := svc.Assign(context.Background(), AssignParams{
		UserID: "u1",
		Amount: 25.5,
		Notes:  "welcome grant",
	})
	if err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	if balance.BalanceDollars != 25.5 || balance.TotalPurchased != 25.5 {
		t.Fatalf("unexpected balance %+v", balance)
	}
	if balance.TotalUsed != 0 {
		t.Fatalf("fresh balance should have no usage, got %v", balance.TotalUsed)
	}
	if balance.Metadata["initial_assignment_amount"] != "25.5" {
		t.Fatalf("expected initial assignment metadata, got %v", balance.Metadata)
	}
	if balance.Metadata["initial_assignment_notes"] != "welcome grant" {
		t.Fatalf("expected notes in metadata, got %v", balance.Metadata)
	}
}

func TestAssignStacksOnExistingBalance(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.balances["u1"] = model.CreditBalanceItem{
		UserID:         "u1",
		BalanceDollars: 10,
		TotalPurchased: 40,
		TotalUsed:      30,
		Metadata:       map[string]string{"initial_assignment_amount": "40"},
	}

	balance, err := svc.Assign(context.Background(), AssignParams{UserID: "u1", Amount: 5})
	if err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	if balance.BalanceDollars != 15 {
		t.Fatalf("expected balance 15, got %v", balance.BalanceDollars)
	}
	if balance.TotalPurchased != 45 {
		t.Fatalf("expected total purchased 45, got %v", balance.TotalPurchased)
	}
	if balance.TotalUsed != 30 {
		t.Fatalf("total used should not move, got %v", balance.TotalUsed)
	}
	if balance.Metadata["last_assignment_amount"] != "5" {
		t.Fatalf("expected last assignment metadata, got %v", balance.Metadata)
	}
	if balance.Metadata["initial_assignment_amount"] != "40" {
		t.Fatalf("initial assignment metadata should survive, got %v", balance.Metadata)
	}
	if balance.LastUpdated != "2025-03-10T12:00:00Z" {
		t.Fatalf("expected refreshed last_updated, got %q", balance.LastUpdated)
	}
}

func TestAssignValidates(t *testing.T) {
	svc := NewWithRepository(newMemoryRepository(), fixedNow)

	_, err := svc.Assign(context.Background(), AssignParams{UserID: "u1", Amount: 0})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	_, err = svc.Assign(context.Background(), AssignParams{UserID: "  ", Amount: 5})
	svcErr, ok = err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error for blank user, got %v", err)
	}
}

func TestBalancesSortedAndFiltered(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.balances["u1"] = model.CreditBalanceItem{UserID: "u1", LastUpdated: "2025-03-01T00:00:00Z"}
	repo.balances["u2"] = model.CreditBalanceItem{UserID: "u2", LastUpdated: "2025-03-05T00:00:00Z"}

	balances, err := svc.Balances(context.Background(), "")
	if err != nil {
		t.Fatalf("Balances error: %v", err)
	}
	if len(balances) != 2 || balances[0].UserID != "u2" {
		t.Fatalf("expected u2 first, got %+v", balances)
	}

	balances, err = svc.Balances(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Balances error: %v", err)
	}
	if len(balances) != 1 || balances[0].UserID != "u1" {
		t.Fatalf("expected only u1, got %+v", balances)
	}
}

func TestPurchasesStatusFilter(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.purchases["p1"] = model.CreditPurchaseItem{ID: "p1", Status: model.PurchaseStatusCompleted, CreatedAt: "2025-03-01T00:00:00Z"}
	repo.purchases["p2"] = model.CreditPurchaseItem{ID: "p2", Status: model.PurchaseStatusPending, CreatedAt: "2025-03-02T00:00:00Z"}

	purchases, err := svc.Purchases(context.Background(), model.PurchaseStatusPending)
	if err != nil {
		t.Fatalf("Purchases error: %v", err)
	}
	if len(purchases) != 1 || purchases[0].ID != "p2" {
		t.Fatalf("expected only p2, got %+v", purchases)
	}

	_, err = svc.Purchases(context.Background(), "bogus")
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordUsageDeductsBalance(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.balances["u1"] = model.CreditBalanceItem{
		UserID:         "u1",
		BalanceDollars: 20,
		TotalPurchased: 20,
	}

	entry, err := svc.RecordUsage(context.Background(), UsageParams{
		UserID:      "u1",
		Amount:      7.25,
		Description: "api usage",
	})
	if err != nil {
		t.Fatalf("RecordUsage error: %v", err)
	}
	if entry.AmountDollars != 7.25 {
		t.Fatalf("unexpected usage amount %v", entry.AmountDollars)
	}

	balance := repo.balances["u1"]
	if balance.BalanceDollars != 12.75 {
		t.Fatalf("expected balance 12.75, got %v", balance.BalanceDollars)
	}
	if balance.TotalUsed != 7.25 {
		t.Fatalf("expected total used 7.25, got %v", balance.TotalUsed)
	}
	if len(repo.usage) != 1 {
		t.Fatalf("expected one usage row, got %d", len(repo.usage))
	}
}

func TestRecordUsageRequiresBalance(t *testing.T) {
	svc := NewWithRepository(newMemoryRepository(), fixedNow)

	_, err := svc.RecordUsage(context.Background(), UsageParams{UserID: "ghost", Amount: 1})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
