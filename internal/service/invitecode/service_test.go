package invitecode

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
)

type memoryRepository struct {
	mu    sync.Mutex
	codes map[string]model.InviteCodeItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		codes: make(map[string]model.InviteCodeItem),
	}
}

func (m *memoryRepository) GetInviteCode(ctx context.Context, id string) (model.InviteCodeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.codes[id]
	if !ok {
		return model.InviteCodeItem{}, ErrNotFound
	}
	return item, nil
}

func (m *memoryRepository) GetInviteCodeByCode(ctx context.Context, code string) (model.InviteCodeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.codes {
		if item.Code == code {
			return item, nil
		}
	}
	return model.InviteCodeItem{}, ErrNotFound
}

func (m *memoryRepository) PutInviteCode(ctx context.Context, item model.InviteCodeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[item.ID] = item
	return nil
}

func (m *memoryRepository) ListInviteCodes(ctx context.Context) ([]model.InviteCodeItem, error) {
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

func (m *memoryRepository) DeleteInviteCode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, id)
	return nil
}

func (m *memoryRepository) BatchDeleteInviteCodes(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.codes, id)
	}
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestGenerateDefaults(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	items, err := svc.Generate(context.Background(), GenerateParams{Count: 3})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 codes, got %d", len(items))
	}

	seen := make(map[string]bool)
	for _, item := range items {
		if !strings.HasPrefix(item.Code, "NA") || len(item.Code) != 7 {
			t.Fatalf("unexpected code format %q", item.Code)
		}
		if seen[item.Code] {
			t.Fatalf("duplicate code %q in one batch", item.Code)
		}
		seen[item.Code] = true
		if item.MaxUses != 1 {
			t.Fatalf("expected default max uses 1, got %d", item.MaxUses)
		}
		if item.ExpiresAt != "2025-04-09T12:00:00Z" {
			t.Fatalf("expected 30-day expiry, got %s", item.ExpiresAt)
		}
	}
	if len(repo.codes) != 3 {
		t.Fatalf("expected 3 stored codes, got %d", len(repo.codes))
	}
}

func TestGenerateRejectsOversizedBatch(t *testing.T) {
	svc := NewWithRepository(newMemoryRepository(), fixedNow)

	_, err := svc.Generate(context.Background(), GenerateParams{Count: 101})
	if err == nil {
		t.Fatal("expected an error")
	}
	svcErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %s", svcErr.Code)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", CreatedAt: "2025-03-01T00:00:00Z", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 1}
	repo.codes["c2"] = model.InviteCodeItem{ID: "c2", Code: "NABBBBB", CreatedAt: "2025-03-02T00:00:00Z", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 1, IsUsed: true}
	repo.codes["c3"] = model.InviteCodeItem{ID: "c3", Code: "NACCCCC", CreatedAt: "2025-03-03T00:00:00Z", ExpiresAt: "2025-03-05T00:00:00Z", MaxUses: 1}
	repo.codes["c4"] = model.InviteCodeItem{ID: "c4", Code: "NADDDDD", CreatedAt: "2025-03-04T00:00:00Z", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 1, IsArchived: true}

	cases := []struct {
		status Status
		want   []string
	}{
		{StatusAll, []string{"c4", "c3", "c2", "c1"}},
		{StatusActive, []string{"c1"}},
		{StatusUsed, []string{"c2"}},
		{StatusExpired, []string{"c3"}},
		{StatusArchived, []string{"c4"}},
	}
	for _, tc := range cases {
		items, err := svc.List(context.Background(), ListParams{Status: tc.status})
		if err != nil {
			t.Fatalf("List(%s) error: %v", tc.status, err)
		}
		got := make([]string, 0, len(items))
		for _, item := range items {
			got = append(got, item.ID)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("List(%s): expected %v, got %v", tc.status, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("List(%s): expected %v, got %v", tc.status, tc.want, got)
			}
		}
	}
}

func TestListSearchMatchesCode(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAXY123", CreatedAt: "2025-03-01T00:00:00Z"}
	repo.codes["c2"] = model.InviteCodeItem{ID: "c2", Code: "NAZZ999", CreatedAt: "2025-03-02T00:00:00Z"}

	items, err := svc.List(context.Background(), ListParams{Search: "xy1"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "c1" {
		t.Fatalf("expected only c1, got %+v", items)
	}
}

func TestRedeemSingleUse(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 1}

	item, err := svc.Redeem(context.Background(), "naaaaaa", "user-1")
	if err != nil {
		t.Fatalf("Redeem error: %v", err)
	}
	if !item.IsUsed || item.CurrentUses != 1 {
		t.Fatalf("expected used code, got %+v", item)
	}
	if item.UsedBy != "user-1" {
		t.Fatalf("expected used_by user-1, got %q", item.UsedBy)
	}
	if item.UsedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("unexpected used_at %q", item.UsedAt)
	}

	_, err = svc.Redeem(context.Background(), "NAAAAAA", "user-2")
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeExhausted {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestRedeemMultiUseFlipsAtLimit(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 2}

	item, err := svc.Redeem(context.Background(), "NAAAAAA", "user-1")
	if err != nil {
		t.Fatalf("first Redeem error: %v", err)
	}
	if item.IsUsed {
		t.Fatal("code should not be used yet")
	}
	if item.CurrentUses != 1 {
		t.Fatalf("expected 1 use, got %d", item.CurrentUses)
	}

	item, err = svc.Redeem(context.Background(), "NAAAAAA", "user-2")
	if err != nil {
		t.Fatalf("second Redeem error: %v", err)
	}
	if !item.IsUsed || item.UsedBy != "user-2" {
		t.Fatalf("expected exhausted code used by user-2, got %+v", item)
	}
}

func TestRedeemRejectsExpiredAndArchived(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", ExpiresAt: "2025-03-01T00:00:00Z", MaxUses: 1}
	repo.codes["c2"] = model.InviteCodeItem{ID: "c2", Code: "NABBBBB", ExpiresAt: "2025-04-01T00:00:00Z", MaxUses: 1, IsArchived: true}

	_, err := svc.Redeem(context.Background(), "NAAAAAA", "user-1")
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeExpired {
		t.Fatalf("expected expired error, got %v", err)
	}
	_, err = svc.Redeem(context.Background(), "NABBBBB", "user-1")
	svcErr, ok = err.(*Error)
	if !ok || svcErr.Code != ErrorCodeArchived {
		t.Fatalf("expected archived error, got %v", err)
	}
}

func TestArchiveUsedSweep(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", IsUsed: true}
	repo.codes["c2"] = model.InviteCodeItem{ID: "c2", Code: "NABBBBB", IsUsed: true, IsArchived: true}
	repo.codes["c3"] = model.InviteCodeItem{ID: "c3", Code: "NACCCCC"}

	count, err := svc.ArchiveUsed(context.Background())
	if err != nil {
		t.Fatalf("ArchiveUsed error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 archived, got %d", count)
	}
	if !repo.codes["c1"].IsArchived {
		t.Fatal("c1 should be archived")
	}
	if repo.codes["c3"].IsArchived {
		t.Fatal("c3 is unused and should stay")
	}
}

func TestMarkEmailSentDeduplicates(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA"}

	for i := 0; i < 2; i++ {
		if _, err := svc.MarkEmailSent(context.Background(), "c1", "Person@Example.com"); err != nil {
			t.Fatalf("MarkEmailSent error: %v", err)
		}
	}

	item := repo.codes["c1"]
	if len(item.EmailSentTo) != 1 || item.EmailSentTo[0] != "person@example.com" {
		t.Fatalf("expected one normalized recipient, got %v", item.EmailSentTo)
	}
}

func TestStats(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewWithRepository(repo, fixedNow)

	repo.codes["c1"] = model.InviteCodeItem{ID: "c1", Code: "NAAAAAA", ExpiresAt: "2025-04-01T00:00:00Z", IsUsed: true, EmailSentTo: []string{"a@x.com", "b@x.com"}}
	repo.codes["c2"] = model.InviteCodeItem{ID: "c2", Code: "NABBBBB", ExpiresAt: "2025-04-01T00:00:00Z"}
	repo.codes["c3"] = model.InviteCodeItem{ID: "c3", Code: "NACCCCC", ExpiresAt: "2025-03-01T00:00:00Z"}
	repo.codes["c4"] = model.InviteCodeItem{ID: "c4", Code: "NADDDDD", IsArchived: true, EmailSentTo: []string{"c@x.com"}}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalCodes != 4 {
		t.Fatalf("expected 4 total, got %d", stats.TotalCodes)
	}
	if stats.UsedCodes != 1 || stats.ActiveCodes != 1 || stats.ExpiredCodes != 1 {
		t.Fatalf("unexpected buckets: %+v", stats)
	}
	if stats.UsageRate != 25.0 {
		t.Fatalf("expected usage rate 25.0, got %v", stats.UsageRate)
	}
	if stats.EmailsSent != 3 {
		t.Fatalf("expected 3 emails sent, got %d", stats.EmailsSent)
	}
}
