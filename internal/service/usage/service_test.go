package usage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// memoryRepository mirrors the SQL aggregation in Go so service tests
// run without Postgres.
type memoryRepository struct {
	mu   sync.Mutex
	logs []LogRow
	now  func() time.Time
}

func newMemoryRepository(now func() time.Time) *memoryRepository {
	return &memoryRepository{now: now}
}

func (m *memoryRepository) InsertLog(ctx context.Context, row LogRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, row)
	return nil
}

func (m *memoryRepository) Aggregate(ctx context.Context, query AggregateQuery) (AggregatePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byUser := make(map[string]*AggregatedRow)
	var order []string
	for _, log := range m.logs {
		row, ok := byUser[log.UserID]
		if !ok {
			row = &AggregatedRow{UserID: log.UserID}
			byUser[log.UserID] = row
			order = append(order, log.UserID)
		}
		if log.UserEmail != "" {
			row.UserEmail = log.UserEmail
		}
		if log.UserName != "" {
			row.UserName = log.UserName
		}
		row.TotalPromptTokens += log.PromptTokens
		row.TotalCompletionTokens += log.CompletionTokens
		row.TotalTokens += log.TotalTokens
		row.TotalEstimatedCost += log.EstimatedCost
		row.UsageCount++
		if row.EarliestActivity.IsZero() || log.CreatedAt.Before(row.EarliestActivity) {
			row.EarliestActivity = log.CreatedAt
		}
		if log.CreatedAt.After(row.LatestActivity) {
			row.LatestActivity = log.CreatedAt
		}
	}

	now := m.now()
	var filtered []AggregatedRow
	for _, userID := range order {
		row := byUser[userID]
		row.DaysSinceLastActivity = DaysSince(row.LatestActivity, now)
		row.ActivityLevel = LevelForTime(row.LatestActivity, now)
		row.UserType = TypeForEmail(row.UserEmail, query.InternalDomains)

		if row.UserType != query.UserType {
			continue
		}
		if query.ActivityLevel != "" && row.ActivityLevel != query.ActivityLevel {
			continue
		}
		if query.Search != "" {
			search := strings.ToLower(query.Search)
			if !strings.Contains(strings.ToLower(row.UserID), search) &&
				!strings.Contains(strings.ToLower(row.UserEmail), search) &&
				!strings.Contains(strings.ToLower(row.UserName), search) {
				continue
			}
		}
		filtered = append(filtered, *row)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LatestActivity.After(filtered[j].LatestActivity)
	})

	page := AggregatePage{Rows: []AggregatedRow{}, TotalCount: len(filtered)}
	for _, row := range filtered {
		page.GrandTotalTokens += row.TotalTokens
		page.GrandTotalCost += row.TotalEstimatedCost
	}

	start := query.Offset
	if start >= len(filtered) {
		return page, nil
	}
	end := start + query.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page.Rows = filtered[start:end]
	return page, nil
}

type fakePayments struct {
	paid map[string]bool
}

func (f *fakePayments) HasCompletedPayments(ctx context.Context, userIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for _, id := range userIDs {
		if f.paid[id] {
			result[id] = true
		}
	}
	return result, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func seedLogs(repo *memoryRepository) {
	now := fixedNow()
	logs := []LogRow{
		{UserID: "u-active", UserEmail: "active@example.com", UserName: "Active User", PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, EstimatedCost: 5.0, CreatedAt: now.Add(-2 * time.Hour)},
		{UserID: "u-active", UserEmail: "active@example.com", UserName: "Active User", PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300, EstimatedCost: 7.5, CreatedAt: now.Add(-26 * time.Hour)},
		{UserID: "u-medium", UserEmail: "medium@example.com", PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20, EstimatedCost: 1.0, CreatedAt: now.Add(-3*24*time.Hour - time.Hour)},
		{UserID: "u-low", UserEmail: "low@example.com", PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10, EstimatedCost: 0.5, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{UserID: "u-staff", UserEmail: "staff@he2.ai", PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000, EstimatedCost: 50, CreatedAt: now.Add(-time.Hour)},
	}
	for _, log := range logs {
		_ = repo.InsertLog(context.Background(), log)
	}
}

func newTestService(repo *memoryRepository, payments PaymentChecker) *Service {
	return NewWithRepository(repo, payments, NewScoreCache(16, time.Minute), []string{"he2.ai"}, fixedNow)
}

func TestAggregateSumsPerUser(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	result, err := svc.Aggregate(context.Background(), AggregateParams{})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	if result.TotalCount != 3 {
		t.Fatalf("expected 3 external users, got %d", result.TotalCount)
	}
	if result.Rows[0].UserID != "u-active" {
		t.Fatalf("expected most recent user first, got %s", result.Rows[0].UserID)
	}

	active := result.Rows[0]
	if active.TotalPromptTokens != 300 || active.TotalCompletionTokens != 150 || active.TotalTokens != 450 {
		t.Fatalf("unexpected token sums: %+v", active)
	}
	if active.TotalEstimatedCost != 12.5 {
		t.Fatalf("expected cost 12.5, got %v", active.TotalEstimatedCost)
	}
	if active.UsageCount != 2 {
		t.Fatalf("expected 2 events, got %d", active.UsageCount)
	}
	if !active.EarliestActivity.Equal(fixedNow().Add(-26 * time.Hour)) {
		t.Fatalf("unexpected earliest activity %v", active.EarliestActivity)
	}
	if !active.LatestActivity.Equal(fixedNow().Add(-2 * time.Hour)) {
		t.Fatalf("unexpected latest activity %v", active.LatestActivity)
	}
}

func TestAggregateCreditsAndLevels(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	result, err := svc.Aggregate(context.Background(), AggregateParams{})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	byID := make(map[string]AggregatedRow)
	for _, row := range result.Rows {
		byID[row.UserID] = row
	}

	if byID["u-active"].TotalCredits != 1250 {
		t.Fatalf("expected 1250 credits for $12.50, got %d", byID["u-active"].TotalCredits)
	}
	if byID["u-active"].ActivityLevel != LevelHigh {
		t.Fatalf("expected high activity, got %s", byID["u-active"].ActivityLevel)
	}
	if byID["u-medium"].ActivityLevel != LevelMedium {
		t.Fatalf("expected medium activity, got %s", byID["u-medium"].ActivityLevel)
	}
	if byID["u-low"].ActivityLevel != LevelLow {
		t.Fatalf("expected low activity, got %s", byID["u-low"].ActivityLevel)
	}
	if byID["u-low"].DaysSinceLastActivity != 10 {
		t.Fatalf("expected 10 days, got %d", byID["u-low"].DaysSinceLastActivity)
	}
	if byID["u-active"].ActivityScore != 0.08 {
		t.Fatalf("expected score 0.08 for 2h old activity, got %v", byID["u-active"].ActivityScore)
	}
}

func TestAggregateUserTypeFilter(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	result, err := svc.Aggregate(context.Background(), AggregateParams{UserTypeFilter: "internal"})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if result.TotalCount != 1 || result.Rows[0].UserID != "u-staff" {
		t.Fatalf("expected only the staff user, got %+v", result.Rows)
	}
	if result.Rows[0].UserType != UserTypeInternal {
		t.Fatalf("expected internal type, got %s", result.Rows[0].UserType)
	}
	if result.GrandTotalTokens != 2000 {
		t.Fatalf("grand totals should cover the internal slice, got %d", result.GrandTotalTokens)
	}
}

func TestAggregateActivityFilterShapesTotals(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	result, err := svc.Aggregate(context.Background(), AggregateParams{ActivityFilter: "high"})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if result.TotalCount != 1 {
		t.Fatalf("expected 1 high-activity external user, got %d", result.TotalCount)
	}
	if result.GrandTotalTokens != 450 || result.GrandTotalCost != 12.5 {
		t.Fatalf("grand totals should track the filter: %+v", result)
	}
}

func TestAggregatePagination(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	first, err := svc.Aggregate(context.Background(), AggregateParams{Limit: 2})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if len(first.Rows) != 2 || first.TotalCount != 3 {
		t.Fatalf("expected page of 2 from 3, got %d of %d", len(first.Rows), first.TotalCount)
	}

	second, err := svc.Aggregate(context.Background(), AggregateParams{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if len(second.Rows) != 1 {
		t.Fatalf("expected 1 row on page 2, got %d", len(second.Rows))
	}
	if second.TotalCount != 3 || second.GrandTotalTokens != first.GrandTotalTokens {
		t.Fatal("totals should not change across pages")
	}
	if second.Rows[0].UserID == first.Rows[0].UserID || second.Rows[0].UserID == first.Rows[1].UserID {
		t.Fatal("page 2 should hold different users")
	}
}

func TestAggregateSearch(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, nil)

	result, err := svc.Aggregate(context.Background(), AggregateParams{SearchQuery: "medium@"})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if result.TotalCount != 1 || result.Rows[0].UserID != "u-medium" {
		t.Fatalf("search should match email, got %+v", result.Rows)
	}
}

func TestAggregatePaymentFlags(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	seedLogs(repo)
	svc := newTestService(repo, &fakePayments{paid: map[string]bool{"u-active": true}})

	result, err := svc.Aggregate(context.Background(), AggregateParams{})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	for _, row := range result.Rows {
		if row.UserID == "u-active" && !row.HasCompletedPayment {
			t.Fatal("u-active should be flagged as paid")
		}
		if row.UserID != "u-active" && row.HasCompletedPayment {
			t.Fatalf("%s should not be flagged", row.UserID)
		}
	}
}

func TestAggregateValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository(fixedNow), nil)

	cases := []AggregateParams{
		{Limit: 101},
		{ActivityFilter: "extreme"},
		{UserTypeFilter: "robot"},
	}
	for _, params := range cases {
		_, err := svc.Aggregate(context.Background(), params)
		svcErr, ok := err.(*Error)
		if !ok || svcErr.Code != ErrorCodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", params, err)
		}
	}
}

func TestRecordComputesTotalTokens(t *testing.T) {
	repo := newMemoryRepository(fixedNow)
	svc := newTestService(repo, nil)

	err := svc.Record(context.Background(), RecordParams{
		UserID:           "u1",
		UserEmail:        "User@Example.com",
		PromptTokens:     120,
		CompletionTokens: 80,
		EstimatedCost:    0.02,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("expected one log row, got %d", len(repo.logs))
	}
	log := repo.logs[0]
	if log.TotalTokens != 200 {
		t.Fatalf("expected derived total 200, got %d", log.TotalTokens)
	}
	if log.UserEmail != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", log.UserEmail)
	}
	if !log.CreatedAt.Equal(fixedNow()) {
		t.Fatalf("expected stamped created_at, got %v", log.CreatedAt)
	}
}

func TestRecordValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository(fixedNow), nil)

	cases := []RecordParams{
		{UserID: ""},
		{UserID: "u1", PromptTokens: -1},
		{UserID: "u1", EstimatedCost: -0.5},
	}
	for _, params := range cases {
		err := svc.Record(context.Background(), params)
		svcErr, ok := err.(*Error)
		if !ok || svcErr.Code != ErrorCodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", params, err)
		}
	}
}
