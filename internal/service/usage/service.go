// Package usage aggregates the raw usage_logs table into the per-user
// rollups the dashboard's usage view renders. Raw rows live in Postgres
// because the rollup is one GROUP BY away there; everything else in the
// system stays on DynamoDB.
package usage

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// PaymentChecker reports which of the given users completed at least
// one credit purchase. The credit service provides the real one.
type PaymentChecker interface {
	HasCompletedPayments(ctx context.Context, userIDs []string) (map[string]bool, error)
}

type RecordParams struct {
	UserID           string
	UserEmail        string
	UserName         string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	EstimatedCost    float64
}

type AggregateParams struct {
	Page           int
	Limit          int
	SearchQuery    string
	ActivityFilter string // all, high, medium, low, inactive
	UserTypeFilter string // internal, external
}

type AggregateResult struct {
	Rows             []AggregatedRow
	TotalCount       int
	GrandTotalTokens int64
	GrandTotalCost   float64
	Page             int
	Limit            int
}

const (
	defaultLimit    = 10
	maxLimit        = 100
	scoreCacheSize  = 512
	scoreCacheTTL   = 5 * time.Minute
	defaultActivity = "all"
	defaultUserType = UserTypeExternal
)

type Service struct {
	repo            Repository
	payments        PaymentChecker
	scores          *ScoreCache
	internalDomains []string
	now             func() time.Time
}

func New(db *sql.DB, payments PaymentChecker, internalDomains []string) *Service {
	return &Service{
		repo:            NewPostgresRepository(db),
		payments:        payments,
		scores:          NewScoreCache(scoreCacheSize, scoreCacheTTL),
		internalDomains: internalDomains,
		now:             time.Now,
	}
}

func NewWithRepository(repo Repository, payments PaymentChecker, scores *ScoreCache, internalDomains []string, now func() time.Time) *Service {
	if scores == nil {
		scores = NewScoreCache(scoreCacheSize, scoreCacheTTL)
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:            repo,
		payments:        payments,
		scores:          scores,
		internalDomains: internalDomains,
		now:             now,
	}
}

// Record stores one raw usage event. Total tokens are derived when the
// caller only reports the prompt/completion split.
func (s *Service) Record(ctx context.Context, params RecordParams) error {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return newError(ErrorCodeValidation, "user id is required", nil)
	}
	if params.PromptTokens < 0 || params.CompletionTokens < 0 {
		return newError(ErrorCodeValidation, "token counts cannot be negative", nil)
	}
	if params.EstimatedCost < 0 {
		return newError(ErrorCodeValidation, "estimated cost cannot be negative", nil)
	}

	row := LogRow{
		UserID:           userID,
		UserEmail:        strings.ToLower(strings.TrimSpace(params.UserEmail)),
		UserName:         strings.TrimSpace(params.UserName),
		Model:            strings.TrimSpace(params.Model),
		PromptTokens:     params.PromptTokens,
		CompletionTokens: params.CompletionTokens,
		TotalTokens:      params.PromptTokens + params.CompletionTokens,
		EstimatedCost:    params.EstimatedCost,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.InsertLog(ctx, row); err != nil {
		return newError(ErrorCodeInternal, "failed to record usage", err)
	}
	return nil
}

// Aggregate returns one page of per-user rollups plus filter-wide
// totals.
func (s *Service) Aggregate(ctx context.Context, params AggregateParams) (AggregateResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		return AggregateResult{}, newError(ErrorCodeValidation, "limit cannot exceed 100", nil)
	}

	activity := strings.ToLower(strings.TrimSpace(params.ActivityFilter))
	if activity == "" {
		activity = defaultActivity
	}
	switch activity {
	case "all", LevelHigh, LevelMedium, LevelLow, LevelInactive:
	default:
		return AggregateResult{}, newError(ErrorCodeValidation, "activity filter must be one of: all, high, medium, low, inactive", nil)
	}

	userType := strings.ToLower(strings.TrimSpace(params.UserTypeFilter))
	if userType == "" {
		userType = defaultUserType
	}
	switch userType {
	case UserTypeInternal, UserTypeExternal:
	default:
		return AggregateResult{}, newError(ErrorCodeValidation, "user type filter must be one of: internal, external", nil)
	}

	query := AggregateQuery{
		Search:          strings.TrimSpace(params.SearchQuery),
		UserType:        userType,
		InternalDomains: s.internalDomains,
		Limit:           limit,
		Offset:          (page - 1) * limit,
	}
	if activity != "all" {
		query.ActivityLevel = activity
	}

	aggregated, err := s.repo.Aggregate(ctx, query)
	if err != nil {
		return AggregateResult{}, newError(ErrorCodeInternal, "failed to aggregate usage logs", err)
	}

	now := s.now()
	for i := range aggregated.Rows {
		row := &aggregated.Rows[i]
		row.ActivityScore = s.scoreFor(row.UserID, row.LatestActivity, now)
		row.TotalCredits = Credits(row.TotalEstimatedCost)
	}

	if err := s.applyPaymentFlags(ctx, aggregated.Rows); err != nil {
		return AggregateResult{}, err
	}

	return AggregateResult{
		Rows:             aggregated.Rows,
		TotalCount:       aggregated.TotalCount,
		GrandTotalTokens: aggregated.GrandTotalTokens,
		GrandTotalCost:   aggregated.GrandTotalCost,
		Page:             page,
		Limit:            limit,
	}, nil
}

// scoreFor keys the cache on user plus their latest activity stamp, so
// a fresh event naturally invalidates the cached value.
func (s *Service) scoreFor(userID string, latest time.Time, now time.Time) float64 {
	key := userID + "|" + latest.UTC().Format(time.RFC3339Nano)
	if score, ok := s.scores.Get(key); ok {
		return score
	}
	score := Score(latest, now)
	s.scores.Put(key, score)
	return score
}

func (s *Service) applyPaymentFlags(ctx context.Context, rows []AggregatedRow) error {
	if s.payments == nil || len(rows) == 0 {
		return nil
	}

	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}

	paid, err := s.payments.HasCompletedPayments(ctx, userIDs)
	if err != nil {
		return newError(ErrorCodeInternal, "failed to check payments", err)
	}
	for i := range rows {
		rows[i].HasCompletedPayment = paid[rows[i].UserID]
	}
	return nil
}
