package credit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
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

type AssignParams struct {
	UserID string
	Amount float64
	Notes  string
}

type UsageParams struct {
	UserID      string
	Amount      float64
	Description string
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

// Assign adds dollars straight onto the user's balance. The first
// assignment creates the balance row; later ones stack on top. Each
// write leaves an audit trail in the balance metadata.
func (s *Service) Assign(ctx context.Context, params AssignParams) (model.CreditBalanceItem, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return model.CreditBalanceItem{}, newError(ErrorCodeValidation, "user id is required", nil)
	}
	if params.Amount <= 0 {
		return model.CreditBalanceItem{}, newError(ErrorCodeValidation, "amount must be positive", nil)
	}

	now := s.now().UTC().Format(time.RFC3339)
	amount := strconv.FormatFloat(params.Amount, 'f', -1, 64)

	balance, err := s.repo.GetBalance(ctx, userID)
	switch {
	case err == nil:
		balance.BalanceDollars += params.Amount
		balance.TotalPurchased += params.Amount
		balance.LastUpdated = now
		if balance.Metadata == nil {
			balance.Metadata = make(map[string]string)
		}
		balance.Metadata["last_assignment_amount"] = amount
		balance.Metadata["last_assignment_at"] = now
		if notes := strings.TrimSpace(params.Notes); notes != "" {
			balance.Metadata["last_assignment_notes"] = notes
		}
	case errors.Is(err, ErrNotFound):
		balance = model.CreditBalanceItem{
			UserID:         userID,
			BalanceDollars: params.Amount,
			TotalPurchased: params.Amount,
			LastUpdated:    now,
			Metadata: map[string]string{
				"initial_assignment_amount": amount,
				"initial_assignment_at":     now,
			},
		}
		if notes := strings.TrimSpace(params.Notes); notes != "" {
			balance.Metadata["initial_assignment_notes"] = notes
		}
	default:
		return model.CreditBalanceItem{}, newError(ErrorCodeInternal, "failed to load credit balance", err)
	}

	if err := s.repo.PutBalance(ctx, balance); err != nil {
		return model.CreditBalanceItem{}, newError(ErrorCodeInternal, "failed to store credit balance", err)
	}
	return balance, nil
}

// Balances lists balance rows newest-activity first, optionally scoped
// to one user.
func (s *Service) Balances(ctx context.Context, userID string) ([]model.CreditBalanceItem, error) {
	balances, err := s.repo.ListBalances(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list credit balances", err)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return balances, nil
	}

	filtered := make([]model.CreditBalanceItem, 0, 1)
	for _, balance := range balances {
		if balance.UserID == userID {
			filtered = append(filtered, balance)
		}
	}
	return filtered, nil
}

func (s *Service) Balance(ctx context.Context, userID string) (model.CreditBalanceItem, error) {
	balance, err := s.repo.GetBalance(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.CreditBalanceItem{}, newError(ErrorCodeNotFound, "credit balance not found", err)
		}
		return model.CreditBalanceItem{}, newError(ErrorCodeInternal, "failed to load credit balance", err)
	}
	return balance, nil
}

// Purchases lists purchase rows newest first with an optional status
// filter.
func (s *Service) Purchases(ctx context.Context, status model.PurchaseStatus) ([]model.CreditPurchaseItem, error) {
	if status != "" && !validPurchaseStatus(status) {
		return nil, newError(ErrorCodeValidation, "unknown purchase status", nil)
	}

	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list credit purchases", err)
	}
	if status == "" {
		return purchases, nil
	}

	filtered := make([]model.CreditPurchaseItem, 0, len(purchases))
	for _, purchase := range purchases {
		if purchase.Status == status {
			filtered = append(filtered, purchase)
		}
	}
	return filtered, nil
}

// HasCompletedPayments reports which of the given users have at least one
// completed purchase. Used by the usage aggregation to flag paying users.
func (s *Service) HasCompletedPayments(ctx context.Context, userIDs []string) (map[string]bool, error) {
	paid := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return paid, nil
	}

	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list credit purchases", err)
	}

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	for _, purchase := range purchases {
		if purchase.Status != model.PurchaseStatusCompleted {
			continue
		}
		if _, ok := wanted[purchase.UserID]; ok {
			paid[purchase.UserID] = true
		}
	}
	return paid, nil
}

func (s *Service) Usage(ctx context.Context, userID string) ([]model.CreditUsageItem, error) {
	usage, err := s.repo.ListUsage(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list credit usage", err)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return usage, nil
	}

	filtered := make([]model.CreditUsageItem, 0, len(usage))
	for _, entry := range usage {
		if entry.UserID == userID {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// RecordUsage deducts from an existing balance and writes the usage
// entry. Spending against a user with no balance row is an error, not
// an implicit account.
func (s *Service) RecordUsage(ctx context.Context, params UsageParams) (model.CreditUsageItem, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return model.CreditUsageItem{}, newError(ErrorCodeValidation, "user id is required", nil)
	}
	if params.Amount <= 0 {
		return model.CreditUsageItem{}, newError(ErrorCodeValidation, "amount must be positive", nil)
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.CreditUsageItem{}, newError(ErrorCodeNotFound, "no credit balance for user", err)
		}
		return model.CreditUsageItem{}, newError(ErrorCodeInternal, "failed to load credit balance", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	entry := model.CreditUsageItem{
		ID:            uuid.NewString(),
		UserID:        userID,
		AmountDollars: params.Amount,
		Description:   strings.TrimSpace(params.Description),
		CreatedAt:     now,
	}
	if err := s.repo.PutUsage(ctx, entry); err != nil {
		return model.CreditUsageItem{}, newError(ErrorCodeInternal, "failed to record credit usage", err)
	}

	balance.BalanceDollars -= params.Amount
	balance.TotalUsed += params.Amount
	balance.LastUpdated = now
	if err := s.repo.PutBalance(ctx, balance); err != nil {
		return model.CreditUsageItem{}, newError(ErrorCodeInternal, "failed to update credit balance", err)
	}

	return entry, nil
}

func validPurchaseStatus(status model.PurchaseStatus) bool {
	switch status {
	case model.PurchaseStatusPending,
		model.PurchaseStatusCompleted,
		model.PurchaseStatusFailed,
		model.PurchaseStatusRefunded:
		return true
	}
	return false
}
