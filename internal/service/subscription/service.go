package subscription

import (
	"context"
	"errors"
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

type UpsertParams struct {
	UserID           string
	PlanType         string
	Status           model.SubscriptionStatus
	CurrentPeriodEnd string
}

type ListParams struct {
	Status model.SubscriptionStatus
	UserID string
	Page   int
	Limit  int
}

type ListResult struct {
	Subscriptions []model.SubscriptionItem
	TotalCount    int
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

// Upsert creates the user's subscription or moves the existing one onto
// the given plan. A user holds at most one subscription row.
func (s *Service) Upsert(ctx context.Context, params UpsertParams) (model.SubscriptionItem, error) {
	userID := strings.TrimSpace(params.UserID)
	planType := strings.TrimSpace(params.PlanType)
	if userID == "" {
		return model.SubscriptionItem{}, newError(ErrorCodeValidation, "user id is required", nil)
	}
	if planType == "" {
		return model.SubscriptionItem{}, newError(ErrorCodeValidation, "plan type is required", nil)
	}

	status := params.Status
	if status == "" {
		status = model.SubscriptionStatusActive
	}
	if !validStatus(status) {
		return model.SubscriptionItem{}, newError(ErrorCodeValidation, "unknown subscription status", nil)
	}

	now := s.now().UTC().Format(time.RFC3339)

	item, err := s.repo.GetSubscriptionByUser(ctx, userID)
	switch {
	case err == nil:
		item.PlanType = planType
		item.Status = status
		item.CurrentPeriodEnd = params.CurrentPeriodEnd
		item.CancelAtPeriodEnd = false
		item.UpdatedAt = now
	case errors.Is(err, ErrNotFound):
		item = model.SubscriptionItem{
			ID:               uuid.NewString(),
			UserID:           userID,
			PlanType:         planType,
			Status:           status,
			StartedAt:        now,
			CurrentPeriodEnd: params.CurrentPeriodEnd,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	default:
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to load subscription", err)
	}

	if err := s.repo.PutSubscription(ctx, item); err != nil {
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to store subscription", err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	items, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return ListResult{}, newError(ErrorCodeInternal, "failed to list subscriptions", err)
	}

	filtered := make([]model.SubscriptionItem, 0, len(items))
	for _, item := range items {
		if params.Status != "" && item.Status != params.Status {
			continue
		}
		if params.UserID != "" && item.UserID != params.UserID {
			continue
		}
		filtered = append(filtered, item)
	}

	total := len(filtered)
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 20
	}

	start := (page - 1) * limit
	if start >= total {
		return ListResult{Subscriptions: []model.SubscriptionItem{}, TotalCount: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{Subscriptions: filtered[start:end], TotalCount: total}, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.SubscriptionItem, error) {
	item, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.SubscriptionItem{}, newError(ErrorCodeNotFound, "subscription not found", err)
		}
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to load subscription", err)
	}
	return item, nil
}

func (s *Service) GetByUser(ctx context.Context, userID string) (model.SubscriptionItem, error) {
	item, err := s.repo.GetSubscriptionByUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.SubscriptionItem{}, newError(ErrorCodeNotFound, "subscription not found", err)
		}
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to load subscription", err)
	}
	return item, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status model.SubscriptionStatus) (model.SubscriptionItem, error) {
	if !validStatus(status) {
		return model.SubscriptionItem{}, newError(ErrorCodeValidation, "unknown subscription status", nil)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return model.SubscriptionItem{}, err
	}

	item.Status = status
	item.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if err := s.repo.PutSubscription(ctx, item); err != nil {
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to update subscription", err)
	}
	return item, nil
}

// Cancel ends a subscription. With atPeriodEnd the row keeps its active
// status and only flips the flag; billing picks it up at rollover.
func (s *Service) Cancel(ctx context.Context, id string, atPeriodEnd bool) (model.SubscriptionItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.SubscriptionItem{}, err
	}

	if atPeriodEnd {
		item.CancelAtPeriodEnd = true
	} else {
		item.Status = model.SubscriptionStatusCanceled
		item.CancelAtPeriodEnd = false
	}
	item.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.PutSubscription(ctx, item); err != nil {
		return model.SubscriptionItem{}, newError(ErrorCodeInternal, "failed to update subscription", err)
	}
	return item, nil
}

func validStatus(status model.SubscriptionStatus) bool {
	switch status {
	case model.SubscriptionStatusActive,
		model.SubscriptionStatusTrialing,
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusCanceled:
		return true
	}
	return false
}
