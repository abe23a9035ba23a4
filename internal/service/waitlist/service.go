package waitlist

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
	ErrorCodeConflict   ErrorCode = "conflict"
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

type JoinParams struct {
	FullName       string
	Email          string
	Company        string
	PhoneNumber    string
	CountryCode    string
	ReferralSource string
	UserAgent      string
	IPAddress      string
}

type ListParams struct {
	Search   string
	Archived *bool
	Page     int
	Limit    int
}

type ListResult struct {
	Users      []model.WaitlistUserItem
	TotalCount int
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

func (s *Service) Join(ctx context.Context, params JoinParams) (model.WaitlistUserItem, error) {
	fullName := strings.TrimSpace(params.FullName)
	email := normalizeEmail(params.Email)

	if fullName == "" {
		return model.WaitlistUserItem{}, newError(ErrorCodeValidation, "full name is required", nil)
	}
	if email == "" || !strings.Contains(email, "@") {
		return model.WaitlistUserItem{}, newError(ErrorCodeValidation, "a valid email is required", nil)
	}

	if _, err := s.repo.GetWaitlistUserByEmail(ctx, email); err == nil {
		return model.WaitlistUserItem{}, newError(ErrorCodeConflict, "email is already on the waitlist", nil)
	} else if !errors.Is(err, ErrNotFound) {
		return model.WaitlistUserItem{}, newError(ErrorCodeInternal, "failed to check waitlist", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	user := model.WaitlistUserItem{
		ID:             uuid.NewString(),
		FullName:       fullName,
		Email:          email,
		Company:        strings.TrimSpace(params.Company),
		PhoneNumber:    strings.TrimSpace(params.PhoneNumber),
		CountryCode:    strings.TrimSpace(params.CountryCode),
		ReferralSource: strings.TrimSpace(params.ReferralSource),
		JoinedAt:       now,
		UserAgent:      params.UserAgent,
		IPAddress:      params.IPAddress,
	}

	if err := s.repo.PutWaitlistUser(ctx, user); err != nil {
		return model.WaitlistUserItem{}, newError(ErrorCodeInternal, "failed to join waitlist", err)
	}

	return user, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	users, err := s.repo.ListWaitlistUsers(ctx)
	if err != nil {
		return ListResult{}, newError(ErrorCodeInternal, "failed to list waitlist", err)
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	filtered := make([]model.WaitlistUserItem, 0, len(users))
	for _, user := range users {
		if params.Archived != nil && user.IsArchived != *params.Archived {
			continue
		}
		if search != "" && !matchesSearch(user, search) {
			continue
		}
		filtered = append(filtered, user)
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
		return ListResult{Users: []model.WaitlistUserItem{}, TotalCount: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{Users: filtered[start:end], TotalCount: total}, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.WaitlistUserItem, error) {
	user, err := s.repo.GetWaitlistUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.WaitlistUserItem{}, newError(ErrorCodeNotFound, "waitlist entry not found", err)
		}
		return model.WaitlistUserItem{}, newError(ErrorCodeInternal, "failed to load waitlist entry", err)
	}
	return user, nil
}

func (s *Service) Archive(ctx context.Context, id string) (model.WaitlistUserItem, error) {
	return s.setArchived(ctx, id, true)
}

func (s *Service) Unarchive(ctx context.Context, id string) (model.WaitlistUserItem, error) {
	return s.setArchived(ctx, id, false)
}

func (s *Service) setArchived(ctx context.Context, id string, archived bool) (model.WaitlistUserItem, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return model.WaitlistUserItem{}, err
	}

	user.IsArchived = archived
	if err := s.repo.PutWaitlistUser(ctx, user); err != nil {
		return model.WaitlistUserItem{}, newError(ErrorCodeInternal, "failed to update waitlist entry", err)
	}
	return user, nil
}

// MarkNotified records that an invite email went out to this entry.
func (s *Service) MarkNotified(ctx context.Context, id string) (model.WaitlistUserItem, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return model.WaitlistUserItem{}, err
	}

	user.IsNotified = true
	user.NotifiedAt = s.now().UTC().Format(time.RFC3339)
	if err := s.repo.PutWaitlistUser(ctx, user); err != nil {
		return model.WaitlistUserItem{}, newError(ErrorCodeInternal, "failed to update waitlist entry", err)
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteWaitlistUser(ctx, id); err != nil {
		return newError(ErrorCodeInternal, "failed to delete waitlist entry", err)
	}
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return 0, newError(ErrorCodeValidation, "at least one id is required", nil)
	}

	if err := s.repo.BatchDeleteWaitlistUsers(ctx, cleaned); err != nil {
		return 0, newError(ErrorCodeInternal, "failed to delete waitlist entries", err)
	}
	return len(cleaned), nil
}

// BulkArchive archives the given entries. With no ids it sweeps every
// notified, still-unarchived entry instead, which is how operators clear
// the list after an invite wave. Already-archived entries are skipped.
func (s *Service) BulkArchive(ctx context.Context, ids []string) (int, error) {
	users, err := s.repo.ListWaitlistUsers(ctx)
	if err != nil {
		return 0, newError(ErrorCodeInternal, "failed to list waitlist", err)
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			wanted[trimmed] = true
		}
	}

	archived := 0
	for _, user := range users {
		if user.IsArchived {
			continue
		}
		if len(wanted) > 0 {
			if !wanted[user.ID] {
				continue
			}
		} else if !user.IsNotified {
			continue
		}

		user.IsArchived = true
		if err := s.repo.PutWaitlistUser(ctx, user); err != nil {
			return archived, newError(ErrorCodeInternal, "failed to archive waitlist entries", err)
		}
		archived++
	}

	return archived, nil
}

func matchesSearch(user model.WaitlistUserItem, search string) bool {
	return strings.Contains(strings.ToLower(user.FullName), search) ||
		strings.Contains(strings.ToLower(user.Email), search) ||
		strings.Contains(strings.ToLower(user.Company), search)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
