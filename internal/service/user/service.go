package user

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

type CreateParams struct {
	Email       string
	FullName    string
	CompanyName string
	PhoneNumber string
	PlanType    string
	AccountType string
}

// UpdateParams uses pointers so callers can change a single field without
// clobbering the rest.
type UpdateParams struct {
	FullName            *string
	PreferredName       *string
	CompanyName         *string
	PhoneNumber         *string
	PlanType            *string
	AccountType         *string
	OnboardingCompleted *bool
}

type ListParams struct {
	Search string
	Page   int
	Limit  int
}

// User is a profile joined with its account email for dashboard listings.
type User struct {
	model.UserProfileItem
	Email string `json:"email,omitempty"`
}

type ListResult struct {
	Users      []User
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

// Create provisions an account plus its profile. New users start on the
// seed plan as individual accounts unless the caller says otherwise.
func (s *Service) Create(ctx context.Context, params CreateParams) (User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, newError(ErrorCodeValidation, "a valid email is required", nil)
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return User{}, newError(ErrorCodeInternal, "failed to check accounts", err)
	}
	for _, account := range accounts {
		if account.Email == email {
			return User{}, newError(ErrorCodeConflict, "an account with this email already exists", nil)
		}
	}

	planType := strings.TrimSpace(params.PlanType)
	if planType == "" {
		planType = model.DefaultPlanType
	}
	accountType := strings.TrimSpace(params.AccountType)
	if accountType == "" {
		accountType = model.DefaultAccountType
	}

	userID := uuid.NewString()
	now := s.now().UTC().Format(time.RFC3339)

	account := model.AccountItem{
		UserID:      userID,
		Email:       email,
		DisplayName: strings.TrimSpace(params.FullName),
		CreatedAt:   now,
	}
	if err := s.repo.PutAccount(ctx, account); err != nil {
		return User{}, newError(ErrorCodeInternal, "failed to create account", err)
	}

	profile := model.UserProfileItem{
		ID:          uuid.NewString(),
		UserID:      userID,
		FullName:    strings.TrimSpace(params.FullName),
		CompanyName: strings.TrimSpace(params.CompanyName),
		PhoneNumber: strings.TrimSpace(params.PhoneNumber),
		PlanType:    planType,
		AccountType: accountType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.PutProfile(ctx, profile); err != nil {
		return User{}, newError(ErrorCodeInternal, "failed to create profile", err)
	}

	return User{UserProfileItem: profile, Email: email}, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return ListResult{}, newError(ErrorCodeInternal, "failed to list users", err)
	}

	emails, err := s.emailIndex(ctx)
	if err != nil {
		return ListResult{}, err
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	filtered := make([]User, 0, len(profiles))
	for _, profile := range profiles {
		user := User{UserProfileItem: profile, Email: emails[profile.UserID]}
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
		return ListResult{Users: []User{}, TotalCount: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{Users: filtered[start:end], TotalCount: total}, nil
}

func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return User{}, newError(ErrorCodeInternal, "failed to load user", err)
	}

	user := User{UserProfileItem: profile}
	if account, err := s.repo.GetAccount(ctx, userID); err == nil {
		user.Email = account.Email
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, userID string, params UpdateParams) (User, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return User{}, newError(ErrorCodeInternal, "failed to load user", err)
	}

	if params.FullName != nil {
		profile.FullName = strings.TrimSpace(*params.FullName)
	}
	if params.PreferredName != nil {
		profile.PreferredName = strings.TrimSpace(*params.PreferredName)
	}
	if params.CompanyName != nil {
		profile.CompanyName = strings.TrimSpace(*params.CompanyName)
	}
	if params.PhoneNumber != nil {
		profile.PhoneNumber = strings.TrimSpace(*params.PhoneNumber)
	}
	if params.PlanType != nil {
		profile.PlanType = strings.TrimSpace(*params.PlanType)
	}
	if params.AccountType != nil {
		profile.AccountType = strings.TrimSpace(*params.AccountType)
	}
	if params.OnboardingCompleted != nil {
		profile.OnboardingCompleted = *params.OnboardingCompleted
	}
	profile.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.PutProfile(ctx, profile); err != nil {
		return User{}, newError(ErrorCodeInternal, "failed to update user", err)
	}

	user := User{UserProfileItem: profile}
	if account, err := s.repo.GetAccount(ctx, userID); err == nil {
		user.Email = account.Email
	}
	return user, nil
}

// MergeMetadata folds entries into the profile's metadata map, creating
// it when absent. Other services use this to leave audit marks on a
// profile without knowing its shape.
func (s *Service) MergeMetadata(ctx context.Context, userID string, entries map[string]string) (model.UserProfileItem, error) {
	if len(entries) == 0 {
		return model.UserProfileItem{}, newError(ErrorCodeValidation, "at least one metadata entry is required", nil)
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.UserProfileItem{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return model.UserProfileItem{}, newError(ErrorCodeInternal, "failed to load user", err)
	}

	if profile.Metadata == nil {
		profile.Metadata = make(map[string]string, len(entries))
	}
	for key, value := range entries {
		profile.Metadata[key] = value
	}
	profile.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.PutProfile(ctx, profile); err != nil {
		return model.UserProfileItem{}, newError(ErrorCodeInternal, "failed to update user", err)
	}
	return profile, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := s.repo.GetProfile(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(ErrorCodeNotFound, "user not found", err)
		}
		return newError(ErrorCodeInternal, "failed to load user", err)
	}

	if err := s.repo.DeleteProfile(ctx, userID); err != nil {
		return newError(ErrorCodeInternal, "failed to delete user", err)
	}
	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		return newError(ErrorCodeInternal, "failed to delete account", err)
	}
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, userIDs []string) (int, error) {
	cleaned := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return 0, newError(ErrorCodeValidation, "at least one user id is required", nil)
	}

	if err := s.repo.BatchDeleteProfiles(ctx, cleaned); err != nil {
		return 0, newError(ErrorCodeInternal, "failed to delete users", err)
	}
	if err := s.repo.BatchDeleteAccounts(ctx, cleaned); err != nil {
		return 0, newError(ErrorCodeInternal, "failed to delete accounts", err)
	}
	return len(cleaned), nil
}

func (s *Service) emailIndex(ctx context.Context) (map[string]string, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list accounts", err)
	}
	index := make(map[string]string, len(accounts))
	for _, account := range accounts {
		index[account.UserID] = account.Email
	}
	return index, nil
}

func matchesSearch(user User, search string) bool {
	return strings.Contains(strings.ToLower(user.FullName), search) ||
		strings.Contains(strings.ToLower(user.Email), search) ||
		strings.Contains(strings.ToLower(user.CompanyName), search)
}
