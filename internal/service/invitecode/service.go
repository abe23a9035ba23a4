package invitecode

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
	"helium-admin-backend/utils"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeExpired    ErrorCode = "code_expired"
	ErrorCodeExhausted  ErrorCode = "code_exhausted"
	ErrorCodeArchived   ErrorCode = "code_archived"
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

// Status buckets a code by its lifecycle. Expiry only matters for codes
// that were never redeemed; a used code stays "used" even past its
// expiry date.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusUsed     Status = "used"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

type GenerateParams struct {
	Count         int
	ExpiresInDays int
	MaxUses       int
}

type ListParams struct {
	Status Status
	Search string
}

type Stats struct {
	TotalCodes   int     `json:"totalCodes"`
	ActiveCodes  int     `json:"activeCodes"`
	UsedCodes    int     `json:"usedCodes"`
	ExpiredCodes int     `json:"expiredCodes"`
	UsageRate    float64 `json:"usageRate"`
	EmailsSent   int     `json:"emailsSent"`
}

const generateAttempts = 5

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

// Generate mints count new codes. Each code gets generateAttempts tries
// to land on an unused value before the whole batch fails.
func (s *Service) Generate(ctx context.Context, params GenerateParams) ([]model.InviteCodeItem, error) {
	count := params.Count
	if count < 1 {
		count = 1
	}
	if count > 100 {
		return nil, newError(ErrorCodeValidation, "cannot generate more than 100 codes at once", nil)
	}

	expiresInDays := params.ExpiresInDays
	if expiresInDays <= 0 {
		expiresInDays = 30
	}
	maxUses := params.MaxUses
	if maxUses <= 0 {
		maxUses = 1
	}

	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(expiresInDays) * 24 * time.Hour).Format(time.RFC3339)

	items := make([]model.InviteCodeItem, 0, count)
	for i := 0; i < count; i++ {
		code, err := s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}

		item := model.InviteCodeItem{
			ID:        uuid.NewString(),
			Code:      code,
			CreatedAt: now.Format(time.RFC3339),
			ExpiresAt: expiresAt,
			MaxUses:   maxUses,
		}
		if err := s.repo.PutInviteCode(ctx, item); err != nil {
			return nil, newError(ErrorCodeInternal, "failed to store invite code", err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < generateAttempts; attempt++ {
		code := utils.GenerateInviteCode()
		_, err := s.repo.GetInviteCodeByCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", newError(ErrorCodeInternal, "failed to check invite code", err)
		}
	}
	return "", newError(ErrorCodeInternal, "could not generate a unique invite code", nil)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]model.InviteCodeItem, error) {
	items, err := s.repo.ListInviteCodes(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list invite codes", err)
	}

	status := params.Status
	if status == "" {
		status = StatusAll
	}
	search := strings.ToUpper(strings.TrimSpace(params.Search))
	now := s.now()

	filtered := make([]model.InviteCodeItem, 0, len(items))
	for _, item := range items {
		if status != StatusAll && statusOf(item, now) != status {
			continue
		}
		if search != "" && !strings.Contains(item.Code, search) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.InviteCodeItem, error) {
	item, err := s.repo.GetInviteCode(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.InviteCodeItem{}, newError(ErrorCodeNotFound, "invite code not found", err)
		}
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to load invite code", err)
	}
	return item, nil
}

func (s *Service) Archive(ctx context.Context, id string) (model.InviteCodeItem, error) {
	return s.setArchived(ctx, id, true)
}

func (s *Service) Unarchive(ctx context.Context, id string) (model.InviteCodeItem, error) {
	return s.setArchived(ctx, id, false)
}

func (s *Service) setArchived(ctx context.Context, id string, archived bool) (model.InviteCodeItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.InviteCodeItem{}, err
	}

	item.IsArchived = archived
	if err := s.repo.PutInviteCode(ctx, item); err != nil {
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to update invite code", err)
	}
	return item, nil
}

// ArchiveUsed archives every fully-used code in one sweep and reports
// how many it touched.
func (s *Service) ArchiveUsed(ctx context.Context) (int, error) {
	items, err := s.repo.ListInviteCodes(ctx)
	if err != nil {
		return 0, newError(ErrorCodeInternal, "failed to list invite codes", err)
	}

	archived := 0
	for _, item := range items {
		if !item.IsUsed || item.IsArchived {
			continue
		}
		item.IsArchived = true
		if err := s.repo.PutInviteCode(ctx, item); err != nil {
			return archived, newError(ErrorCodeInternal, "failed to archive invite codes", err)
		}
		archived++
	}
	return archived, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteInviteCode(ctx, id); err != nil {
		return newError(ErrorCodeInternal, "failed to delete invite code", err)
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

	if err := s.repo.BatchDeleteInviteCodes(ctx, cleaned); err != nil {
		return 0, newError(ErrorCodeInternal, "failed to delete invite codes", err)
	}
	return len(cleaned), nil
}

// Redeem validates and consumes one use of the code. The code flips to
// used once CurrentUses reaches MaxUses.
func (s *Service) Redeem(ctx context.Context, code, userID string) (model.InviteCodeItem, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return model.InviteCodeItem{}, newError(ErrorCodeValidation, "invite code is required", nil)
	}

	item, err := s.repo.GetInviteCodeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.InviteCodeItem{}, newError(ErrorCodeNotFound, "invite code not found", err)
		}
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to load invite code", err)
	}

	now := s.now()
	if item.IsArchived {
		return model.InviteCodeItem{}, newError(ErrorCodeArchived, "invite code has been archived", nil)
	}
	if isExpired(item, now) {
		return model.InviteCodeItem{}, newError(ErrorCodeExpired, "invite code has expired", nil)
	}
	if item.IsUsed || item.CurrentUses >= item.MaxUses {
		return model.InviteCodeItem{}, newError(ErrorCodeExhausted, "invite code has already been used", nil)
	}

	item.CurrentUses++
	if item.CurrentUses >= item.MaxUses {
		item.IsUsed = true
		item.UsedBy = strings.TrimSpace(userID)
		item.UsedAt = now.UTC().Format(time.RFC3339)
	}

	if err := s.repo.PutInviteCode(ctx, item); err != nil {
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to update invite code", err)
	}
	return item, nil
}

// MarkEmailSent appends recipient to the code's sent list so the
// dashboard can show who already got it.
func (s *Service) MarkEmailSent(ctx context.Context, id, recipient string) (model.InviteCodeItem, error) {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if recipient == "" {
		return model.InviteCodeItem{}, newError(ErrorCodeValidation, "recipient email is required", nil)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return model.InviteCodeItem{}, err
	}

	for _, existing := range item.EmailSentTo {
		if existing == recipient {
			return item, nil
		}
	}
	item.EmailSentTo = append(item.EmailSentTo, recipient)

	if err := s.repo.PutInviteCode(ctx, item); err != nil {
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to update invite code", err)
	}
	return item, nil
}

func (s *Service) MarkReminderSent(ctx context.Context, id string) (model.InviteCodeItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.InviteCodeItem{}, err
	}

	item.ReminderSentAt = s.now().UTC().Format(time.RFC3339)
	if err := s.repo.PutInviteCode(ctx, item); err != nil {
		return model.InviteCodeItem{}, newError(ErrorCodeInternal, "failed to update invite code", err)
	}
	return item, nil
}

// Stats summarizes the whole code pool for the dashboard header cards.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.repo.ListInviteCodes(ctx)
	if err != nil {
		return Stats{}, newError(ErrorCodeInternal, "failed to list invite codes", err)
	}
	return ComputeStats(items, s.now()), nil
}

// ComputeStats buckets codes by lifecycle and derives the headline rates.
// It is pure so callers holding an already-synced collection, like the
// dashboard's live view, can reuse it without another table scan.
func ComputeStats(items []model.InviteCodeItem, now time.Time) Stats {
	stats := Stats{TotalCodes: len(items)}
	for _, item := range items {
		switch statusOf(item, now) {
		case StatusUsed:
			stats.UsedCodes++
		case StatusActive:
			stats.ActiveCodes++
		case StatusExpired:
			stats.ExpiredCodes++
		}
		stats.EmailsSent += len(item.EmailSentTo)
	}

	if stats.TotalCodes > 0 {
		rate := float64(stats.UsedCodes) / float64(stats.TotalCodes) * 100
		stats.UsageRate = math.Round(rate*10) / 10
	}
	return stats
}

func statusOf(item model.InviteCodeItem, now time.Time) Status {
	switch {
	case item.IsArchived:
		return StatusArchived
	case item.IsUsed:
		return StatusUsed
	case isExpired(item, now):
		return StatusExpired
	default:
		return StatusActive
	}
}

func isExpired(item model.InviteCodeItem, now time.Time) bool {
	if item.ExpiresAt == "" {
		return false
	}
	expires, err := time.Parse(time.RFC3339, item.ExpiresAt)
	if err != nil {
		return false
	}
	return now.After(expires)
}
