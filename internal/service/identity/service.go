// Package identity resolves bare user ids into whatever the dashboard
// can display for them. Profile data wins, the account record is the
// fallback, and ids with neither still come back with a placeholder so
// rows never silently disappear from admin views.
package identity

import (
	"context"
	"strings"

	"helium-admin-backend/internal/database"
)

// UnknownUserName marks ids that matched neither a profile nor an account.
const UnknownUserName = "(unknown user)"

type ResolvedUser struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type Service struct {
	repo Repository
}

func New(db *database.Database) *Service {
	return &Service{repo: NewDynamoRepository(db)}
}

func NewWithRepository(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns one entry per distinct input id, in input order.
func (s *Service) Resolve(ctx context.Context, userIDs []string) ([]ResolvedUser, error) {
	ids := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		ids = append(ids, trimmed)
	}
	if len(ids) == 0 {
		return []ResolvedUser{}, nil
	}

	profiles, err := s.repo.BatchGetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.BatchGetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		if profile.FullName != "" {
			names[profile.UserID] = profile.FullName
		} else if profile.PreferredName != "" {
			names[profile.UserID] = profile.PreferredName
		}
	}

	emails := make(map[string]string, len(accounts))
	displayNames := make(map[string]string, len(accounts))
	for _, account := range accounts {
		emails[account.UserID] = account.Email
		displayNames[account.UserID] = account.DisplayName
	}

	resolved := make([]ResolvedUser, 0, len(ids))
	for _, id := range ids {
		user := ResolvedUser{
			ID:       id,
			Email:    emails[id],
			FullName: names[id],
		}
		if user.FullName == "" {
			user.FullName = displayNames[id]
		}
		if user.FullName == "" && user.Email == "" {
			user.FullName = UnknownUserName
		}
		resolved = append(resolved, user)
	}
	return resolved, nil
}

// Emails maps each resolvable id to its account email, skipping ids
// without one.
func (s *Service) Emails(ctx context.Context, userIDs []string) (map[string]string, error) {
	resolved, err := s.Resolve(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(resolved))
	for _, user := range resolved {
		if user.Email != "" {
			emails[user.ID] = user.Email
		}
	}
	return emails, nil
}
