package user

import (
	"context"
	"errors"
	"sort"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("user repository: not found")

type Repository interface {
	GetProfile(ctx context.Context, userID string) (model.UserProfileItem, error)
	PutProfile(ctx context.Context, profile model.UserProfileItem) error
	ListProfiles(ctx context.Context) ([]model.UserProfileItem, error)
	DeleteProfile(ctx context.Context, userID string) error
	BatchDeleteProfiles(ctx context.Context, userIDs []string) error

	GetAccount(ctx context.Context, userID string) (model.AccountItem, error)
	PutAccount(ctx context.Context, account model.AccountItem) error
	ListAccounts(ctx context.Context) ([]model.AccountItem, error)
	DeleteAccount(ctx context.Context, userID string) error
	BatchDeleteAccounts(ctx context.Context, userIDs []string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetProfile(ctx context.Context, userID string) (model.UserProfileItem, error) {
	var profile model.UserProfileItem
	err := r.db.Client.GetItem(ctx, model.UserProfilesTable, database.StringKey("userId", userID), &profile)
	if err != nil {
		if database.IsNotFound(err) {
			return model.UserProfileItem{}, ErrNotFound
		}
		return model.UserProfileItem{}, err
	}
	return profile, nil
}

func (r *DynamoRepository) PutProfile(ctx context.Context, profile model.UserProfileItem) error {
	return r.db.Client.PutItem(ctx, model.UserProfilesTable, profile)
}

func (r *DynamoRepository) ListProfiles(ctx context.Context) ([]model.UserProfileItem, error) {
	var profiles []model.UserProfileItem
	if err := r.db.Client.ScanAllInto(ctx, model.UserProfilesTable, &profiles); err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt > profiles[j].CreatedAt
	})
	return profiles, nil
}

func (r *DynamoRepository) DeleteProfile(ctx context.Context, userID string) error {
	return r.db.Client.DeleteItem(ctx, model.UserProfilesTable, database.StringKey("userId", userID))
}

func (r *DynamoRepository) BatchDeleteProfiles(ctx context.Context, userIDs []string) error {
	return r.db.Client.BatchDeleteByStringKeys(ctx, model.UserProfilesTable, "userId", userIDs)
}

func (r *DynamoRepository) GetAccount(ctx context.Context, userID string) (model.AccountItem, error) {
	var account model.AccountItem
	err := r.db.Client.GetItem(ctx, model.AccountsTable, database.StringKey("userId", userID), &account)
	if err != nil {
		if database.IsNotFound(err) {
			return model.AccountItem{}, ErrNotFound
		}
		return model.AccountItem{}, err
	}
	return account, nil
}

func (r *DynamoRepository) PutAccount(ctx context.Context, account model.AccountItem) error {
	return r.db.Client.PutItem(ctx, model.AccountsTable, account)
}

func (r *DynamoRepository) ListAccounts(ctx context.Context) ([]model.AccountItem, error) {
	var accounts []model.AccountItem
	if err := r.db.Client.ScanAllInto(ctx, model.AccountsTable, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *DynamoRepository) DeleteAccount(ctx context.Context, userID string) error {
	return r.db.Client.DeleteItem(ctx, model.AccountsTable, database.StringKey("userId", userID))
}

func (r *DynamoRepository) BatchDeleteAccounts(ctx context.Context, userIDs []string) error {
	return r.db.Client.BatchDeleteByStringKeys(ctx, model.AccountsTable, "userId", userIDs)
}
