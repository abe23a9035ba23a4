package identity

import (
	"context"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

type Repository interface {
	BatchGetProfiles(ctx context.Context, userIDs []string) ([]model.UserProfileItem, error)
	BatchGetAccounts(ctx context.Context, userIDs []string) ([]model.AccountItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) BatchGetProfiles(ctx context.Context, userIDs []string) ([]model.UserProfileItem, error) {
	items, err := r.db.Client.BatchGetByKeys(ctx, model.UserProfilesTable, userIDs, "userId", 100, nil)
	if err != nil {
		return nil, err
	}
	var profiles []model.UserProfileItem
	if err := attributevalue.UnmarshalListOfMaps(items, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *DynamoRepository) BatchGetAccounts(ctx context.Context, userIDs []string) ([]model.AccountItem, error) {
	items, err := r.db.Client.BatchGetByKeys(ctx, model.AccountsTable, userIDs, "userId", 100, nil)
	if err != nil {
		return nil, err
	}
	var accounts []model.AccountItem
	if err := attributevalue.UnmarshalListOfMaps(items, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
