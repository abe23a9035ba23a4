package credit

import (
	"context"
	"errors"
	"sort"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("credit repository: not found")

type Repository interface {
	GetBalance(ctx context.Context, userID string) (model.CreditBalanceItem, error)
	PutBalance(ctx context.Context, balance model.CreditBalanceItem) error
	ListBalances(ctx context.Context) ([]model.CreditBalanceItem, error)

	ListPurchases(ctx context.Context) ([]model.CreditPurchaseItem, error)
	GetPurchase(ctx context.Context, id string) (model.CreditPurchaseItem, error)

	PutUsage(ctx context.Context, usage model.CreditUsageItem) error
	ListUsage(ctx context.Context) ([]model.CreditUsageItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetBalance(ctx context.Context, userID string) (model.CreditBalanceItem, error) {
	var balance model.CreditBalanceItem
	err := r.db.Client.GetItem(ctx, model.CreditBalancesTable, database.StringKey("userId", userID), &balance)
	if err != nil {
		if database.IsNotFound(err) {
			return model.CreditBalanceItem{}, ErrNotFound
		}
		return model.CreditBalanceItem{}, err
	}
	return balance, nil
}

func (r *DynamoRepository) PutBalance(ctx context.Context, balance model.CreditBalanceItem) error {
	return r.db.Client.PutItem(ctx, model.CreditBalancesTable, balance)
}

func (r *DynamoRepository) ListBalances(ctx context.Context) ([]model.CreditBalanceItem, error) {
	var balances []model.CreditBalanceItem
	if err := r.db.Client.ScanAllInto(ctx, model.CreditBalancesTable, &balances); err != nil {
		return nil, err
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].LastUpdated > balances[j].LastUpdated
	})
	return balances, nil
}

func (r *DynamoRepository) ListPurchases(ctx context.Context) ([]model.CreditPurchaseItem, error) {
	var purchases []model.CreditPurchaseItem
	if err := r.db.Client.ScanAllInto(ctx, model.CreditPurchasesTable, &purchases); err != nil {
		return nil, err
	}
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].CreatedAt > purchases[j].CreatedAt
	})
	return purchases, nil
}

func (r *DynamoRepository) GetPurchase(ctx context.Context, id string) (model.CreditPurchaseItem, error) {
	var purchase model.CreditPurchaseItem
	err := r.db.Client.GetItem(ctx, model.CreditPurchasesTable, database.StringKey("id", id), &purchase)
	if err != nil {
		if database.IsNotFound(err) {
			return model.CreditPurchaseItem{}, ErrNotFound
		}
		return model.CreditPurchaseItem{}, err
	}
	return purchase, nil
}

func (r *DynamoRepository) PutUsage(ctx context.Context, usage model.CreditUsageItem) error {
	return r.db.Client.PutItem(ctx, model.CreditUsageTable, usage)
}

func (r *DynamoRepository) ListUsage(ctx context.Context) ([]model.CreditUsageItem, error) {
	var usage []model.CreditUsageItem
	if err := r.db.Client.ScanAllInto(ctx, model.CreditUsageTable, &usage); err != nil {
		return nil, err
	}
	sort.Slice(usage, func(i, j int) bool {
		return usage[i].CreatedAt > usage[j].CreatedAt
	})
	return usage, nil
}
