package subscription

import (
	"context"
	"errors"
	"sort"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("subscription repository: not found")

type Repository interface {
	GetSubscription(ctx context.Context, id string) (model.SubscriptionItem, error)
	GetSubscriptionByUser(ctx context.Context, userID string) (model.SubscriptionItem, error)
	PutSubscription(ctx context.Context, item model.SubscriptionItem) error
	ListSubscriptions(ctx context.Context) ([]model.SubscriptionItem, error)
	DeleteSubscription(ctx context.Context, id string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetSubscription(ctx context.Context, id string) (model.SubscriptionItem, error) {
	var item model.SubscriptionItem
	err := r.db.Client.GetItem(ctx, model.SubscriptionsTable, database.StringKey("id", id), &item)
	if err != nil {
		if database.IsNotFound(err) {
			return model.SubscriptionItem{}, ErrNotFound
		}
		return model.SubscriptionItem{}, err
	}
	return item, nil
}

func (r *DynamoRepository) GetSubscriptionByUser(ctx context.Context, userID string) (model.SubscriptionItem, error) {
	items, err := r.ListSubscriptions(ctx)
	if err != nil {
		return model.SubscriptionItem{}, err
	}
	for _, item := range items {
		if item.UserID == userID {
			return item, nil
		}
	}
	return model.SubscriptionItem{}, ErrNotFound
}

func (r *DynamoRepository) PutSubscription(ctx context.Context, item model.SubscriptionItem) error {
	return r.db.Client.PutItem(ctx, model.SubscriptionsTable, item)
}

func (r *DynamoRepository) ListSubscriptions(ctx context.Context) ([]model.SubscriptionItem, error) {
	var items []model.SubscriptionItem
	if err := r.db.Client.ScanAllInto(ctx, model.SubscriptionsTable, &items); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

func (r *DynamoRepository) DeleteSubscription(ctx context.Context, id string) error {
	return r.db.Client.DeleteItem(ctx, model.SubscriptionsTable, database.StringKey("id", id))
}
