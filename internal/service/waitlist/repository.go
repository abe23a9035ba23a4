package waitlist

import (
	"context"
	"errors"
	"sort"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("waitlist repository: not found")

type Repository interface {
	GetWaitlistUser(ctx context.Context, id string) (model.WaitlistUserItem, error)
	GetWaitlistUserByEmail(ctx context.Context, email string) (model.WaitlistUserItem, error)
	PutWaitlistUser(ctx context.Context, user model.WaitlistUserItem) error
	ListWaitlistUsers(ctx context.Context) ([]model.WaitlistUserItem, error)
	DeleteWaitlistUser(ctx context.Context, id string) error
	BatchDeleteWaitlistUsers(ctx context.Context, ids []string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetWaitlistUser(ctx context.Context, id string) (model.WaitlistUserItem, error) {
	var user model.WaitlistUserItem
	err := r.db.Client.GetItem(ctx, model.WaitlistTable, database.StringKey("id", id), &user)
	if err != nil {
		if database.IsNotFound(err) {
			return model.WaitlistUserItem{}, ErrNotFound
		}
		return model.WaitlistUserItem{}, err
	}
	return user, nil
}

func (r *DynamoRepository) GetWaitlistUserByEmail(ctx context.Context, email string) (model.WaitlistUserItem, error) {
	users, err := r.ListWaitlistUsers(ctx)
	if err != nil {
		return model.WaitlistUserItem{}, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.WaitlistUserItem{}, ErrNotFound
}

func (r *DynamoRepository) PutWaitlistUser(ctx context.Context, user model.WaitlistUserItem) error {
	return r.db.Client.PutItem(ctx, model.WaitlistTable, user)
}

func (r *DynamoRepository) ListWaitlistUsers(ctx context.Context) ([]model.WaitlistUserItem, error) {
	var users []model.WaitlistUserItem
	if err := r.db.Client.ScanAllInto(ctx, model.WaitlistTable, &users); err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].JoinedAt > users[j].JoinedAt
	})
	return users, nil
}

func (r *DynamoRepository) DeleteWaitlistUser(ctx context.Context, id string) error {
	return r.db.Client.DeleteItem(ctx, model.WaitlistTable, database.StringKey("id", id))
}

func (r *DynamoRepository) BatchDeleteWaitlistUsers(ctx context.Context, ids []string) error {
	return r.db.Client.BatchDeleteByStringKeys(ctx, model.WaitlistTable, "id", ids)
}
