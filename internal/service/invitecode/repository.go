package invitecode

import (
	"context"
	"errors"
	"sort"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("invite code repository: not found")

type Repository interface {
	GetInviteCode(ctx context.Context, id string) (model.InviteCodeItem, error)
	GetInviteCodeByCode(ctx context.Context, code string) (model.InviteCodeItem, error)
	PutInviteCode(ctx context.Context, item model.InviteCodeItem) error
	ListInviteCodes(ctx context.Context) ([]model.InviteCodeItem, error)
	DeleteInviteCode(ctx context.Context, id string) error
	BatchDeleteInviteCodes(ctx context.Context, ids []string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetInviteCode(ctx context.Context, id string) (model.InviteCodeItem, error) {
	var item model.InviteCodeItem
	err := r.db.Client.GetItem(ctx, model.InviteCodesTable, database.StringKey("id", id), &item)
	if err != nil {
		if database.IsNotFound(err) {
			return model.InviteCodeItem{}, ErrNotFound
		}
		return model.InviteCodeItem{}, err
	}
	return item, nil
}

func (r *DynamoRepository) GetInviteCodeByCode(ctx context.Context, code string) (model.InviteCodeItem, error) {
	items, err := r.ListInviteCodes(ctx)
	if err != nil {
		return model.InviteCodeItem{}, err
	}
	for _, item := range items {
		if item.Code == code {
			return item, nil
		}
	}
	return model.InviteCodeItem{}, ErrNotFound
}

func (r *DynamoRepository) PutInviteCode(ctx context.Context, item model.InviteCodeItem) error {
	return r.db.Client.PutItem(ctx, model.InviteCodesTable, item)
}

func (r *DynamoRepository) ListInviteCodes(ctx context.Context) ([]model.InviteCodeItem, error) {
	var items []model.InviteCodeItem
	if err := r.db.Client.ScanAllInto(ctx, model.InviteCodesTable, &items); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

func (r *DynamoRepository) DeleteInviteCode(ctx context.Context, id string) error {
	return r.db.Client.DeleteItem(ctx, model.InviteCodesTable, database.StringKey("id", id))
}

func (r *DynamoRepository) BatchDeleteInviteCodes(ctx context.Context, ids []string) error {
	return r.db.Client.BatchDeleteByStringKeys(ctx, model.InviteCodesTable, "id", ids)
}
