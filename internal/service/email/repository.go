package email

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
)

var ErrNotFound = errors.New("email repository: not found")

type Repository interface {
	GetBatch(ctx context.Context, id string) (model.EmailBatchItem, error)
	PutBatch(ctx context.Context, item model.EmailBatchItem) error
	ListBatches(ctx context.Context) ([]model.EmailBatchItem, error)
	AddResult(ctx context.Context, id string, sent, failed int, errMsg string) (model.EmailBatchItem, error)
	SetStatus(ctx context.Context, id string, status model.BatchStatus, completedAt string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetBatch(ctx context.Context, id string) (model.EmailBatchItem, error) {
	var item model.EmailBatchItem
	err := r.db.Client.GetItem(ctx, model.EmailBatchesTable, database.StringKey("id", id), &item)
	if err != nil {
		if database.IsNotFound(err) {
			return model.EmailBatchItem{}, ErrNotFound
		}
		return model.EmailBatchItem{}, err
	}
	return item, nil
}

func (r *DynamoRepository) PutBatch(ctx context.Context, item model.EmailBatchItem) error {
	return r.db.Client.PutItem(ctx, model.EmailBatchesTable, item)
}

func (r *DynamoRepository) ListBatches(ctx context.Context) ([]model.EmailBatchItem, error) {
	var items []model.EmailBatchItem
	if err := r.db.Client.ScanAllInto(ctx, model.EmailBatchesTable, &items); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

// AddResult bumps the delivery counters in one atomic update so concurrent
// worker tasks never lose a count. The updated row is returned.
func (r *DynamoRepository) AddResult(ctx context.Context, id string, sent, failed int, errMsg string) (model.EmailBatchItem, error) {
	expr := "ADD #sent :s, #failed :f"
	names := map[string]string{"#sent": "sent", "#failed": "failed"}
	values := map[string]types.AttributeValue{
		":s": &types.AttributeValueMemberN{Value: strconv.Itoa(sent)},
		":f": &types.AttributeValueMemberN{Value: strconv.Itoa(failed)},
	}
	if errMsg != "" {
		expr += " SET #errors = list_append(if_not_exists(#errors, :empty), :err)"
		names["#errors"] = "errors"
		values[":empty"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
		values[":err"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: errMsg},
		}}
	}

	var item model.EmailBatchItem
	key := database.StringKey("id", id)
	if err := r.db.Client.UpdateItem(ctx, model.EmailBatchesTable, key, expr, values, names, &item); err != nil {
		return model.EmailBatchItem{}, err
	}
	return item, nil
}

func (r *DynamoRepository) SetStatus(ctx context.Context, id string, status model.BatchStatus, completedAt string) error {
	expr := "SET #status = :status"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(status)},
	}
	if completedAt != "" {
		expr += ", #completedAt = :completedAt"
		names["#completedAt"] = "completedAt"
		values[":completedAt"] = &types.AttributeValueMemberS{Value: completedAt}
	}

	key := database.StringKey("id", id)
	return r.db.Client.UpdateItem(ctx, model.EmailBatchesTable, key, expr, values, names, nil)
}
