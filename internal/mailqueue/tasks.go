package mailqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeDeliverEmail = "email:deliver"

// DeliverEmailPayload is one recipient's slice of a bulk send. The worker
// renders and delivers the message, then folds the outcome back into the
// batch row.
type DeliverEmailPayload struct {
	BatchID     string    `json:"batch_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Template    string    `json:"template"`
	TextContent string    `json:"text_content"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

func NewDeliverEmailTask(payload DeliverEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal deliver payload: %w", err)
	}
	return asynq.NewTask(TypeDeliverEmail, body), nil
}

func ParseDeliverEmailPayload(task *asynq.Task) (DeliverEmailPayload, error) {
	var payload DeliverEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DeliverEmailPayload{}, fmt.Errorf("unmarshal deliver payload: %w", err)
	}
	return payload, nil
}
