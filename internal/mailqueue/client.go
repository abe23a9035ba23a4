package mailqueue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueName = "emails"

	deliverMaxRetry = 5
	deliverTimeout  = 2 * time.Minute
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  QueueName,
	}
}

func (c *Client) EnqueueDeliverEmail(ctx context.Context, payload DeliverEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewDeliverEmailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(deliverMaxRetry),
		asynq.Timeout(deliverTimeout),
	)
}

func (c *Client) Close() error {
	return c.client.Close()
}
