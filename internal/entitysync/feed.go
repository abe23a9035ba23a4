package entitysync

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event is one row-level change received from a table's change feed. Old and
// New are raw snake_case rows; delete events may carry only the key column
// in Old.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Table     string          `json:"table"`
	Old       json.RawMessage `json:"old,omitempty"`
	New       json.RawMessage `json:"new,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Feed opens a push channel for one table's change events. The returned
// cancel func tears the subscription down; the channel closes when the
// subscription ends. A Subscribe error means live updates are unavailable —
// callers degrade to manual refresh.
type Feed interface {
	Subscribe(ctx context.Context, table string, kinds []EventKind) (<-chan Event, func(), error)
}

// RedisFeed subscribes to the pub/sub channels the admin server publishes
// row changes on.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func feedChannel(table string) string {
	return "feed:" + table
}

func (f *RedisFeed) Subscribe(ctx context.Context, table string, kinds []EventKind) (<-chan Event, func(), error) {
	sub := f.client.Subscribe(ctx, feedChannel(table))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	wanted := make(map[EventKind]bool, len(kinds))
	for _, kind := range kinds {
		wanted[kind] = true
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("sync feed %s: dropping malformed event: %v", table, err)
				continue
			}
			if len(wanted) > 0 && !wanted[event.Kind] {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		sub.Close()
	}
	return out, cancel, nil
}
