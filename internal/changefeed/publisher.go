package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publish marshals one row and emits it on the table's feed channel. Old and
// new may be any value with the entity's snake_case JSON shape; pass nil for
// the side the event kind does not carry.
func Publish(table string, kind EventKind, oldRow, newRow interface{}) error {
	if table == "" {
		return fmt.Errorf("feed publish: table required")
	}
	if redisClient == nil {
		return fmt.Errorf("feed publish: redis client not initialised")
	}

	event := Event{
		Kind:      kind,
		Table:     table,
		Timestamp: time.Now().Unix(),
	}

	if oldRow != nil {
		raw, err := json.Marshal(oldRow)
		if err != nil {
			return fmt.Errorf("feed publish: marshal old row: %w", err)
		}
		event.Old = raw
	}
	if newRow != nil {
		raw, err := json.Marshal(newRow)
		if err != nil {
			return fmt.Errorf("feed publish: marshal new row: %w", err)
		}
		event.New = raw
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("feed publish: marshal event: %w", err)
	}

	if err := redisClient.Publish(context.Background(), Channel(table), string(payload)).Err(); err != nil {
		return fmt.Errorf("feed publish: redis publish: %w", err)
	}
	incPublished(table)
	return nil
}
