package changefeed

import "encoding/json"

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event is one row-level change on an entity table. Old is set for update
// and delete, New for insert and update; both are raw snake_case rows.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Table     string          `json:"table"`
	Old       json.RawMessage `json:"old,omitempty"`
	New       json.RawMessage `json:"new,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Channel names the Redis pub/sub channel carrying a table's events.
func Channel(table string) string {
	return "feed:" + table
}

type Table struct {
	Name    string                 `json:"name"`
	Clients map[string]*FeedClient `json:"clients"`
}

type FeedMessage struct {
	Content   string `json:"content"`
	Table     string `json:"table"`
	Timestamp int64  `json:"timestamp"`
}

type TableRes struct {
	Name string `json:"name"`
}
