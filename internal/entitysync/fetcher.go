package entitysync

import "context"

// Query carries the view's current filter parameters.
type Query struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Aggregates holds cross-page totals returned alongside a fetch, e.g. grand
// token and cost totals for the usage view. Simple entities leave it nil.
type Aggregates map[string]float64

type FetchResult struct {
	Records    []Record
	TotalCount int
	Aggregates Aggregates
}

// Fetcher retrieves the current collection for a query. Implementations are
// per entity: a direct table query for simple entities, the server-side
// aggregation call for usage logs. A returned error surfaces on the view as
// a user-visible error string; the engine never retries on its own.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (FetchResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q Query) (FetchResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, q Query) (FetchResult, error) {
	return f(ctx, q)
}
