package entitysync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
	StateLoaded  State = "loaded"
)

const (
	defaultSearchDebounce  = 300 * time.Millisecond
	defaultRefetchDebounce = 500 * time.Millisecond
	defaultPageSize        = 10
)

var (
	errMissingRow = errors.New("event carries no row payload")
	errMissingKey = errors.New("event row carries no key")
)

// Snapshot is a point-in-time copy of a view's state.
type Snapshot struct {
	State      State
	Error      string
	Records    []Record
	TotalCount int
	Aggregates Aggregates
	Search     string
	Category   string
	Page       int
}

type Options struct {
	SearchDebounce  time.Duration
	RefetchDebounce time.Duration
	PageSize        int
	// OnUpdate is called after every applied state change with a fresh
	// snapshot. Calls are serialized.
	OnUpdate func(Snapshot)
}

// Engine is one synced entity view: cached render on start, a fresh fetch
// layered over it, then live row patches (or debounced re-fetches for
// aggregate entities) until the context ends.
//
// Every fetch carries a sequence number taken when it is issued; a response
// whose sequence is lower than the last applied one is discarded, so a slow
// response for an old filter can never overwrite newer data. Feed events
// patch the current collection in arrival order.
type Engine struct {
	cfg     EntityConfig
	store   Store
	fetcher Fetcher
	feed    Feed

	searchDebounce  time.Duration
	refetchDebounce time.Duration

	notifyMu sync.Mutex
	onUpdate func(Snapshot)

	mu            sync.Mutex
	state         State
	errMsg        string
	records       []Record
	totalCount    int
	aggregates    Aggregates
	search        string
	pendingSearch string
	category      string
	page          int
	limit         int
	seq           uint64
	lastApplied   uint64
	searchTimer   *time.Timer
	refetchTimer  *time.Timer
	closed        bool

	runCtx context.Context
}

func NewEngine(cfg EntityConfig, store Store, fetcher Fetcher, feed Feed) *Engine {
	return NewEngineWithOptions(cfg, store, fetcher, feed, Options{})
}

func NewEngineWithOptions(cfg EntityConfig, store Store, fetcher Fetcher, feed Feed, opts Options) *Engine {
	searchDebounce := opts.SearchDebounce
	if searchDebounce <= 0 {
		searchDebounce = defaultSearchDebounce
	}
	refetchDebounce := opts.RefetchDebounce
	if refetchDebounce <= 0 {
		refetchDebounce = defaultRefetchDebounce
	}
	limit := opts.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}

	return &Engine{
		cfg:             cfg,
		store:           store,
		fetcher:         fetcher,
		feed:            feed,
		searchDebounce:  searchDebounce,
		refetchDebounce: refetchDebounce,
		onUpdate:        opts.OnUpdate,
		state:           StateIdle,
		page:            1,
		limit:           limit,
		runCtx:          context.Background(),
	}
}

// Run renders the cached snapshot, issues the initial fetch, and consumes
// the change feed until ctx is cancelled. It blocks; start it on its own
// goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.runCtx = ctx
	e.mu.Unlock()

	e.loadCache(ctx)

	e.mu.Lock()
	e.state = StateLoading
	seq, query := e.issueLocked()
	e.mu.Unlock()
	e.notify()
	go e.fetch(ctx, seq, query)

	var events <-chan Event
	if e.feed != nil {
		ch, cancel, err := e.feed.Subscribe(ctx, e.cfg.Table, []EventKind{EventInsert, EventUpdate, EventDelete})
		if err != nil {
			// Live updates unavailable; manual refresh still works.
			log.Printf("sync %s: subscription unavailable: %v", e.cfg.Table, err)
		} else {
			defer cancel()
			events = ch
		}
	}

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case event, ok := <-events:
			if !ok {
				log.Printf("sync %s: change feed closed, degrading to manual refresh", e.cfg.Table)
				events = nil
				continue
			}
			e.applyEvent(ctx, event)
		}
	}
}

// loadCache renders the last-known snapshot before the first fetch lands.
// Any failure is logged and ignored; the cache is never a correctness
// requirement.
func (e *Engine) loadCache(ctx context.Context) {
	if e.store == nil {
		return
	}
	rows, err := e.store.GetAll(ctx, e.cfg.Table)
	if err != nil {
		log.Printf("sync %s: cache read failed: %v", e.cfg.Table, err)
		return
	}
	if len(rows) == 0 {
		return
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(e.cfg, row.Data)
		if err != nil {
			log.Printf("sync %s: dropping cached row %s: %v", e.cfg.Table, row.Key, err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return
	}

	e.mu.Lock()
	e.records = records
	e.totalCount = len(records)
	e.mu.Unlock()
	e.notify()
}

func decodeRow(cfg EntityConfig, data []byte) (Record, error) {
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return cfg.Decode(row)
}

// issueLocked assigns the next fetch sequence and captures the current query.
func (e *Engine) issueLocked() (uint64, Query) {
	e.seq++
	return e.seq, Query{
		Search:   e.search,
		Category: e.category,
		Page:     e.page,
		Limit:    e.limit,
	}
}

func (e *Engine) fetch(ctx context.Context, seq uint64, query Query) {
	result, err := e.fetcher.Fetch(ctx, query)

	e.mu.Lock()
	if e.closed || seq < e.lastApplied {
		// A newer fetch already landed; this response is stale.
		e.mu.Unlock()
		return
	}
	e.lastApplied = seq

	if err != nil {
		e.state = StateError
		e.errMsg = err.Error()
		e.mu.Unlock()
		e.notify()
		return
	}

	e.state = StateLoaded
	e.errMsg = ""
	e.records = append([]Record(nil), result.Records...)
	e.totalCount = result.TotalCount
	e.aggregates = result.Aggregates
	e.mu.Unlock()

	e.persistAll(ctx, result.Records)
	e.notify()
}

// persistAll replaces the cached collection with the freshly fetched one.
func (e *Engine) persistAll(ctx context.Context, records []Record) {
	if e.store == nil {
		return
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			log.Printf("sync %s: cache encode %s: %v", e.cfg.Table, rec.Key(), err)
			continue
		}
		rows = append(rows, Row{Key: rec.Key(), Data: data})
	}
	if err := e.store.Clear(ctx, e.cfg.Table); err != nil {
		log.Printf("sync %s: cache clear failed: %v", e.cfg.Table, err)
		return
	}
	if err := e.store.PutAll(ctx, e.cfg.Table, rows); err != nil {
		log.Printf("sync %s: cache write failed: %v", e.cfg.Table, err)
	}
}

func (e *Engine) applyEvent(ctx context.Context, event Event) {
	if e.cfg.Aggregate {
		e.scheduleRefetch()
		return
	}

	switch event.Kind {
	case EventInsert, EventUpdate:
		rec, err := decodeEventRow(e.cfg, event.New)
		if err != nil {
			log.Printf("sync %s: rejecting %s event: %v", e.cfg.Table, event.Kind, err)
			return
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		if event.Kind == EventInsert {
			before := len(e.records)
			e.records = prependRecord(e.records, rec)
			if len(e.records) > before {
				e.totalCount++
			}
		} else {
			e.records = replaceRecord(e.records, rec)
		}
		e.mu.Unlock()

		e.persistOne(ctx, rec)
		e.notify()

	case EventDelete:
		key, err := eventKey(e.cfg, event.Old)
		if err != nil {
			log.Printf("sync %s: rejecting delete event: %v", e.cfg.Table, err)
			return
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		before := len(e.records)
		e.records = removeRecord(e.records, key)
		if len(e.records) < before && e.totalCount > 0 {
			e.totalCount--
		}
		e.mu.Unlock()

		if e.store != nil {
			if err := e.store.Delete(ctx, e.cfg.Table, key); err != nil {
				log.Printf("sync %s: cache delete %s: %v", e.cfg.Table, key, err)
			}
		}
		e.notify()

	default:
		log.Printf("sync %s: ignoring unknown event kind %q", e.cfg.Table, event.Kind)
	}
}

func decodeEventRow(cfg EntityConfig, raw json.RawMessage) (Record, error) {
	if len(raw) == 0 {
		return nil, errMissingRow
	}
	return decodeRow(cfg, raw)
}

// eventKey pulls the entity key out of a delete payload, which may carry
// nothing but the key column.
func eventKey(cfg EntityConfig, raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errMissingRow
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return "", err
	}
	key, ok := row[cfg.KeyField].(string)
	if !ok || key == "" {
		return "", errMissingKey
	}
	return key, nil
}

// scheduleRefetch collapses rapid events into one silent re-fetch once the
// debounce window closes. Silent: the state never flips back to loading, the
// refreshed rows simply replace the visible ones.
func (e *Engine) scheduleRefetch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.refetchTimer != nil {
		e.refetchTimer.Stop()
	}
	e.refetchTimer = time.AfterFunc(e.refetchDebounce, func() {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		seq, query := e.issueLocked()
		ctx := e.runCtx
		e.mu.Unlock()
		e.fetch(ctx, seq, query)
	})
}

// SetSearch debounces the new search text; when the window closes the page
// resets to 1 and exactly one fetch is issued with the final value.
func (e *Engine) SetSearch(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.pendingSearch = text
	if e.searchTimer != nil {
		e.searchTimer.Stop()
	}
	e.searchTimer = time.AfterFunc(e.searchDebounce, func() {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.search = e.pendingSearch
		e.page = 1
		e.state = StateLoading
		seq, query := e.issueLocked()
		ctx := e.runCtx
		e.mu.Unlock()
		e.notify()
		e.fetch(ctx, seq, query)
	})
}

// SetCategory applies the filter immediately: page resets to 1 and a new
// fetch is issued.
func (e *Engine) SetCategory(category string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.category = category
	e.page = 1
	e.state = StateLoading
	seq, query := e.issueLocked()
	ctx := e.runCtx
	e.mu.Unlock()
	e.notify()
	go e.fetch(ctx, seq, query)
}

func (e *Engine) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.page = page
	e.state = StateLoading
	seq, query := e.issueLocked()
	ctx := e.runCtx
	e.mu.Unlock()
	e.notify()
	go e.fetch(ctx, seq, query)
}

// Refresh re-runs the current query.
func (e *Engine) Refresh() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.state = StateLoading
	seq, query := e.issueLocked()
	ctx := e.runCtx
	e.mu.Unlock()
	e.notify()
	go e.fetch(ctx, seq, query)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	records := make([]Record, len(e.records))
	copy(records, e.records)

	var aggregates Aggregates
	if e.aggregates != nil {
		aggregates = make(Aggregates, len(e.aggregates))
		for k, v := range e.aggregates {
			aggregates[k] = v
		}
	}

	return Snapshot{
		State:      e.state,
		Error:      e.errMsg,
		Records:    records,
		TotalCount: e.totalCount,
		Aggregates: aggregates,
		Search:     e.search,
		Category:   e.category,
		Page:       e.page,
	}
}

func (e *Engine) persistOne(ctx context.Context, rec Record) {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("sync %s: cache encode %s: %v", e.cfg.Table, rec.Key(), err)
		return
	}
	if err := e.store.Put(ctx, e.cfg.Table, Row{Key: rec.Key(), Data: data}); err != nil {
		log.Printf("sync %s: cache write %s: %v", e.cfg.Table, rec.Key(), err)
	}
}

func (e *Engine) shutdown() {
	e.mu.Lock()
	e.closed = true
	if e.searchTimer != nil {
		e.searchTimer.Stop()
	}
	if e.refetchTimer != nil {
		e.refetchTimer.Stop()
	}
	e.mu.Unlock()
}

// notify snapshots at delivery time so late callers always hand the consumer
// current state, never the state a slow goroutine captured earlier.
func (e *Engine) notify() {
	if e.onUpdate == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.onUpdate(e.Snapshot())
}
