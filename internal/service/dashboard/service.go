// Package dashboard serves the admin home page's headline numbers from a
// live synced view of the invite code collection, so polling clients never
// trigger a table scan of their own.
package dashboard

import (
	"context"
	"time"

	"helium-admin-backend/internal/entitysync"
	"helium-admin-backend/internal/model"
	"helium-admin-backend/internal/service/invitecode"
)

// The stats view always works on the whole collection, so the engine gets
// a page size no real table reaches.
const allCodes = 10000

type Service struct {
	engine *entitysync.Engine
	codes  *invitecode.Service
	now    func() time.Time
}

func New(codes *invitecode.Service, store entitysync.Store, feed entitysync.Feed) *Service {
	return NewWithClock(codes, store, feed, nil)
}

func NewWithClock(codes *invitecode.Service, store entitysync.Store, feed entitysync.Feed, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	fetcher := entitysync.FetcherFunc(func(ctx context.Context, _ entitysync.Query) (entitysync.FetchResult, error) {
		items, err := codes.List(ctx, invitecode.ListParams{Status: invitecode.StatusAll})
		if err != nil {
			return entitysync.FetchResult{}, err
		}
		records := make([]entitysync.Record, 0, len(items))
		for _, item := range items {
			records = append(records, item)
		}
		return entitysync.FetchResult{Records: records, TotalCount: len(items)}, nil
	})

	engine := entitysync.NewEngineWithOptions(entitysync.InviteCodeEntity(), store, fetcher, feed, entitysync.Options{
		PageSize: allCodes,
	})

	return &Service{engine: engine, codes: codes, now: now}
}

// Run starts the live view: cached render, initial fetch, then feed
// patches. It blocks until ctx ends.
func (s *Service) Run(ctx context.Context) {
	s.engine.Run(ctx)
}

// Refresh re-fetches the view immediately instead of waiting for the feed.
func (s *Service) Refresh() {
	s.engine.Refresh()
}

// Loaded reports whether the live view has caught up with the table.
func (s *Service) Loaded() bool {
	return s.engine.Snapshot().State == entitysync.StateLoaded
}

// Stats returns the invite code headline numbers. A loaded view answers
// from the synced records; before the first fetch lands the numbers come
// straight from the invite code service instead.
func (s *Service) Stats(ctx context.Context) (invitecode.Stats, error) {
	snap := s.engine.Snapshot()
	if snap.State != entitysync.StateLoaded {
		return s.codes.Stats(ctx)
	}

	items := make([]model.InviteCodeItem, 0, len(snap.Records))
	for _, rec := range snap.Records {
		if item, ok := rec.(model.InviteCodeItem); ok {
			items = append(items, item)
		}
	}
	return invitecode.ComputeStats(items, s.now()), nil
}
