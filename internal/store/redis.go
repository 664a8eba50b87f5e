package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/exotics-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh or invalidate the cache;
// reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) CreateInstrument(ctx context.Context, inst *model.Instrument) error {
	if err := s.primary.CreateInstrument(ctx, inst); err != nil {
		return err
	}
	s.cacheInstrument(ctx, inst)
	return nil
}

func (s *CachedStore) DeleteInstrument(ctx context.Context, id string) error {
	inst, err := s.primary.GetInstrument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.primary.DeleteInstrument(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, instrumentKey(id), nameKey(inst.Name))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetInstrument(ctx context.Context, id string) (*model.Instrument, error) {
	data, err := s.rdb.Get(ctx, instrumentKey(id)).Bytes()
	if err == nil {
		var inst model.Instrument
		if json.Unmarshal(data, &inst) == nil {
			return &inst, nil
		}
	}

	inst, err := s.primary.GetInstrument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheInstrument(ctx, inst)
	return inst, nil
}

func (s *CachedStore) GetInstrumentByName(ctx context.Context, name string) (*model.Instrument, error) {
	// Try cache via name→ID mapping.
	id, err := s.rdb.Get(ctx, nameKey(name)).Result()
	if err == nil {
		return s.GetInstrument(ctx, id)
	}

	inst, err := s.primary.GetInstrumentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cacheInstrument(ctx, inst)
	return inst, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	return s.primary.ListInstruments(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheInstrument(ctx context.Context, inst *model.Instrument) {
	if data, err := json.Marshal(inst); err == nil {
		s.rdb.Set(ctx, instrumentKey(inst.ID), data, s.ttl)
		s.rdb.Set(ctx, nameKey(inst.Name), inst.ID, s.ttl)
	}
}

func instrumentKey(id string) string { return fmt.Sprintf("instrument:%s", id) }
func nameKey(name string) string     { return fmt.Sprintf("instrument-name:%s", name) }
