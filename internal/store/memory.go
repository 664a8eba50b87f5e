package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/exotics-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	instruments map[string]*model.Instrument
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instruments: make(map[string]*model.Instrument),
	}
}

func (s *MemoryStore) CreateInstrument(_ context.Context, inst *model.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instruments[inst.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicate, inst.ID)
	}
	for _, existing := range s.instruments {
		if existing.Name == inst.Name {
			return fmt.Errorf("%w: %s", ErrDuplicate, inst.Name)
		}
	}

	// Store a copy to avoid external mutation.
	s.instruments[inst.ID] = clone(inst)
	return nil
}

func (s *MemoryStore) GetInstrument(_ context.Context, id string) (*model.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(inst), nil
}

func (s *MemoryStore) GetInstrumentByName(_ context.Context, name string) (*model.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inst := range s.instruments {
		if inst.Name == name {
			return clone(inst), nil
		}
	}
	return nil, fmt.Errorf("%w: name %s", ErrNotFound, name)
}

func (s *MemoryStore) ListInstruments(_ context.Context) ([]model.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.Instrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		list = append(list, *clone(inst))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Name < list[j].Name
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MemoryStore) DeleteInstrument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instruments[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.instruments, id)
	return nil
}

// clone deep-copies the option sub-configuration pointers as well.
func clone(inst *model.Instrument) *model.Instrument {
	c := *inst
	o := &c.Params.Option
	if o.Asian != nil {
		a := *o.Asian
		o.Asian = &a
	}
	if o.Barrier != nil {
		b := *o.Barrier
		o.Barrier = &b
	}
	if o.Lookback != nil {
		l := *o.Lookback
		o.Lookback = &l
	}
	return &c
}
