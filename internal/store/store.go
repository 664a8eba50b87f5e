// Package store defines the persistence interface for instrument definitions.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and single-node use).
//
// Only definitions are stored. Simulation output is recomputed per request
// and never persisted.
package store

import (
	"context"
	"errors"

	"github.com/atmx/exotics-engine/internal/model"
)

var (
	ErrNotFound  = errors.New("store: instrument not found")
	ErrDuplicate = errors.New("store: instrument name already exists")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// CreateInstrument persists a new instrument. Names are unique.
	CreateInstrument(ctx context.Context, inst *model.Instrument) error

	// GetInstrument retrieves an instrument by its ID.
	GetInstrument(ctx context.Context, id string) (*model.Instrument, error)

	// GetInstrumentByName retrieves an instrument by its unique name.
	GetInstrumentByName(ctx context.Context, name string) (*model.Instrument, error)

	// ListInstruments returns all instruments, newest first.
	ListInstruments(ctx context.Context) ([]model.Instrument, error)

	// DeleteInstrument removes an instrument.
	DeleteInstrument(ctx context.Context, id string) error
}
