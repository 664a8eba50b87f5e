package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atmx/exotics-engine/internal/model"
)

// Schema creates the instruments table. Notionals are NUMERIC for exact
// decimal precision; simulation parameters are JSONB.
const Schema = `
CREATE TABLE IF NOT EXISTS instruments (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	variant     TEXT NOT NULL,
	notional    NUMERIC NOT NULL,
	params      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables the store needs if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PostgresStore) CreateInstrument(ctx context.Context, inst *model.Instrument) error {
	params, err := json.Marshal(inst.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO instruments (id, name, variant, notional, params, created_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::JSONB, $6)`,
		inst.ID, inst.Name, inst.Variant, inst.Notional.String(), string(params), inst.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, inst.Name)
	}
	return err
}

const selectInstrument = `SELECT id::TEXT, name, variant, notional::TEXT, params::TEXT, created_at FROM instruments`

func (s *PostgresStore) GetInstrument(ctx context.Context, id string) (*model.Instrument, error) {
	inst, err := scanInstrument(s.pool.QueryRow(ctx, selectInstrument+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get instrument %s: %w", id, err)
	}
	return inst, nil
}

func (s *PostgresStore) GetInstrumentByName(ctx context.Context, name string) (*model.Instrument, error) {
	inst, err := scanInstrument(s.pool.QueryRow(ctx, selectInstrument+` WHERE name = $1`, name))
	if err != nil {
		return nil, fmt.Errorf("get instrument by name %s: %w", name, err)
	}
	return inst, nil
}

func (s *PostgresStore) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	rows, err := s.pool.Query(ctx, selectInstrument+` ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstruments(rows)
}

func (s *PostgresStore) DeleteInstrument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM instruments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// pgxRow is the subset of pgx.Row used by the scanners.
type pgxRow interface {
	Scan(dest ...any) error
}

// pgxRows is the subset of pgx.Rows used by scanInstruments.
type pgxRows interface {
	pgxRow
	Next() bool
	Err() error
}

// scanInstrument reads one row; pgx.ErrNoRows becomes ErrNotFound.
func scanInstrument(row pgxRow) (*model.Instrument, error) {
	var inst model.Instrument
	var notional, params string

	err := row.Scan(&inst.ID, &inst.Name, &inst.Variant, &notional, &params, &inst.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if inst.Notional, err = decimal.NewFromString(notional); err != nil {
		return nil, fmt.Errorf("decode notional %q: %w", notional, err)
	}
	if err := json.Unmarshal([]byte(params), &inst.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &inst, nil
}

func scanInstruments(rows pgxRows) ([]model.Instrument, error) {
	var list []model.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *inst)
	}
	return list, rows.Err()
}
