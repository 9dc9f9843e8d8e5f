package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

// DB is the subset of *pgxpool.Pool used by the slot.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Slot implements slot.Slot as one row of the cart_slots table, which
// RunMigrations creates.
type Slot struct {
	db  DB
	key string
}

// NewSlot creates a PostgreSQL-backed slot.
func NewSlot(db DB, key string) *Slot {
	return &Slot{db: db, key: key}
}

// Load reads the slot row.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM cart_slots WHERE key = $1`, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("cart slot", s.key)
		}
		return nil, fmt.Errorf("select cart slot: %w", err)
	}
	return []byte(value), nil
}

// Save upserts the slot row.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO cart_slots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, s.key, string(data)); err != nil {
		return fmt.Errorf("upsert cart slot: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Slot) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
