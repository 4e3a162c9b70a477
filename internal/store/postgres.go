package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradingdesk/internal/db"
)

var postgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS desk`,
	`CREATE TABLE IF NOT EXISTS desk.saves (
		slot       text PRIMARY KEY,
		blob       bytea NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
}

type Postgres struct {
	pool  *pgxpool.Pool
	owned bool
}

// OpenPostgres connects with the shared pool settings and owns the pool.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	p, err := NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// NewPostgres uses an existing pool; Close leaves it open.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	var blob []byte
	err := p.pool.QueryRow(ctx, `SELECT blob FROM desk.saves WHERE slot = $1`, slot).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return blob, nil
}

func (p *Postgres) Save(ctx context.Context, slot string, blob []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO desk.saves (slot, blob, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()
	`, slot, blob)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM desk.saves WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.owned {
		p.pool.Close()
	}
	return nil
}
